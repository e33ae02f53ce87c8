package folio

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eringen/folio/contact"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `yaml:"name"`                           // Site name (default "Portfolio")
	URL         string `yaml:"url" validate:"required,url"`    // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"`                    // Site description for RSS
	Author      string `yaml:"author"`

	Addr           string `yaml:"addr"`             // Listen address (default ":3000")
	DatabasePath   string `yaml:"database_path"`    // SQLite path (default "data/folio.db")
	UploadsDir     string `yaml:"uploads_dir"`      // Blob bucket root (default "data/uploads")
	UploadsBaseURL string `yaml:"uploads_base_url"` // Prefix for blob URLs; empty means root-relative

	AdminEmail    string `yaml:"admin_email" validate:"required,email"`
	AdminPassword string `yaml:"admin_password" validate:"required"`
	SessionSecret string `yaml:"session_secret" validate:"required"`
	CookieSecure  bool   `yaml:"cookie_secure"` // Set true for HTTPS

	ContactInbox string `yaml:"contact_inbox" validate:"omitempty,email"` // Defaults to AdminEmail
	LogLevel     string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	CacheTTL time.Duration `yaml:"cache_ttl"` // Published content cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folio.db"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "data/uploads"
	}
	if c.ContactInbox == "" {
		c.ContactInbox = c.AdminEmail
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
}

var configValidator = validator.New()

// Validate checks that required settings are present and well formed.
func (c SiteConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("folio: invalid config: %w", err)
	}
	return nil
}

// ConfigFromEnv reads a SiteConfig from environment variables. Unset values
// are left for setDefaults.
func ConfigFromEnv() SiteConfig {
	cfg := SiteConfig{
		Name:           os.Getenv("SITE_NAME"),
		URL:            os.Getenv("SITE_URL"),
		Description:    os.Getenv("SITE_DESCRIPTION"),
		Author:         os.Getenv("SITE_AUTHOR"),
		Addr:           os.Getenv("ADDR"),
		DatabasePath:   os.Getenv("DATABASE_PATH"),
		UploadsDir:     os.Getenv("UPLOADS_DIR"),
		UploadsBaseURL: os.Getenv("UPLOADS_BASE_URL"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		ContactInbox:   os.Getenv("CONTACT_INBOX"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
	}
	cfg.CookieSecure, _ = strconv.ParseBool(os.Getenv("COOKIE_SECURE"))
	if d, err := time.ParseDuration(os.Getenv("CACHE_TTL")); err == nil {
		cfg.CacheTTL = d
	}
	return cfg
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys missing from
// the file keep their current value.
func LoadConfigFile(path string, cfg *SiteConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger sets the logger shared by the app, gateway and services.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		a.Logger = logger
	}
}

// WithMailer replaces the logging mailer used for contact notifications.
func WithMailer(m contact.Mailer) Option {
	return func(a *App) {
		a.mailer = m
	}
}
