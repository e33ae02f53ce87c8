// Package folio is a portfolio site engine built with Go, Echo, and templ.
// It serves published projects and blog posts, an admin surface to edit
// them, RSS and sitemap feeds, and a contact form.
//
// Sites provide their own templ components via the ViewFuncs struct; any
// component left nil is replaced by a JSON response.
package folio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/gateway"
)

// LoginData is passed to the login view.
type LoginData struct {
	ShowError bool             `json:"show_error"`
	CSRFToken string           `json:"csrf_token"`
	Notices   []content.Notice `json:"notices"`
}

// DashboardData is passed to the admin dashboard view.
type DashboardData struct {
	User           content.User        `json:"user"`
	Projects       []content.Project   `json:"projects"`
	Posts          []content.BlogPost  `json:"posts"`
	Stats          content.Stats       `json:"stats"`
	Notices        []content.Notice    `json:"notices"`
	ProjectDialog  content.DialogState `json:"project_dialog"`
	EditingProject *content.Project    `json:"editing_project,omitempty"`
	PostDialog     content.DialogState `json:"post_dialog"`
	EditingPost    *content.BlogPost   `json:"editing_post,omitempty"`
	CSRFToken      string              `json:"csrf_token"`
}

// HomeData is passed to the public home view.
type HomeData struct {
	Projects []content.Project  `json:"projects"`
	Posts    []content.BlogPost `json:"posts"`
	Notices  []content.Notice   `json:"notices,omitempty"`
	SiteURL  string             `json:"site_url"`
}

// PostData is passed to the public post view.
type PostData struct {
	Post    content.BlogPost `json:"post"`
	SiteURL string           `json:"site_url"`
}

// ViewFuncs holds site-provided templ components that the engine calls when
// rendering pages.
type ViewFuncs struct {
	Login       func(data LoginData) templ.Component
	Dashboard   func(data DashboardData) templ.Component
	Home        func(data HomeData) templ.Component
	Post        func(data PostData) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central folio application. It wires together the gateway,
// services, handlers, middleware, and site-provided templates.
type App struct {
	Config     SiteConfig
	Echo       *echo.Echo
	Gateway    *gateway.Gateway
	Content    *content.Controller
	Contact    *contact.Service
	Workspaces *content.Workspaces
	Cache      *PublishedCache
	Views      ViewFuncs
	Logger     *zap.Logger

	loginLimiter   *RateLimiter
	contactLimiter *RateLimiter
	mailer         contact.Mailer
	customRoutes   []func(*App)
}

// New creates a new folio App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config:     cfg,
		Echo:       e,
		Views:      views,
		Workspaces: content.NewWorkspaces(),
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}

	return a
}

// Init opens the gateway, builds the services, and registers middleware and
// routes. Start calls it; tests call it directly and serve a.Echo.
func (a *App) Init() error {
	if err := a.Config.Validate(); err != nil {
		return err
	}

	gw, err := gateway.Open(gateway.Config{
		DatabasePath: a.Config.DatabasePath,
		UploadsDir:   a.Config.UploadsDir,
		BaseURL:      a.Config.UploadsBaseURL,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("folio: init gateway: %w", err)
	}
	a.Gateway = gw

	a.Content = content.NewController(gw, a.Logger.Named("content"))
	a.Contact = contact.NewService(gw, a.mailer, a.Config.ContactInbox, a.Logger)
	a.Cache = NewPublishedCache(gw, a.Config.CacheTTL)
	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.contactLimiter = NewRateLimiter(5, 10*time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	return errors.Join(err, a.Close())
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/uploads", a.Gateway.Dir())

	// Public routes
	e.GET("/", a.handleHome)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/api/projects", a.handleAPIProjects)
	e.GET("/api/posts", a.handleAPIPosts)
	e.GET("/api/posts/:slug", a.handleAPIPost)
	e.POST("/api/contact", a.handleContact)

	// Session
	e.GET("/login/", a.handleLoginPage)
	e.POST("/login/", a.handleLogin)
	e.POST("/admin/logout/", a.handleLogout)

	// Admin routes
	g := e.Group("/admin", a.requireUser)
	g.GET("/", a.handleDashboard)
	g.GET("/stats/", a.handleStats)
	g.GET("/messages/", a.handleMessages)

	g.GET("/projects/new/", a.handleProjectNew)
	g.POST("/projects/", a.handleProjectCreate)
	g.POST("/projects/submit/", a.handleProjectSubmit)
	g.POST("/projects/cancel/", a.handleProjectCancel)
	g.GET("/projects/:id/", a.handleProjectEdit)
	g.POST("/projects/:id/", a.handleProjectUpdate)
	g.DELETE("/projects/:id/", a.handleProjectDelete)

	g.GET("/posts/new/", a.handlePostNew)
	g.POST("/posts/", a.handlePostCreate)
	g.POST("/posts/submit/", a.handlePostSubmit)
	g.POST("/posts/cancel/", a.handlePostCancel)
	g.GET("/posts/:id/", a.handlePostEdit)
	g.POST("/posts/:id/", a.handlePostUpdate)
	g.DELETE("/posts/:id/", a.handlePostDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Contact != nil {
		a.Contact.Close()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.contactLimiter != nil {
		a.contactLimiter.Close()
	}
	var err error
	if a.Gateway != nil {
		err = a.Gateway.Close()
	}
	_ = a.Logger.Sync()
	return err
}
