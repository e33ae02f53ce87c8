package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/folio"
)

// version is set at build time via ldflags.
var version = "dev"

const shutdownTimeout = 10 * time.Second

var (
	configPath string
	addr       string
	envFile    string
	dev        bool
)

var rootCmd = &cobra.Command{
	Use:           "folio",
	Short:         "folio - a portfolio site engine built with Go, Echo, and templ",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the portfolio HTTP server",
	Long: `Starts the public site, the admin dashboard and the JSON API.

Settings come from the environment (a .env file is loaded when present).
Values in the --config YAML file override the environment, and --addr
overrides both.

Example:
  folio serve --config folio.yaml --addr :8080`,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the folio version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "folio %s\n", version)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load if present")
	serveCmd.Flags().BoolVar(&dev, "dev", false, "development logging")

	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (folio.SiteConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return folio.SiteConfig{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg := folio.ConfigFromEnv()
	if configPath != "" {
		if err := folio.LoadConfigFile(configPath, &cfg); err != nil {
			return folio.SiteConfig{}, err
		}
	}
	if addr != "" {
		cfg.Addr = addr
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := folio.NewLogger(cfg.LogLevel, dev)
	if err != nil {
		return err
	}

	app := folio.New(cfg, folio.ViewFuncs{}, folio.WithLogger(logger))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	select {
	case err := <-errCh:
		_ = app.Close()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
		return err
	}
	return nil
}
