// Package cli holds the startup steps shared by the tietkiem binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tietkiem/internal/config"
	applog "tietkiem/internal/log"
	"tietkiem/internal/storage"
)

// LoadEnvFile loads .env for local development; a missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from config and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig exits the process when the configuration is invalid.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		// the configured logger needs a valid config, so fall back to the default
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitDatabase opens the gateway or exits the process.
func InitDatabase(logger *applog.Logger, path string) *storage.Gateway {
	gw, err := storage.Open(path)
	if err != nil {
		logger.Error("Failed to open database", applog.FieldError, err, "path", path)
		os.Exit(1)
	}
	return gw
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}
