package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tietkiem/internal/advisor"
	"tietkiem/internal/backend"
	"tietkiem/internal/cli"
	apphttp "tietkiem/internal/http"
	applog "tietkiem/internal/log"
	"tietkiem/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	gw := cli.InitDatabase(logger, cfg.DatabasePath)
	defer gw.Close()

	// Events are optional; without a broker the worker catches up from pending rows.
	events, closeEvents, err := backend.NewFactory(cfg, logger).Publisher()
	if err != nil {
		logger.Error("Failed to initialize event publisher", applog.FieldError, err)
		os.Exit(1)
	}
	defer closeEvents()

	adv, err := advisor.New(ctx, advisor.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.AdvisorTimeout,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize advisor", applog.FieldError, err)
		os.Exit(1)
	}

	accounts := services.NewAccountService(gw)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Users:        services.NewUserService(gw),
		Categories:   services.NewCategoryService(gw),
		Savings:      services.NewSavingsService(gw),
		Accounts:     accounts,
		Transactions: services.NewTransactionService(gw, accounts, events),
		Analysis:     services.NewAnalysisService(gw),
		Advisor:      adv,
	}, apphttp.Options{
		Logger:              logger,
		Ready:               gw,
		RateLimitPerMinute:  cfg.RateLimitPerMinute,
		FinancialDataMonths: cfg.FinancialDataMonths,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	}()

	logger.Info("Starting tietkiem server", "port", cfg.Port, "advisor", adv.Enabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
