package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tietkiem/internal/backend"
	"tietkiem/internal/cli"
	applog "tietkiem/internal/log"
	"tietkiem/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	logger.Info("Starting tietkiem-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	gw := cli.InitDatabase(logger, cfg.DatabasePath)
	defer gw.Close()

	factory := backend.NewFactory(cfg, logger)
	mirror, err := factory.Mirror(ctx)
	if err != nil {
		logger.Error("Failed to initialize mirror", applog.FieldError, err)
		os.Exit(1)
	}

	mw := worker.NewMirrorWorker(gw, mirror, cfg.SyncBatchSize)

	logger.Info("Performing startup sync check...")
	if err := mw.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	broker, closeBroker, err := factory.Broker()
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer closeBroker()

	if broker != nil {
		g.Go(func() error {
			err := broker.ConsumeTransactionEvents(gctx, mw.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Relying on periodic sync only")
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := mw.ProcessPending(gctx)
				if err != nil {
					logger.Error("Periodic sync failed", applog.FieldError, err)
					continue
				}
				if n > 0 {
					logger.Info("Periodic sync mirrored transactions", "count", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
