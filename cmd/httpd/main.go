package main

import (
	"context"
	"os"
	"time"

	"github.com/keywordlock/serp-tracker/internal/bootstrap"
	"github.com/keywordlock/serp-tracker/internal/logger"
)

const gaugeRefreshInterval = 15 * time.Second

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	app, err := bootstrap.NewAppComponents(cfg, log)
	if err != nil {
		log.Error("Failed to initialize service", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		if closeErr := app.DB.Close(); closeErr != nil {
			log.Error("Error closing database connection", logger.Error(closeErr))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Broker.Start(ctx); err != nil {
		log.Error("Failed to start SSE broker", logger.Error(err))
		os.Exit(1)
	}

	go app.Tracker.Run(ctx, cfg.Tasks.SweepInterval)
	go app.RetentionJob.Run(ctx)
	go app.RunGaugeRefresh(ctx, gaugeRefreshInterval)

	log.Info("Service starting",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
	)

	if err := app.Server.RunWithGracefulShutdown(ctx); err != nil {
		log.Error("Server error", logger.Error(err))
		cancel()
		_ = app.Broker.Stop()
		os.Exit(1)
	}

	cancel()
	if err := app.Broker.Stop(); err != nil {
		log.Warn("SSE broker stop", logger.Error(err))
	}

	log.Info("Service stopped gracefully")
}
