package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-goals/internal/app"
	"github.com/benvon/smart-goals/internal/config"
	"github.com/benvon/smart-goals/internal/logger"
	"github.com/benvon/smart-goals/internal/telemetry"
	"github.com/benvon/smart-goals/internal/workers"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	if !cfg.StreakJobsEnabled() {
		zapLogger.Fatal("rabbitmq_url_required_for_worker")
	}
	if cfg.StorageBackend == config.StorageBackendMemory {
		zapLogger.Fatal("worker_requires_shared_storage", zap.String("storage_backend", cfg.StorageBackend))
	}

	zapLogger.Info("starting_worker",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
		zap.Int("history_window", cfg.StreakHistoryWindow),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:        cfg.OTELEnabled,
		Endpoint:       cfg.OTELEndpoint,
		ServiceName:    telemetry.ServiceName + "-worker",
		ServiceVersion: version,
	})
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	backends, err := app.Open(ctx, cfg, logger.Component(zapLogger, "worker", "backends"))
	if err != nil {
		zapLogger.Fatal("failed_to_open_backends", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(); err != nil {
			zapLogger.Warn("failed_to_close_backends", zap.Error(err))
		}
	}()

	jobQueue, _, err := backends.OpenQueue(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}

	// the worker writes streaks only; it never publishes progress notifications
	engine := backends.Engine()
	worker := workers.NewStreakWorker(engine, jobQueue, cfg.StreakHistoryWindow, logger.Component(zapLogger, "worker", "streak"))

	if err := workers.Run(ctx, jobQueue, cfg.RabbitMQPrefetch, worker, zapLogger); err != nil {
		zapLogger.Error("worker_stopped", zap.Error(err))
		return
	}
	zapLogger.Info("worker_stopped")
}
