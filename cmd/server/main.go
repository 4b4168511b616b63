package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-goals/internal/app"
	"github.com/benvon/smart-goals/internal/config"
	"github.com/benvon/smart-goals/internal/goals"
	"github.com/benvon/smart-goals/internal/handlers"
	"github.com/benvon/smart-goals/internal/logger"
	"github.com/benvon/smart-goals/internal/middleware"
	"github.com/benvon/smart-goals/internal/queue"
	"github.com/benvon/smart-goals/internal/telemetry"
	"github.com/benvon/smart-goals/internal/workers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// set with -ldflags "-X main.version=..."
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:        cfg.OTELEnabled,
		Endpoint:       cfg.OTELEndpoint,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	backends, err := app.Open(ctx, cfg, logger.Component(zapLogger, "server", "backends"))
	if err != nil {
		zapLogger.Fatal("failed_to_open_backends", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(); err != nil {
			zapLogger.Warn("failed_to_close_backends", zap.Error(err))
		}
	}()

	jobQueue, sharedQueue, err := backends.OpenQueue(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}

	engine := backends.Engine(goals.WithNotifier(queue.NewStreakScheduler(jobQueue, cfg.StreakDebounce)))

	// without a broker nobody else can drain the queue
	if !sharedQueue {
		worker := workers.NewStreakWorker(engine, jobQueue, cfg.StreakHistoryWindow, logger.Component(zapLogger, "server", "streak_worker"))
		go func() {
			if err := workers.Run(ctx, jobQueue, cfg.RabbitMQPrefetch, worker, zapLogger); err != nil {
				zapLogger.Error("in_process_worker_stopped", zap.Error(err))
			}
		}()
	}

	healthChecker := handlers.NewHealthChecker(zapLogger)
	for name, check := range backends.Checks() {
		healthChecker.AddCheck(name, handlers.CheckFunc(check))
	}

	var limiterClient redis.UniversalClient
	if backends.Redis != nil {
		limiterClient = backends.Redis
	}
	rateLimit, err := middleware.RateLimit(limiterClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	router, err := handlers.NewRouter(handlers.RouterConfig{
		Engine:         engine,
		Health:         healthChecker,
		Version:        handlers.VersionInfo{Version: version, Commit: commit, BuildTime: buildTime},
		Logger:         logger.Component(zapLogger, "server", "http"),
		AllowedOrigins: middleware.ParseOrigins(cfg.FrontendURL),
		UserIDHeader:   cfg.UserIDHeader,
		EnableHSTS:     cfg.EnableHSTS,
		RateLimit:      rateLimit,
		RequestTimeout: cfg.RequestTimeout,
		Tracing:        cfg.OTELEnabled,
		ServiceName:    telemetry.ServiceName,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_build_router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		zapLogger.Info("server_shutting_down")
	case err := <-serverErr:
		zapLogger.Error("server_failed", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}
	zapLogger.Info("server_exited")
}
