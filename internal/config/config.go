package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	DatabaseURL    string
	StorageBackend string
	AutoMigrate    bool

	ServerPort     string
	FrontendURL    string
	EnableHSTS     bool
	UserIDHeader   string
	RateLimit      string
	RequestTimeout time.Duration

	RedisURL     string
	GoalCacheTTL time.Duration

	RabbitMQURL         string
	RabbitMQPrefetch    int
	StreakDebounce      time.Duration
	StreakHistoryWindow int

	TemplateCatalogPath string

	WorkerDebugMode bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		StorageBackend: getEnv("STORAGE_BACKEND", StorageBackendPostgres),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", false),

		ServerPort:     getEnv("SERVER_PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:     getEnvBool("ENABLE_HSTS", false),
		UserIDHeader:   getEnv("USER_ID_HEADER", "X-User-ID"),
		RateLimit:      getEnv("RATE_LIMIT", "20-S"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		RedisURL:     getEnv("REDIS_URL", ""),
		GoalCacheTTL: getEnvDuration("GOAL_CACHE_TTL", 24*time.Hour),

		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:    getEnvInt("RABBITMQ_PREFETCH", 1),
		StreakDebounce:      getEnvDuration("STREAK_DEBOUNCE", 30*time.Second),
		StreakHistoryWindow: getEnvInt("STREAK_HISTORY_WINDOW", 400),

		TemplateCatalogPath: getEnv("TEMPLATE_CATALOG_PATH", ""),

		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	switch cfg.StorageBackend {
	case StorageBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case StorageBackendMemory:
	default:
		return nil, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageBackendPostgres, StorageBackendMemory, cfg.StorageBackend)
	}

	if cfg.RabbitMQPrefetch < 1 {
		cfg.RabbitMQPrefetch = 1
	}
	if cfg.StreakHistoryWindow < 1 {
		return nil, fmt.Errorf("STREAK_HISTORY_WINDOW must be positive")
	}

	return cfg, nil
}

// StreakJobsEnabled reports whether progress tracking publishes streak jobs
func (c *Config) StreakJobsEnabled() bool {
	return c.RabbitMQURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
