// Package app opens the storage, cache and queue backends selected by
// configuration and assembles the goal engine shared by every binary.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-goals/internal/cache"
	"github.com/benvon/smart-goals/internal/catalog"
	"github.com/benvon/smart-goals/internal/config"
	"github.com/benvon/smart-goals/internal/database"
	"github.com/benvon/smart-goals/internal/goals"
	"github.com/benvon/smart-goals/internal/queue"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/benvon/smart-goals/internal/storage/memstore"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rabbitMQConnectTimeout = 2 * time.Minute

// CheckFunc reports whether one backend is reachable
type CheckFunc func(ctx context.Context) error

// Backends holds the opened stores and connections
type Backends struct {
	DB        *database.DB
	Goals     storage.GoalStore
	Profiles  storage.ProfileStore
	Templates *catalog.Catalog
	Redis     *redis.Client
	Queue     queue.JobQueue

	checks  map[string]CheckFunc
	closers []func() error
	logger  *zap.Logger
}

// Open connects the storage backend, the optional Redis cache tier and loads
// the template catalog. The queue is opened separately with OpenQueue.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backends, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backends{checks: make(map[string]CheckFunc), logger: log}

	templates, err := catalog.Load(cfg.TemplateCatalogPath)
	if err != nil {
		return nil, err
	}
	b.Templates = templates
	log.Info("template_catalog_loaded", zap.Int("templates", templates.Len()))

	switch cfg.StorageBackend {
	case config.StorageBackendMemory:
		mem := memstore.New()
		b.Goals, b.Profiles = mem, mem
		log.Warn("using_in_memory_storage")
	default:
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.DB = db
		b.onClose(db.Close)
		b.checks["database"] = db.PingContext
		log.Info("connected_to_database")

		if cfg.AutoMigrate {
			if err := database.Migrate(db.DB); err != nil {
				_ = b.Close()
				return nil, err
			}
			log.Info("database_migrated")
		}
		b.Goals = database.NewStore(db)
		b.Profiles = database.NewProfileRepository(db)
	}

	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Redis = client
		b.onClose(client.Close)
		b.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		b.Goals = cache.NewTieredStore(b.Goals, cache.NewRedisGoalCache(client, cfg.GoalCacheTTL), log.Named("cache"))
		log.Info("connected_to_redis", zap.Duration("goal_cache_ttl", cfg.GoalCacheTTL))
	}

	return b, nil
}

// OpenQueue connects to RabbitMQ when configured, otherwise it returns an
// in-process memory queue. The boolean reports whether the queue is shared
// with other processes.
func (b *Backends) OpenQueue(ctx context.Context, cfg *config.Config) (queue.JobQueue, bool, error) {
	if !cfg.StreakJobsEnabled() {
		q := queue.NewMemoryQueue()
		b.setQueue(q)
		b.logger.Warn("rabbitmq_not_configured_using_in_process_queue")
		return q, false, nil
	}
	q, err := queue.NewRabbitMQQueue(ctx, cfg.RabbitMQURL, rabbitMQConnectTimeout, b.logger.Named("queue"))
	if err != nil {
		return nil, false, err
	}
	b.setQueue(q)
	b.logger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))
	return q, true, nil
}

func (b *Backends) setQueue(q queue.JobQueue) {
	b.Queue = q
	b.onClose(q.Close)
	b.checks["queue"] = q.HealthCheck
}

// Engine builds a goal engine over the opened stores
func (b *Backends) Engine(opts ...goals.Option) *goals.Engine {
	opts = append([]goals.Option{goals.WithLogger(b.logger.Named("goals"))}, opts...)
	return goals.New(b.Goals, b.Profiles, b.Templates, opts...)
}

// Checks returns the health checks of every opened backend by name
func (b *Backends) Checks() map[string]CheckFunc {
	out := make(map[string]CheckFunc, len(b.checks))
	for name, fn := range b.checks {
		out[name] = fn
	}
	return out
}

func (b *Backends) onClose(fn func() error) {
	b.closers = append(b.closers, fn)
}

// Close releases everything Open and OpenQueue acquired, newest first
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("failed to close backends: %w", errors.Join(errs...))
	}
	return nil
}
