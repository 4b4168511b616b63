// Package cache provides the Redis goal cache and the cache-aside store tier
// that serves goal reads from it when the primary store is unavailable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a goal is not cached
var ErrCacheMiss = errors.New("cache miss")

// DefaultTTL is how long a user's cached goals live after the last write
const DefaultTTL = 24 * time.Hour

// GoalCache stores goal snapshots keyed by owner
type GoalCache interface {
	Get(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Goal, error)
	Put(ctx context.Context, goals ...*models.Goal) error
	Delete(ctx context.Context, userID, goalID uuid.UUID) error
}

// RedisGoalCache keeps one Redis hash per user, goal id to goal JSON
type RedisGoalCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ GoalCache = (*RedisGoalCache)(nil)

// NewRedisClient parses a redis:// URL and verifies the connection
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisGoalCache creates a goal cache. A non-positive ttl uses DefaultTTL.
func NewRedisGoalCache(client redis.UniversalClient, ttl time.Duration) *RedisGoalCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGoalCache{client: client, ttl: ttl}
}

func userKey(userID uuid.UUID) string {
	return "goals:" + userID.String()
}

// Get returns a cached goal or ErrCacheMiss
func (c *RedisGoalCache) Get(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error) {
	data, err := c.client.HGet(ctx, userKey(userID), goalID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached goal: %w", err)
	}

	goal := &models.Goal{}
	if err := json.Unmarshal(data, goal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached goal: %w", err)
	}
	return goal, nil
}

// List returns every cached goal of the user in no particular order
func (c *RedisGoalCache) List(ctx context.Context, userID uuid.UUID) ([]*models.Goal, error) {
	entries, err := c.client.HGetAll(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached goals: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrCacheMiss
	}

	goals := make([]*models.Goal, 0, len(entries))
	for _, data := range entries {
		goal := &models.Goal{}
		if err := json.Unmarshal([]byte(data), goal); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, nil
}

// Put writes goals and refreshes the TTL of every touched user hash
func (c *RedisGoalCache) Put(ctx context.Context, goals ...*models.Goal) error {
	if len(goals) == 0 {
		return nil
	}

	byUser := make(map[string][]any)
	for _, g := range goals {
		data, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("failed to marshal goal: %w", err)
		}
		key := userKey(g.UserID)
		byUser[key] = append(byUser[key], g.ID.String(), data)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, fields := range byUser {
			pipe.HSet(ctx, key, fields...)
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache goals: %w", err)
	}
	return nil
}

// Delete evicts one goal
func (c *RedisGoalCache) Delete(ctx context.Context, userID, goalID uuid.UUID) error {
	if err := c.client.HDel(ctx, userKey(userID), goalID.String()).Err(); err != nil {
		return fmt.Errorf("failed to evict cached goal: %w", err)
	}
	return nil
}
