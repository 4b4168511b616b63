package cache

import (
	"context"
	"errors"

	"github.com/benvon/smart-goals/internal/logger"
	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TieredStore is a cache-aside goal store. Reads and writes go to the primary
// store and refresh the cache on success; when a primary read fails the goal
// is served from the cache instead. Cache failures are logged and never fail
// an operation. Progress history is not cached.
type TieredStore struct {
	primary storage.GoalStore
	cache   GoalCache
	logger  *zap.Logger
}

// TxTieredStore is a TieredStore over a transactional primary
type TxTieredStore struct {
	*TieredStore
	tx storage.TxGoalStore
}

var (
	_ storage.GoalStore   = (*TieredStore)(nil)
	_ storage.TxGoalStore = (*TxTieredStore)(nil)
)

// NewTieredStore wraps primary with cache. The result supports transactions
// when primary does.
func NewTieredStore(primary storage.GoalStore, cache GoalCache, log *zap.Logger) storage.GoalStore {
	if log == nil {
		log = zap.NewNop()
	}
	t := &TieredStore{primary: primary, cache: cache, logger: log}
	if tx, ok := primary.(storage.TxGoalStore); ok {
		return &TxTieredStore{TieredStore: t, tx: tx}
	}
	return t
}

func (s *TieredStore) ListGoals(ctx context.Context, userID uuid.UUID, filter models.GoalFilter) ([]*models.Goal, error) {
	goals, err := s.primary.ListGoals(ctx, userID, filter)
	if err == nil {
		s.refresh(ctx, goals...)
		return goals, nil
	}

	cached, cacheErr := s.cache.List(ctx, userID)
	if cacheErr != nil {
		s.cacheFailed("goal_cache_list_fallback_failed", cacheErr, userID)
		return nil, err
	}
	s.logger.Warn("serving_goals_from_cache",
		zap.String("user_id", logger.SanitizeUserID(userID.String())),
		zap.String("primary_error", logger.SanitizeError(err)),
	)
	goals = models.FilterGoals(cached, filter)
	models.SortGoals(goals)
	return goals, nil
}

func (s *TieredStore) GetGoal(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error) {
	goal, err := s.primary.GetGoal(ctx, userID, goalID)
	switch {
	case err == nil:
		s.refresh(ctx, goal)
		return goal, nil
	case errors.Is(err, storage.ErrNotFound):
		s.evict(ctx, userID, goalID)
		return nil, err
	}

	cached, cacheErr := s.cache.Get(ctx, userID, goalID)
	if cacheErr != nil {
		s.cacheFailed("goal_cache_get_fallback_failed", cacheErr, userID)
		return nil, err
	}
	s.logger.Warn("serving_goal_from_cache",
		zap.String("user_id", logger.SanitizeUserID(userID.String())),
		zap.String("goal_id", goalID.String()),
		zap.String("primary_error", logger.SanitizeError(err)),
	)
	return cached, nil
}

func (s *TieredStore) CreateGoal(ctx context.Context, goal *models.Goal) error {
	if err := s.primary.CreateGoal(ctx, goal); err != nil {
		return err
	}
	s.refresh(ctx, goal)
	return nil
}

func (s *TieredStore) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	if err := s.primary.UpdateGoal(ctx, goal); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.evict(ctx, goal.UserID, goal.ID)
		}
		return err
	}
	s.refresh(ctx, goal)
	return nil
}

func (s *TieredStore) DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) error {
	err := s.primary.DeleteGoal(ctx, userID, goalID)
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		s.evict(ctx, userID, goalID)
	}
	return err
}

func (s *TieredStore) AppendProgress(ctx context.Context, entry *models.GoalProgressEntry) error {
	return s.primary.AppendProgress(ctx, entry)
}

func (s *TieredStore) ListProgress(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error) {
	return s.primary.ListProgress(ctx, userID, goalID, limit)
}

// InTx runs fn in a primary transaction and replays the committed goal
// writes into the cache
func (s *TxTieredStore) InTx(ctx context.Context, fn func(storage.GoalStore) error) error {
	var rec *recorder
	err := s.tx.InTx(ctx, func(tx storage.GoalStore) error {
		rec = &recorder{GoalStore: tx}
		return fn(rec)
	})
	if err != nil || rec == nil {
		return err
	}

	for _, d := range rec.deleted {
		s.evict(ctx, d.userID, d.goalID)
	}
	s.refresh(ctx, rec.written...)
	return nil
}

func (s *TieredStore) refresh(ctx context.Context, goals ...*models.Goal) {
	if len(goals) == 0 {
		return
	}
	if err := s.cache.Put(ctx, goals...); err != nil {
		s.cacheFailed("goal_cache_refresh_failed", err, goals[0].UserID)
	}
}

func (s *TieredStore) evict(ctx context.Context, userID, goalID uuid.UUID) {
	if err := s.cache.Delete(ctx, userID, goalID); err != nil {
		s.cacheFailed("goal_cache_evict_failed", err, userID)
	}
}

func (s *TieredStore) cacheFailed(event string, err error, userID uuid.UUID) {
	if errors.Is(err, ErrCacheMiss) {
		return
	}
	s.logger.Warn(event,
		zap.String("user_id", logger.SanitizeUserID(userID.String())),
		zap.String("error", logger.SanitizeError(err)),
	)
}

type deletion struct {
	userID uuid.UUID
	goalID uuid.UUID
}

// recorder remembers the goal writes made inside a transaction
type recorder struct {
	storage.GoalStore
	written []*models.Goal
	deleted []deletion
}

func (r *recorder) CreateGoal(ctx context.Context, goal *models.Goal) error {
	if err := r.GoalStore.CreateGoal(ctx, goal); err != nil {
		return err
	}
	r.written = append(r.written, goal.Clone())
	return nil
}

func (r *recorder) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	if err := r.GoalStore.UpdateGoal(ctx, goal); err != nil {
		return err
	}
	r.written = append(r.written, goal.Clone())
	return nil
}

func (r *recorder) DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) error {
	if err := r.GoalStore.DeleteGoal(ctx, userID, goalID); err != nil {
		return err
	}
	r.deleted = append(r.deleted, deletion{userID: userID, goalID: goalID})
	return nil
}
