package database

import (
	"context"
	"database/sql"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/google/uuid"
)

// Store adapts the goal and history repositories to storage.TxGoalStore
type Store struct {
	db      *DB
	goals   *GoalRepository
	history *ProgressHistoryRepository
}

// NewStore creates a Postgres-backed goal store
func NewStore(db *DB) *Store {
	return &Store{
		db:      db,
		goals:   NewGoalRepository(db),
		history: NewProgressHistoryRepository(db),
	}
}

func (s *Store) ListGoals(ctx context.Context, userID uuid.UUID, filter models.GoalFilter) ([]*models.Goal, error) {
	return s.goals.List(ctx, userID, filter)
}

func (s *Store) GetGoal(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error) {
	return s.goals.GetByID(ctx, userID, goalID)
}

func (s *Store) CreateGoal(ctx context.Context, goal *models.Goal) error {
	return s.goals.Create(ctx, goal)
}

func (s *Store) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	return s.goals.Update(ctx, goal)
}

func (s *Store) DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) error {
	return s.goals.Delete(ctx, userID, goalID)
}

func (s *Store) AppendProgress(ctx context.Context, entry *models.GoalProgressEntry) error {
	return s.history.Append(ctx, entry)
}

func (s *Store) ListProgress(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error) {
	return s.history.ListByGoal(ctx, userID, goalID, limit)
}

// InTx runs fn against repositories bound to a single transaction
func (s *Store) InTx(ctx context.Context, fn func(storage.GoalStore) error) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		return fn(&Store{
			db:      s.db,
			goals:   &GoalRepository{db: tx},
			history: &ProgressHistoryRepository{db: tx},
		})
	})
}
