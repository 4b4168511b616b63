// Package storage defines the persistence contracts the goal engine consumes.
//
// Implementations live in internal/database (Postgres), internal/cache
// (Redis-backed cache-aside tier) and internal/storage/memstore (in-memory).
package storage

import (
	"context"
	"errors"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record does not exist for the given owner
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an update lost an optimistic concurrency race
	ErrConflict = errors.New("record version conflict")
)

// GoalStore persists goals and their progress history. Every method is scoped
// by owner; a goal that belongs to another user is reported as ErrNotFound.
type GoalStore interface {
	// ListGoals returns the owner's goals matching filter, ordered by priority
	// (high first) then start date (most recent first)
	ListGoals(ctx context.Context, userID uuid.UUID, filter models.GoalFilter) ([]*models.Goal, error)
	GetGoal(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error)
	// CreateGoal stores a new goal and sets Version, CreatedAt and UpdatedAt
	CreateGoal(ctx context.Context, goal *models.Goal) error
	// UpdateGoal replaces a goal if its stored version equals goal.Version.
	// On success goal.Version is incremented and UpdatedAt refreshed.
	UpdateGoal(ctx context.Context, goal *models.Goal) error
	DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) error

	AppendProgress(ctx context.Context, entry *models.GoalProgressEntry) error
	// ListProgress returns up to limit entries for the goal, newest first
	ListProgress(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error)
}

// TxGoalStore is a GoalStore that can run several writes atomically
type TxGoalStore interface {
	GoalStore
	// InTx runs fn against a transactional view of the store. The transaction
	// commits if fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(GoalStore) error) error
}

// ProfileStore reads user profiles
type ProfileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// TemplateStore reads the goal template catalog
type TemplateStore interface {
	Templates(ctx context.Context) ([]*models.GoalTemplate, error)
	Template(ctx context.Context, id string) (*models.GoalTemplate, error)
}
