package database

import (
	"context"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/google/uuid"
)

// GoalRepositoryInterface defines the goal repository operations
// This interface enables better testability by allowing mock implementations
type GoalRepositoryInterface interface {
	Create(ctx context.Context, goal *models.Goal) error
	GetByID(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error)
	List(ctx context.Context, userID uuid.UUID, filter models.GoalFilter) ([]*models.Goal, error)
	Update(ctx context.Context, goal *models.Goal) error
	Delete(ctx context.Context, userID, goalID uuid.UUID) error
}

// ProgressHistoryRepositoryInterface defines the progress history operations
type ProgressHistoryRepositoryInterface interface {
	Append(ctx context.Context, entry *models.GoalProgressEntry) error
	ListByGoal(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error)
}

// Ensure concrete types implement the interfaces
var (
	_ GoalRepositoryInterface            = (*GoalRepository)(nil)
	_ ProgressHistoryRepositoryInterface = (*ProgressHistoryRepository)(nil)
	_ storage.ProfileStore               = (*ProfileRepository)(nil)
	_ storage.TxGoalStore                = (*Store)(nil)
)
