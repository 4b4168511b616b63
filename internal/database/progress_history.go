package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/google/uuid"
)

// ProgressHistoryRepository handles the append-only goal progress log
type ProgressHistoryRepository struct {
	db querier
}

// NewProgressHistoryRepository creates a new progress history repository
func NewProgressHistoryRepository(db *DB) *ProgressHistoryRepository {
	return &ProgressHistoryRepository{db: db}
}

// Append inserts one history entry
func (r *ProgressHistoryRepository) Append(ctx context.Context, entry *models.GoalProgressEntry) error {
	query := `
		INSERT INTO goal_progress_history (id, user_id, goal_id, value, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.GoalID,
		entry.Value,
		entry.Note,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append progress history: %w", err)
	}
	return nil
}

// ListByGoal returns up to limit entries for a goal, newest first. Entries
// written in the same instant are ordered by insertion.
func (r *ProgressHistoryRepository) ListByGoal(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error) {
	query := `
		SELECT id, user_id, goal_id, value, note, created_at
		FROM goal_progress_history
		WHERE user_id = $1 AND goal_id = $2
		ORDER BY created_at DESC, seq DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, goalID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*models.GoalProgressEntry, 0, limit)
	for rows.Next() {
		entry := &models.GoalProgressEntry{}
		var note sql.NullString
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.GoalID, &entry.Value, &note, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress history: %w", err)
		}
		if note.Valid {
			entry.Note = &note.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate progress history: %w", err)
	}
	return entries, nil
}
