package models

import (
	"time"

	"github.com/google/uuid"
)

// GoalProgressEntry is an immutable audit record of one progress delta.
// Entries are append-only.
type GoalProgressEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	GoalID    uuid.UUID `json:"goal_id"`
	Value     float64   `json:"value"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
