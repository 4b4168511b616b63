package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when the user has no profile row
var ErrProfileNotFound = fmt.Errorf("profile %w", storage.ErrNotFound)

// ProfileRepository reads user profiles
type ProfileRepository struct {
	db querier
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile retrieves a user's profile preferences
func (r *ProfileRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var preferencesJSON []byte
	query := `SELECT preferences FROM profiles WHERE user_id = $1`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(&preferencesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile := &models.Profile{UserID: userID}
	if err := json.Unmarshal(preferencesJSON, &profile.Preferences); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return profile, nil
}

// Upsert stores a user's profile preferences
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	preferencesJSON, err := json.Marshal(profile.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	query := `
		INSERT INTO profiles (user_id, preferences, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET preferences = EXCLUDED.preferences, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, profile.UserID, string(preferencesJSON)); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
