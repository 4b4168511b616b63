package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	// ErrGoalNotFound is returned when no goal matches (user_id, id)
	ErrGoalNotFound = fmt.Errorf("goal %w", storage.ErrNotFound)
	// ErrVersionConflict is returned when a compare-and-swap update lost a race
	ErrVersionConflict = fmt.Errorf("goal %w", storage.ErrConflict)
)

const uniqueViolation = "23505"

const goalColumns = `id, user_id, title, description, category, type,
	target_value, current_value, unit, start_date, target_date, completed_date,
	status, priority, frequency, reminder_enabled, reminder_time, reminder_days,
	progress, streak_current, streak_longest, milestones, tags, related_goals, metadata,
	last_activity_at, version, created_at, updated_at`

// priorityOrder sorts high before medium before low, unknown last
const priorityOrder = `CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END`

// GoalRepository handles goal database operations
type GoalRepository struct {
	db querier
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// goalJSON holds the JSONB-encoded columns of a goal row
type goalJSON struct {
	milestones   []byte
	relatedGoals []byte
	metadata     []byte
}

func encodeGoalJSON(goal *models.Goal) (goalJSON, error) {
	var (
		enc goalJSON
		err error
	)
	milestones := goal.Milestones
	if milestones == nil {
		milestones = []models.Milestone{}
	}
	if enc.milestones, err = json.Marshal(milestones); err != nil {
		return enc, fmt.Errorf("failed to marshal milestones: %w", err)
	}
	related := goal.RelatedGoals
	if related == nil {
		related = []uuid.UUID{}
	}
	if enc.relatedGoals, err = json.Marshal(related); err != nil {
		return enc, fmt.Errorf("failed to marshal related goals: %w", err)
	}
	metadata := goal.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	if enc.metadata, err = json.Marshal(metadata); err != nil {
		return enc, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return enc, nil
}

func (enc goalJSON) decodeInto(goal *models.Goal) error {
	if err := json.Unmarshal(enc.milestones, &goal.Milestones); err != nil {
		return fmt.Errorf("failed to unmarshal milestones: %w", err)
	}
	if err := json.Unmarshal(enc.relatedGoals, &goal.RelatedGoals); err != nil {
		return fmt.Errorf("failed to unmarshal related goals: %w", err)
	}
	if err := json.Unmarshal(enc.metadata, &goal.Metadata); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if goal.Milestones == nil {
		goal.Milestones = []models.Milestone{}
	}
	if goal.RelatedGoals == nil {
		goal.RelatedGoals = []uuid.UUID{}
	}
	if goal.Metadata == nil {
		goal.Metadata = map[string]any{}
	}
	return nil
}

func scanGoal(row rowScanner) (*models.Goal, error) {
	goal := &models.Goal{}
	var (
		enc           goalJSON
		targetValue   sql.NullFloat64
		unit          sql.NullString
		targetDate    sql.NullTime
		completedDate sql.NullTime
		frequency     sql.NullString
		reminderTime  sql.NullString
		reminderDays  pq.StringArray
		tags          pq.StringArray
		lastActivity  sql.NullTime
	)

	err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&goal.Description,
		&goal.Category,
		&goal.Type,
		&targetValue,
		&goal.CurrentValue,
		&unit,
		&goal.StartDate,
		&targetDate,
		&completedDate,
		&goal.Status,
		&goal.Priority,
		&frequency,
		&goal.ReminderEnabled,
		&reminderTime,
		&reminderDays,
		&goal.Progress,
		&goal.StreakCurrent,
		&goal.StreakLongest,
		&enc.milestones,
		&tags,
		&enc.relatedGoals,
		&enc.metadata,
		&lastActivity,
		&goal.Version,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if targetValue.Valid {
		goal.TargetValue = &targetValue.Float64
	}
	if unit.Valid {
		goal.Unit = &unit.String
	}
	if targetDate.Valid {
		goal.TargetDate = &targetDate.Time
	}
	if completedDate.Valid {
		goal.CompletedDate = &completedDate.Time
	}
	if frequency.Valid {
		f := models.GoalFrequency(frequency.String)
		goal.Frequency = &f
	}
	if reminderTime.Valid {
		goal.ReminderTime = &reminderTime.String
	}
	if lastActivity.Valid {
		goal.LastActivityAt = &lastActivity.Time
	}
	if reminderDays != nil {
		goal.ReminderDays = []string(reminderDays)
	}
	goal.Tags = []string(tags)
	if goal.Tags == nil {
		goal.Tags = []string{}
	}

	if err := enc.decodeInto(goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// goalValues returns the writable column values of a goal in goalColumns
// order, starting at target_value
func goalValues(goal *models.Goal, enc goalJSON) []any {
	var frequency *string
	if goal.Frequency != nil {
		f := string(*goal.Frequency)
		frequency = &f
	}
	var reminderDays any
	if goal.ReminderDays != nil {
		reminderDays = pq.Array(goal.ReminderDays)
	}
	tags := goal.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		goal.TargetValue,
		goal.CurrentValue,
		goal.Unit,
		goal.StartDate,
		goal.TargetDate,
		goal.CompletedDate,
		goal.Status,
		goal.Priority,
		frequency,
		goal.ReminderEnabled,
		goal.ReminderTime,
		reminderDays,
		goal.Progress,
		goal.StreakCurrent,
		goal.StreakLongest,
		string(enc.milestones),
		pq.Array(tags),
		string(enc.relatedGoals),
		string(enc.metadata),
		goal.LastActivityAt,
	}
}

// Create inserts a new goal and sets its version and timestamps
func (r *GoalRepository) Create(ctx context.Context, goal *models.Goal) error {
	enc, err := encodeGoalJSON(goal)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO goals (` + goalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, 1, $27, $27)
		RETURNING version, created_at, updated_at
	`
	args := append([]any{goal.ID, goal.UserID, goal.Title, goal.Description, goal.Category, goal.Type}, goalValues(goal, enc)...)
	args = append(args, time.Now())

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&goal.Version, &goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("failed to create goal: %w", ErrVersionConflict)
		}
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

// GetByID retrieves a goal owned by userID
func (r *GoalRepository) GetByID(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND user_id = $2`

	goal, err := scanGoal(r.db.QueryRowContext(ctx, query, goalID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return goal, nil
}

// escapeLike escapes LIKE wildcards so search terms match literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildListQuery builds the filtered, ordered listing query for a user
func buildListQuery(userID uuid.UUID, filter models.GoalFilter) (string, []any) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1`
	args := []any{userID}
	argIndex := 2

	if filter.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, string(*filter.Category))
		argIndex++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if filter.Priority != nil {
		query += fmt.Sprintf(" AND priority = $%d", argIndex)
		args = append(args, string(*filter.Priority))
		argIndex++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	query += " ORDER BY " + priorityOrder + " DESC, start_date DESC, created_at ASC"
	return query, args
}

// List returns the user's goals matching filter, high priority and most recent first
func (r *GoalRepository) List(ctx context.Context, userID uuid.UUID, filter models.GoalFilter) ([]*models.Goal, error) {
	query, args := buildListQuery(userID, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	goals := make([]*models.Goal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}

// Update replaces a goal if the stored version matches goal.Version.
// On success goal.Version and UpdatedAt reflect the new row.
func (r *GoalRepository) Update(ctx context.Context, goal *models.Goal) error {
	enc, err := encodeGoalJSON(goal)
	if err != nil {
		return err
	}

	query := `
		UPDATE goals SET
			title = $1, description = $2, category = $3, type = $4,
			target_value = $5, current_value = $6, unit = $7, start_date = $8,
			target_date = $9, completed_date = $10, status = $11, priority = $12,
			frequency = $13, reminder_enabled = $14, reminder_time = $15, reminder_days = $16,
			progress = $17, streak_current = $18, streak_longest = $19, milestones = $20,
			tags = $21, related_goals = $22, metadata = $23, last_activity_at = $24,
			version = version + 1, updated_at = $25
		WHERE id = $26 AND user_id = $27 AND version = $28
		RETURNING version, created_at, updated_at
	`
	args := append([]any{goal.Title, goal.Description, goal.Category, goal.Type}, goalValues(goal, enc)...)
	args = append(args, time.Now(), goal.ID, goal.UserID, goal.Version)

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&goal.Version, &goal.CreatedAt, &goal.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.missOrConflict(ctx, goal.UserID, goal.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return nil
}

// missOrConflict tells a missing goal apart from a stale version after an update matched no row
func (r *GoalRepository) missOrConflict(ctx context.Context, userID, goalID uuid.UUID) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM goals WHERE id = $1 AND user_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, goalID, userID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check goal existence: %w", err)
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrGoalNotFound
}

// Delete removes a goal owned by userID. History entries are kept.
func (r *GoalRepository) Delete(ctx context.Context, userID, goalID uuid.UUID) error {
	query := `DELETE FROM goals WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrGoalNotFound
	}
	return nil
}
