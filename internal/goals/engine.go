// Package goals implements the goal engine: goal lifecycle, delta-based
// progress tracking, milestones and template personalization.
//
// The engine never lets a persistence error reach its caller. Failures are
// logged and surfaced as an absent value (nil, an empty slice or false)
// together with one of the opaque sentinels below.
package goals

import (
	"context"
	"errors"
	"time"

	"github.com/benvon/smart-goals/internal/logger"
	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/benvon/smart-goals/internal/validation"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	// ErrNotFound means the goal or template does not exist for the caller
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means the request failed validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrPersistence means the store failed; details are only logged
	ErrPersistence = errors.New("persistence failure")
)

const (
	// DefaultHistoryLimit is the number of history entries returned when no limit is given
	DefaultHistoryLimit = 10
	// MaxHistoryLimit caps history queries
	MaxHistoryLimit = 1000
	// DefaultMaxRetries bounds optimistic concurrency retries
	DefaultMaxRetries = 5
)

// ProgressNotifier is told about tracked progress after it has been persisted
type ProgressNotifier interface {
	ProgressTracked(ctx context.Context, goal *models.Goal, entry *models.GoalProgressEntry) error
}

// Engine owns goal lifecycle operations
type Engine struct {
	store      storage.GoalStore
	profiles   storage.ProfileStore
	templates  storage.TemplateStore
	notifier   ProgressNotifier
	logger     *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time
	newID      func() uuid.UUID
	maxRetries uint64
	retryBase  time.Duration
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithNotifier sets the notifier invoked after progress is tracked
func WithNotifier(n ProgressNotifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides goal and history id generation
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithRetry sets how many times a read-modify-write is retried after a
// version conflict, and the initial backoff interval
func WithRetry(maxRetries uint64, base time.Duration) Option {
	return func(e *Engine) {
		e.maxRetries = maxRetries
		if base > 0 {
			e.retryBase = base
		}
	}
}

// New creates a goal engine
func New(store storage.GoalStore, profiles storage.ProfileStore, templates storage.TemplateStore, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		profiles:   profiles,
		templates:  templates,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer("github.com/benvon/smart-goals/internal/goals"),
		now:        time.Now,
		newID:      uuid.New,
		maxRetries: DefaultMaxRetries,
		retryBase:  10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetGoals returns the user's goals matching every supplied filter, ordered by
// priority then most recent start date. A store failure yields an empty slice.
func (e *Engine) GetGoals(ctx context.Context, userID uuid.UUID, filter models.GoalFilter) ([]*models.Goal, error) {
	ctx, span := e.startSpan(ctx, "goals.GetGoals", userID)
	defer span.End()

	goals, err := e.store.ListGoals(ctx, userID, filter)
	if err != nil {
		return []*models.Goal{}, e.fail(span, "failed_to_list_goals", err,
			zap.String("user_id", logger.SanitizeUserID(userID.String())),
			zap.String("search", logger.SanitizeString(filter.Search, 200)),
		)
	}
	goals = models.FilterGoals(goals, filter)
	models.SortGoals(goals)
	return goals, nil
}

// GetGoal returns a single goal owned by the user
func (e *Engine) GetGoal(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error) {
	ctx, span := e.startSpan(ctx, "goals.GetGoal", userID)
	defer span.End()

	goal, err := e.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, e.fail(span, "failed_to_get_goal", err, goalFields(userID, goalID)...)
	}
	return goal, nil
}

// CreateGoal validates input, fills defaults and derived fields, and persists a new goal
func (e *Engine) CreateGoal(ctx context.Context, userID uuid.UUID, in models.GoalInput) (*models.Goal, error) {
	ctx, span := e.startSpan(ctx, "goals.CreateGoal", userID)
	defer span.End()

	if err := validation.ValidateGoalInput(&in); err != nil {
		e.logger.Debug("goal_input_rejected",
			zap.String("user_id", logger.SanitizeUserID(userID.String())),
			zap.String("reason", logger.SanitizeError(err)),
		)
		return nil, ErrInvalidInput
	}

	goal := e.newGoal(userID, in)
	if err := e.store.CreateGoal(ctx, goal); err != nil {
		return nil, e.fail(span, "failed_to_create_goal", err, goalFields(userID, goal.ID)...)
	}

	e.logger.Info("goal_created", goalFields(userID, goal.ID)...)
	return goal, nil
}

func (e *Engine) newGoal(userID uuid.UUID, in models.GoalInput) *models.Goal {
	now := e.now()

	current := 0.0
	if in.CurrentValue != nil {
		current = *in.CurrentValue
	}
	progress, _ := ComputeProgress(current, in.TargetValue)

	start := now
	if in.StartDate != nil {
		start = *in.StartDate
	}
	status := in.Status
	if status == "" {
		status = models.GoalStatusNotStarted
	}
	priority := in.Priority
	if priority == "" {
		priority = models.GoalPriorityMedium
	}

	goal := &models.Goal{
		ID:              e.newID(),
		UserID:          userID,
		Title:           validation.SanitizeText(in.Title),
		Description:     validation.SanitizeText(in.Description),
		Category:        in.Category,
		Type:            in.Type,
		TargetValue:     in.TargetValue,
		CurrentValue:    current,
		Unit:            in.Unit,
		StartDate:       start,
		TargetDate:      in.TargetDate,
		Status:          status,
		Priority:        priority,
		Frequency:       in.Frequency,
		ReminderEnabled: in.ReminderEnabled,
		ReminderTime:    in.ReminderTime,
		ReminderDays:    in.ReminderDays,
		Progress:        progress,
		StreakCurrent:   0,
		StreakLongest:   0,
		Milestones:      e.withMilestoneIDs(in.Milestones),
		Tags:            models.NormalizeTags(in.Tags),
		RelatedGoals:    in.RelatedGoals,
		Metadata:        in.Metadata,
	}
	if goal.RelatedGoals == nil {
		goal.RelatedGoals = []uuid.UUID{}
	}
	if goal.Metadata == nil {
		goal.Metadata = map[string]any{}
	}
	if goal.Status == models.GoalStatusCompleted {
		t := now
		goal.CompletedDate = &t
	}
	return goal
}

// withMilestoneIDs returns a copy of milestones where every entry has an id
func (e *Engine) withMilestoneIDs(milestones []models.Milestone) []models.Milestone {
	out := make([]models.Milestone, len(milestones))
	for i, m := range milestones {
		if m.ID == "" {
			m.ID = e.newID().String()
		}
		out[i] = m
	}
	return out
}

// UpdateGoal applies a partial patch to a goal. Absent fields are left untouched.
func (e *Engine) UpdateGoal(ctx context.Context, userID, goalID uuid.UUID, u models.GoalUpdate) (*models.Goal, error) {
	ctx, span := e.startSpan(ctx, "goals.UpdateGoal", userID)
	defer span.End()

	if err := validation.ValidateGoalUpdate(&u); err != nil {
		e.logger.Debug("goal_update_rejected",
			append(goalFields(userID, goalID), zap.String("reason", logger.SanitizeError(err)))...,
		)
		return nil, ErrInvalidInput
	}
	if u.Title != nil {
		title := validation.SanitizeText(*u.Title)
		u.Title = &title
	}
	if u.Description != nil {
		desc := validation.SanitizeText(*u.Description)
		u.Description = &desc
	}
	if u.Milestones != nil {
		ms := e.withMilestoneIDs(*u.Milestones)
		u.Milestones = &ms
	}

	goal, err := e.modify(ctx, userID, goalID, func(g *models.Goal) error {
		applyUpdate(g, &u, e.now())
		return nil
	})
	if err != nil {
		return nil, e.fail(span, "failed_to_update_goal", err, goalFields(userID, goalID)...)
	}
	return goal, nil
}

// DeleteGoal removes exactly one goal. Deleting a missing goal reports false.
func (e *Engine) DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) (bool, error) {
	ctx, span := e.startSpan(ctx, "goals.DeleteGoal", userID)
	defer span.End()

	if err := e.store.DeleteGoal(ctx, userID, goalID); err != nil {
		return false, e.fail(span, "failed_to_delete_goal", err, goalFields(userID, goalID)...)
	}
	e.logger.Info("goal_deleted", goalFields(userID, goalID)...)
	return true, nil
}

// modify runs a read-modify-write against the store, retrying on version conflicts
func (e *Engine) modify(ctx context.Context, userID, goalID uuid.UUID, mutate func(*models.Goal) error) (*models.Goal, error) {
	var updated *models.Goal
	err := e.retry(ctx, func() error {
		current, err := e.store.GetGoal(ctx, userID, goalID)
		if err != nil {
			return err
		}
		next := current.Clone()
		if err := mutate(next); err != nil {
			return err
		}
		if err := e.store.UpdateGoal(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	return updated, err
}

// retry retries op with exponential backoff while it fails with storage.ErrConflict
func (e *Engine) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retryBase
	b.MaxInterval = 20 * e.retryBase
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, e.maxRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, storage.ErrConflict) {
			if err != nil {
				e.logger.Debug("goal_version_conflict_retrying")
			}
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

// fail logs err and converts it to one of the engine sentinels
func (e *Engine) fail(span trace.Span, event string, err error, fields ...zap.Field) error {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, ErrNotFound):
		e.logger.Debug(event, append(fields, zap.String("reason", "not_found"))...)
		return ErrNotFound
	case errors.Is(err, ErrInvalidInput):
		e.logger.Debug(event, append(fields, zap.String("reason", "invalid_input"))...)
		return ErrInvalidInput
	default:
		span.RecordError(err)
		e.logger.Error(event, append(fields, zap.String("error", logger.SanitizeError(err)))...)
		return ErrPersistence
	}
}

func (e *Engine) startSpan(ctx context.Context, name string, userID uuid.UUID) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("user.id", userID.String())))
}

func goalFields(userID, goalID uuid.UUID) []zap.Field {
	return []zap.Field{
		zap.String("user_id", logger.SanitizeUserID(userID.String())),
		zap.String("goal_id", goalID.String()),
	}
}
