package goals

import (
	"context"

	"github.com/benvon/smart-goals/internal/logger"
	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/benvon/smart-goals/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrackGoalProgress records value as a delta on the goal's current value,
// re-derives progress, and appends one history entry.
//
// When the store supports transactions the history append and the goal update
// commit together. Otherwise the append happens first and both writes are
// logged with a shared correlation id so drift can be reconciled by hand.
func (e *Engine) TrackGoalProgress(ctx context.Context, userID, goalID uuid.UUID, value float64, note *string) (*models.Goal, error) {
	ctx, span := e.startSpan(ctx, "goals.TrackGoalProgress", userID)
	defer span.End()

	if err := validation.ValidateFinite(value); err != nil {
		e.logger.Debug("goal_progress_rejected", append(goalFields(userID, goalID), zap.String("reason", err.Error()))...)
		return nil, ErrInvalidInput
	}

	correlationID := uuid.New()
	fields := append(goalFields(userID, goalID),
		zap.String("correlation_id", correlationID.String()),
		zap.Float64("value", value),
	)

	if note != nil {
		sanitized := logger.SanitizeString(*note, logger.MaxNoteLength)
		note = &sanitized
	}
	entry := &models.GoalProgressEntry{
		ID:        e.newID(),
		UserID:    userID,
		GoalID:    goalID,
		Value:     value,
		Note:      note,
		CreatedAt: e.now(),
	}

	var (
		goal *models.Goal
		err  error
	)
	if txStore, ok := e.store.(storage.TxGoalStore); ok {
		goal, err = e.trackInTx(ctx, txStore, entry)
	} else {
		goal, err = e.trackDualWrite(ctx, entry, fields)
	}
	if err != nil {
		return nil, e.fail(span, "failed_to_track_goal_progress", err, fields...)
	}

	e.logger.Info("goal_progress_tracked", append(fields,
		zap.Int("progress", goal.Progress),
		zap.String("status", string(goal.Status)),
	)...)

	if e.notifier != nil {
		if err := e.notifier.ProgressTracked(ctx, goal, entry); err != nil {
			e.logger.Warn("failed_to_notify_progress_tracked",
				append(fields, zap.String("error", logger.SanitizeError(err)))...,
			)
		}
	}
	return goal, nil
}

func (e *Engine) trackInTx(ctx context.Context, txStore storage.TxGoalStore, entry *models.GoalProgressEntry) (*models.Goal, error) {
	var updated *models.Goal
	err := e.retry(ctx, func() error {
		return txStore.InTx(ctx, func(s storage.GoalStore) error {
			current, err := s.GetGoal(ctx, entry.UserID, entry.GoalID)
			if err != nil {
				return err
			}
			if err := s.AppendProgress(ctx, entry); err != nil {
				return err
			}
			next := current.Clone()
			applyProgressDelta(next, entry.Value, entry.CreatedAt)
			if err := s.UpdateGoal(ctx, next); err != nil {
				return err
			}
			updated = next
			return nil
		})
	})
	return updated, err
}

func (e *Engine) trackDualWrite(ctx context.Context, entry *models.GoalProgressEntry, fields []zap.Field) (*models.Goal, error) {
	if _, err := e.store.GetGoal(ctx, entry.UserID, entry.GoalID); err != nil {
		return nil, err
	}
	if err := e.store.AppendProgress(ctx, entry); err != nil {
		e.logger.Error("progress_history_append_failed",
			append(fields, zap.String("error", logger.SanitizeError(err)))...,
		)
		return nil, err
	}
	e.logger.Debug("progress_history_appended", append(fields, zap.String("entry_id", entry.ID.String()))...)

	goal, err := e.modify(ctx, entry.UserID, entry.GoalID, func(g *models.Goal) error {
		applyProgressDelta(g, entry.Value, entry.CreatedAt)
		return nil
	})
	if err != nil {
		e.logger.Error("progress_goal_update_failed_after_history_append",
			append(fields,
				zap.String("entry_id", entry.ID.String()),
				zap.String("error", logger.SanitizeError(err)),
			)...,
		)
		return nil, err
	}
	return goal, nil
}

// GetGoalProgressHistory returns up to limit history entries for the goal, newest first.
// A non-positive limit means DefaultHistoryLimit.
func (e *Engine) GetGoalProgressHistory(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error) {
	ctx, span := e.startSpan(ctx, "goals.GetGoalProgressHistory", userID)
	defer span.End()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	entries, err := e.store.ListProgress(ctx, userID, goalID, limit)
	if err != nil {
		return []*models.GoalProgressEntry{}, e.fail(span, "failed_to_list_goal_progress", err, goalFields(userID, goalID)...)
	}
	return entries, nil
}

// UpdateGoalMilestone sets a milestone's completed flag. Completing a
// milestone stamps its completion date, un-completing clears it. The parent
// goal's progress is not recomputed.
func (e *Engine) UpdateGoalMilestone(ctx context.Context, userID, goalID uuid.UUID, milestoneID string, completed bool) (*models.Goal, error) {
	ctx, span := e.startSpan(ctx, "goals.UpdateGoalMilestone", userID)
	defer span.End()

	goal, err := e.modify(ctx, userID, goalID, func(g *models.Goal) error {
		if len(g.Milestones) == 0 {
			return ErrNotFound
		}
		i := g.FindMilestone(milestoneID)
		if i < 0 {
			return ErrNotFound
		}

		milestones := make([]models.Milestone, len(g.Milestones))
		copy(milestones, g.Milestones)
		m := &milestones[i]
		switch {
		case completed && !m.Completed:
			now := e.now()
			m.CompletedDate = &now
		case !completed:
			m.CompletedDate = nil
		}
		m.Completed = completed

		applyUpdate(g, &models.GoalUpdate{Milestones: &milestones}, e.now())
		return nil
	})
	if err != nil {
		return nil, e.fail(span, "failed_to_update_goal_milestone",
			err, append(goalFields(userID, goalID), zap.String("milestone_id", logger.SanitizeString(milestoneID, 128)))...)
	}
	return goal, nil
}
