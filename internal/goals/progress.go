package goals

import (
	"math"
	"time"

	"github.com/benvon/smart-goals/internal/models"
)

// ComputeProgress returns round(100 * current / target) clamped to [0, 100].
// ok is false when there is no positive target to measure against.
func ComputeProgress(current float64, target *float64) (progress int, ok bool) {
	if target == nil || *target <= 0 || math.IsNaN(*target) || math.IsInf(*target, 0) {
		return 0, false
	}
	p := math.Round(100 * current / *target)
	switch {
	case math.IsNaN(p) || p < 0:
		return 0, true
	case p > 100:
		return 100, true
	default:
		return int(p), true
	}
}

// markCompleted moves a goal to completed, keeping an existing completion date
func markCompleted(goal *models.Goal, now time.Time) {
	if goal.Status == models.GoalStatusCompleted && goal.CompletedDate != nil {
		return
	}
	goal.Status = models.GoalStatusCompleted
	t := now
	goal.CompletedDate = &t
}

// applyUpdate applies a partial patch to goal in place.
//
// progress is re-derived when current or target value changes and the patch
// does not carry its own progress. Reaching 100 forces completion unless the
// patch already sets status to completed. Setting status to completed does not
// force progress to 100.
func applyUpdate(goal *models.Goal, u *models.GoalUpdate, now time.Time) {
	wasCompleted := goal.Status == models.GoalStatusCompleted

	if u.Title != nil {
		goal.Title = *u.Title
	}
	if u.Description != nil {
		goal.Description = *u.Description
	}
	if u.Category != nil {
		goal.Category = *u.Category
	}
	if u.Type != nil {
		goal.Type = *u.Type
	}
	if u.TargetValue.Set {
		goal.TargetValue = u.TargetValue.Ptr()
	}
	if u.CurrentValue != nil {
		goal.CurrentValue = *u.CurrentValue
	}
	if u.Unit.Set {
		goal.Unit = u.Unit.Ptr()
	}
	if u.StartDate != nil {
		goal.StartDate = *u.StartDate
	}
	if u.TargetDate.Set {
		goal.TargetDate = u.TargetDate.Ptr()
	}
	if u.CompletedDate.Set {
		goal.CompletedDate = u.CompletedDate.Ptr()
	}
	if u.Status != nil {
		goal.Status = *u.Status
	}
	if u.Priority != nil {
		goal.Priority = *u.Priority
	}
	if u.Frequency.Set {
		goal.Frequency = u.Frequency.Ptr()
	}
	if u.ReminderEnabled != nil {
		goal.ReminderEnabled = *u.ReminderEnabled
	}
	if u.ReminderTime.Set {
		goal.ReminderTime = u.ReminderTime.Ptr()
	}
	if u.ReminderDays.Set {
		if u.ReminderDays.Valid {
			goal.ReminderDays = u.ReminderDays.Value
		} else {
			goal.ReminderDays = nil
		}
	}
	if u.StreakCurrent != nil {
		goal.StreakCurrent = *u.StreakCurrent
	}
	if u.StreakLongest != nil {
		goal.StreakLongest = *u.StreakLongest
	}
	if u.Milestones != nil {
		goal.Milestones = *u.Milestones
	}
	if u.Tags != nil {
		goal.Tags = models.NormalizeTags(*u.Tags)
	}
	if u.RelatedGoals != nil {
		goal.RelatedGoals = *u.RelatedGoals
	}
	if u.Metadata != nil {
		goal.Metadata = u.Metadata
	}

	progressTouched := false
	if u.Progress != nil {
		goal.Progress = *u.Progress
		progressTouched = true
	} else if u.TouchesValues() {
		if p, ok := ComputeProgress(goal.CurrentValue, goal.TargetValue); ok {
			goal.Progress = p
			progressTouched = true
		}
	}

	explicitCompleted := u.Status != nil && *u.Status == models.GoalStatusCompleted
	if progressTouched && goal.Progress == 100 && !explicitCompleted {
		if !wasCompleted || goal.CompletedDate == nil {
			t := now
			goal.CompletedDate = &t
		}
		goal.Status = models.GoalStatusCompleted
	}

	switch {
	case goal.Status == models.GoalStatusCompleted && goal.CompletedDate == nil:
		t := now
		goal.CompletedDate = &t
	case goal.Status != models.GoalStatusCompleted && u.Status != nil && !u.CompletedDate.Set:
		goal.CompletedDate = nil
	}
}

// applyProgressDelta adds delta to the running current value and re-derives
// progress against the existing target
func applyProgressDelta(goal *models.Goal, delta float64, now time.Time) {
	goal.CurrentValue += delta
	if goal.Status == models.GoalStatusNotStarted && delta != 0 {
		goal.Status = models.GoalStatusInProgress
	}
	if p, ok := ComputeProgress(goal.CurrentValue, goal.TargetValue); ok {
		goal.Progress = p
		if p == 100 {
			markCompleted(goal, now)
		}
	}
	t := now
	goal.LastActivityAt = &t
}
