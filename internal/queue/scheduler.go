package queue

import (
	"context"
	"time"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/streak"
)

// DefaultStreakDebounce delays recomputation so a burst of progress entries
// for the same goal is usually handled by a single job
const DefaultStreakDebounce = 30 * time.Second

// StreakScheduler enqueues streak recomputation jobs after progress is tracked
type StreakScheduler struct {
	queue    JobQueue
	debounce time.Duration
	now      func() time.Time
}

// NewStreakScheduler creates a scheduler publishing to q
func NewStreakScheduler(q JobQueue, debounce time.Duration) *StreakScheduler {
	if debounce < 0 {
		debounce = 0
	}
	return &StreakScheduler{queue: q, debounce: debounce, now: time.Now}
}

// ProgressTracked enqueues a streak_recompute job for goals with a cadence.
// Goals without one are skipped.
func (s *StreakScheduler) ProgressTracked(ctx context.Context, goal *models.Goal, entry *models.GoalProgressEntry) error {
	if goal == nil || !streak.Supported(goal.Frequency) {
		return nil
	}

	goalID := goal.ID
	job := NewJob(JobTypeStreakRecompute, goal.UserID, &goalID)
	job.CreatedAt = s.now()
	if s.debounce > 0 {
		notBefore := job.CreatedAt.Add(s.debounce)
		job.NotBefore = &notBefore
	}
	if entry != nil {
		job.Metadata["entry_id"] = entry.ID.String()
	}
	return s.queue.Enqueue(ctx, job)
}
