// Package workers processes background jobs consumed from the job queue.
package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-goals/internal/goals"
	logpkg "github.com/benvon/smart-goals/internal/logger"
	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/queue"
	"github.com/benvon/smart-goals/internal/streak"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultHistoryWindow is how many recent progress entries feed a streak recomputation
const DefaultHistoryWindow = 400

// ErrMissingGoalID is returned for streak jobs without a goal id
var ErrMissingGoalID = errors.New("goal_id is required for streak recompute job")

// JobProcessor handles one job type
type JobProcessor func(ctx context.Context, job *queue.Job) error

// GoalService is the subset of the goal engine the worker needs
type GoalService interface {
	GetGoal(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error)
	GetGoalProgressHistory(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error)
	UpdateGoal(ctx context.Context, userID, goalID uuid.UUID, u models.GoalUpdate) (*models.Goal, error)
}

var _ GoalService = (*goals.Engine)(nil)

// StreakWorker recomputes goal streak counters from progress history
type StreakWorker struct {
	goals         GoalService
	jobQueue      queue.JobQueue // for re-enqueueing failed jobs with a delay
	logger        *zap.Logger
	historyWindow int
	now           func() time.Time
	registry      map[queue.JobType]JobProcessor
}

// NewStreakWorker creates a worker and registers the streak_recompute processor
func NewStreakWorker(svc GoalService, jobQueue queue.JobQueue, historyWindow int, log *zap.Logger) *StreakWorker {
	if log == nil {
		log = zap.NewNop()
	}
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	if historyWindow > goals.MaxHistoryLimit {
		historyWindow = goals.MaxHistoryLimit
	}
	w := &StreakWorker{
		goals:         svc,
		jobQueue:      jobQueue,
		logger:        log,
		historyWindow: historyWindow,
		now:           time.Now,
		registry:      make(map[queue.JobType]JobProcessor),
	}
	w.RegisterProcessor(queue.JobTypeStreakRecompute, w.ProcessStreakJob)
	return w
}

// RegisterProcessor registers a processor for a job type
func (w *StreakWorker) RegisterProcessor(typ queue.JobType, proc JobProcessor) {
	w.registry[typ] = proc
}

// ProcessStreakJob recomputes one goal's streak and persists it when it changed.
// A goal that no longer exists is not an error.
func (w *StreakWorker) ProcessStreakJob(ctx context.Context, job *queue.Job) error {
	if job.GoalID == nil {
		return ErrMissingGoalID
	}
	userID, goalID := job.UserID, *job.GoalID

	goal, err := w.goals.GetGoal(ctx, userID, goalID)
	if errors.Is(err, goals.ErrNotFound) {
		w.logger.Debug("streak_goal_gone",
			zap.String("goal_id", goalID.String()),
			zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get goal: %w", err)
	}
	if !streak.Supported(goal.Frequency) {
		return nil
	}

	entries, err := w.goals.GetGoalProgressHistory(ctx, userID, goalID, w.historyWindow)
	if errors.Is(err, goals.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get progress history: %w", err)
	}

	res, ok := streak.Compute(entries, goal.Frequency, goal.StreakLongest, w.now())
	if !ok || (res.Current == goal.StreakCurrent && res.Longest == goal.StreakLongest) {
		return nil
	}

	_, err = w.goals.UpdateGoal(ctx, userID, goalID, models.GoalUpdate{
		StreakCurrent: &res.Current,
		StreakLongest: &res.Longest,
	})
	if errors.Is(err, goals.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}

	w.logger.Info("goal_streak_updated",
		zap.String("goal_id", goalID.String()),
		zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		zap.Int("streak_current", res.Current),
		zap.Int("streak_longest", res.Longest),
		zap.Int("entries", len(entries)),
	)
	return nil
}

// ProcessJob dispatches a message to its processor and settles it.
// Failures are re-enqueued with exponential delay until the job runs out of
// retries, then dead-lettered.
func (w *StreakWorker) ProcessJob(ctx context.Context, msg queue.Delivery) error {
	job := msg.GetJob()
	jobID := job.ID.String()

	if !job.ShouldProcess(w.now()) {
		// expired jobs go to the DLQ, early ones back to the queue
		requeue := !job.IsExpired(w.now())
		if nackErr := msg.Nack(requeue); nackErr != nil {
			w.logger.Warn("failed_to_nack_unready_job",
				zap.String("job_id", jobID),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return nil
	}

	proc, ok := w.registry[job.Type]
	if !ok {
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", jobID),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := proc(ctx, job); err != nil {
		return w.handleJobError(ctx, msg, job, err)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

func (w *StreakWorker) handleJobError(ctx context.Context, msg queue.Delivery, job *queue.Job, err error) error {
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		zap.Int("retry_count", job.RetryCount),
		zap.String("error", logpkg.SanitizeError(err)),
	}

	// malformed jobs never succeed
	if errors.Is(err, ErrMissingGoalID) || !job.CanRetry() || w.jobQueue == nil {
		w.logger.Error("streak_job_dead_lettered", fields...)
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("failed_to_nack_job", zap.String("job_id", job.ID.String()), zap.String("error", logpkg.SanitizeError(nackErr)))
		}
		return fmt.Errorf("streak job failed: %w", err)
	}

	delay := job.RetryDelay()
	retry := *job
	retry.IncrementRetry()
	notBefore := w.now().Add(delay)
	retry.NotBefore = &notBefore

	if enqueueErr := w.jobQueue.Enqueue(ctx, &retry); enqueueErr != nil {
		w.logger.Error("failed_to_reenqueue_streak_job", append(fields, zap.String("enqueue_error", logpkg.SanitizeError(enqueueErr)))...)
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("failed_to_nack_job", zap.String("job_id", job.ID.String()), zap.String("error", logpkg.SanitizeError(nackErr)))
		}
		return fmt.Errorf("streak job failed, re-enqueue failed: %w", enqueueErr)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		w.logger.Warn("failed_to_ack_retried_job", zap.String("job_id", job.ID.String()), zap.String("error", logpkg.SanitizeError(ackErr)))
	}
	w.logger.Warn("streak_job_retry_scheduled", append(fields, zap.Duration("delay", delay))...)
	return fmt.Errorf("streak job failed, retry scheduled: %w", err)
}
