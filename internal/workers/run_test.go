package workers

import (
	"context"
	"testing"
	"time"

	"github.com/benvon/smart-goals/internal/goals"
	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/queue"
	"github.com/benvon/smart-goals/internal/storage/memstore"
	"github.com/google/uuid"
)

func TestRun_TrackedProgressUpdatesStreak(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q := queue.NewMemoryQueue()
	defer func() { _ = q.Close() }()

	mem := memstore.New()
	engine := goals.New(mem, mem, nil, goals.WithNotifier(queue.NewStreakScheduler(q, 0)))
	worker := NewStreakWorker(engine, q, 0, nil)

	done := make(chan error, 1)
	go func() { done <- Run(ctx, q, 2, worker, nil) }()

	daily := models.GoalFrequencyDaily
	userID := uuid.New()
	goal, err := engine.CreateGoal(ctx, userID, models.GoalInput{
		Title:     "Stretch",
		Category:  models.GoalCategoryWellness,
		Type:      models.GoalTypeHabit,
		Frequency: &daily,
	})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	if _, err := engine.TrackGoalProgress(ctx, userID, goal.ID, 1, nil); err != nil {
		t.Fatalf("TrackGoalProgress() error = %v", err)
	}

	for {
		got, err := engine.GetGoal(ctx, userID, goal.ID)
		if err != nil {
			t.Fatalf("GetGoal() error = %v", err)
		}
		if got.StreakCurrent == 1 && got.StreakLongest == 1 {
			break
		}
		select {
		case <-ctx.Done():
			t.Fatalf("streak never updated, got (%d, %d)", got.StreakCurrent, got.StreakLongest)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if n := len(q.DeadLetters()); n != 0 {
		t.Errorf("dead letters = %d, want 0", n)
	}
}

func TestRun_ConsumeError(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	_ = q.Close()
	if err := Run(context.Background(), q, 1, NewStreakWorker(&mockGoalService{}, q, 0, nil), nil); err == nil {
		t.Error("expected error consuming a closed queue")
	}
}
