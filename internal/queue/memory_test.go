package queue

import (
	"context"
	"testing"
	"time"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/google/uuid"
)

func receive(t *testing.T, msgs <-chan Delivery) Delivery {
	t.Helper()
	select {
	case msg, ok := <-msgs:
		if !ok {
			t.Fatal("message channel closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	return nil
}

func TestMemoryQueue_DeliverAckNack(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryQueue()
	msgs, _, err := q.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}

	job := NewJob(JobTypeStreakRecompute, uuid.New(), nil)
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	msg := receive(t, msgs)
	if msg.GetJob().ID != job.ID {
		t.Fatalf("received job %s, want %s", msg.GetJob().ID, job.ID)
	}
	if err := msg.Nack(true); err != nil {
		t.Fatalf("Nack() error = %v", err)
	}

	again := receive(t, msgs)
	if again.GetJob().ID != job.ID {
		t.Fatalf("requeued job %s, want %s", again.GetJob().ID, job.ID)
	}
	_ = again.Nack(false)

	dead := q.DeadLetters()
	if len(dead) != 1 || dead[0].ID != job.ID {
		t.Errorf("DeadLetters() = %v, want the nacked job", dead)
	}
}

func TestMemoryQueue_HoldsJobsUntilDue(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	q := NewMemoryQueue()
	q.pollInterval = time.Millisecond
	clock := make(chan time.Time, 1)
	clock <- now
	q.SetClock(func() time.Time {
		t := <-clock
		clock <- t
		return t
	})

	job := NewJob(JobTypeStreakRecompute, uuid.New(), nil)
	job.NotBefore = timePtr(now.Add(time.Minute))
	expired := NewJob(JobTypeStreakRecompute, uuid.New(), nil)
	expired.NotAfter = timePtr(now.Add(-time.Minute))
	_ = q.Enqueue(ctx, job)
	_ = q.Enqueue(ctx, expired)

	msgs, _, _ := q.Consume(ctx, 1)
	select {
	case msg := <-msgs:
		t.Fatalf("received %s before it was due", msg.GetJob().ID)
	case <-time.After(20 * time.Millisecond):
	}

	<-clock
	clock <- now.Add(2 * time.Minute)

	msg := receive(t, msgs)
	if msg.GetJob().ID != job.ID {
		t.Errorf("received %s, want the delayed job", msg.GetJob().ID)
	}
	_ = msg.Ack()

	dead := q.DeadLetters()
	if len(dead) != 1 || dead[0].ID != expired.ID {
		t.Errorf("DeadLetters() = %v, want the expired job", dead)
	}
}

func TestMemoryQueue_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := NewMemoryQueue()
	msgs, _, _ := q.Consume(ctx, 1)

	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case _, ok := <-msgs:
		if ok {
			t.Error("received a message after Close()")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message channel not closed after Close()")
	}
	if err := q.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() = nil after Close()")
	}
	if err := q.Enqueue(ctx, NewJob(JobTypeStreakRecompute, uuid.New(), nil)); err == nil {
		t.Error("Enqueue() = nil after Close()")
	}
}

func TestStreakScheduler_ProgressTracked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	daily, once := models.GoalFrequencyDaily, models.GoalFrequencyOnce

	tests := []struct {
		name      string
		frequency *models.GoalFrequency
		wantJob   bool
	}{
		{name: "daily goal", frequency: &daily, wantJob: true},
		{name: "one-off goal", frequency: &once},
		{name: "no frequency"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := NewMemoryQueue()
			s := NewStreakScheduler(q, time.Minute)
			s.now = func() time.Time { return now }

			goal := &models.Goal{ID: uuid.New(), UserID: uuid.New(), Frequency: tt.frequency}
			entry := &models.GoalProgressEntry{ID: uuid.New(), GoalID: goal.ID, UserID: goal.UserID, Value: 1}
			if err := s.ProgressTracked(ctx, goal, entry); err != nil {
				t.Fatalf("ProgressTracked() error = %v", err)
			}

			pending := q.Pending()
			if !tt.wantJob {
				if len(pending) != 0 {
					t.Errorf("enqueued %d jobs, want none", len(pending))
				}
				return
			}
			if len(pending) != 1 {
				t.Fatalf("enqueued %d jobs, want 1", len(pending))
			}
			job := pending[0]
			if job.Type != JobTypeStreakRecompute || job.UserID != goal.UserID || job.GoalID == nil || *job.GoalID != goal.ID {
				t.Errorf("job = %+v", job)
			}
			if job.NotBefore == nil || !job.NotBefore.Equal(now.Add(time.Minute)) {
				t.Errorf("NotBefore = %v, want %v", job.NotBefore, now.Add(time.Minute))
			}
			if job.Metadata["entry_id"] != entry.ID.String() {
				t.Errorf("Metadata = %v", job.Metadata)
			}
		})
	}
}
