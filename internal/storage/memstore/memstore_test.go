package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/google/uuid"
)

func newGoal(userID uuid.UUID, title string, priority models.GoalPriority, start time.Time) *models.Goal {
	return &models.Goal{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Category:  models.GoalCategoryFitness,
		Type:      models.GoalTypeHabit,
		Status:    models.GoalStatusNotStarted,
		Priority:  priority,
		StartDate: start,
	}
}

func TestStore_GoalsAreScopedByOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	owner, other := uuid.New(), uuid.New()
	g := newGoal(owner, "Run", models.GoalPriorityMedium, time.Now())
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	if g.Version != 1 {
		t.Errorf("Version = %d, want 1", g.Version)
	}

	if _, err := s.GetGoal(ctx, other, g.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetGoal(other) error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteGoal(ctx, other, g.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteGoal(other) error = %v, want ErrNotFound", err)
	}
	goals, err := s.ListGoals(ctx, other, models.GoalFilter{})
	if err != nil || len(goals) != 0 {
		t.Errorf("ListGoals(other) = %d goals, %v; want none", len(goals), err)
	}
}

func TestStore_UpdateGoalComparesVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	g := newGoal(uuid.New(), "Run", models.GoalPriorityMedium, time.Now())
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}

	a, _ := s.GetGoal(ctx, g.UserID, g.ID)
	b, _ := s.GetGoal(ctx, g.UserID, g.ID)

	a.Title = "first"
	if err := s.UpdateGoal(ctx, a); err != nil {
		t.Fatalf("UpdateGoal(a) error = %v", err)
	}
	if a.Version != 2 {
		t.Errorf("Version after update = %d, want 2", a.Version)
	}

	b.Title = "second"
	if err := s.UpdateGoal(ctx, b); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("UpdateGoal(stale) error = %v, want ErrConflict", err)
	}

	got, _ := s.GetGoal(ctx, g.UserID, g.ID)
	if got.Title != "first" {
		t.Errorf("Title = %q, want first", got.Title)
	}
}

func TestStore_ListGoalsOrdering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	user := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, g := range []*models.Goal{
		newGoal(user, "low-new", models.GoalPriorityLow, base.AddDate(0, 0, 5)),
		newGoal(user, "high-old", models.GoalPriorityHigh, base),
		newGoal(user, "high-new", models.GoalPriorityHigh, base.AddDate(0, 0, 3)),
		newGoal(user, "medium", models.GoalPriorityMedium, base.AddDate(0, 0, 1)),
	} {
		if err := s.CreateGoal(ctx, g); err != nil {
			t.Fatalf("CreateGoal() error = %v", err)
		}
	}

	goals, err := s.ListGoals(ctx, user, models.GoalFilter{})
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	want := []string{"high-new", "high-old", "medium", "low-new"}
	if len(goals) != len(want) {
		t.Fatalf("ListGoals() returned %d goals, want %d", len(goals), len(want))
	}
	for i, title := range want {
		if goals[i].Title != title {
			t.Errorf("goals[%d] = %q, want %q", i, goals[i].Title, title)
		}
	}
}

func TestStore_InTxRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	g := newGoal(uuid.New(), "Run", models.GoalPriorityMedium, time.Now())
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx storage.GoalStore) error {
		if err := tx.AppendProgress(ctx, &models.GoalProgressEntry{ID: uuid.New(), UserID: g.UserID, GoalID: g.ID, Value: 1}); err != nil {
			return err
		}
		cur, err := tx.GetGoal(ctx, g.UserID, g.ID)
		if err != nil {
			return err
		}
		cur.CurrentValue = 1
		if err := tx.UpdateGoal(ctx, cur); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx() error = %v, want boom", err)
	}

	if n := s.HistoryLen(); n != 0 {
		t.Errorf("HistoryLen() = %d after rollback, want 0", n)
	}
	got, _ := s.GetGoal(ctx, g.UserID, g.ID)
	if got.CurrentValue != 0 || got.Version != 1 {
		t.Errorf("goal after rollback = (current %v, version %d), want (0, 1)", got.CurrentValue, got.Version)
	}
}

func TestStore_ListProgressNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	user, goal := uuid.New(), uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		entry := &models.GoalProgressEntry{ID: uuid.New(), UserID: user, GoalID: goal, Value: float64(i), CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.AppendProgress(ctx, entry); err != nil {
			t.Fatalf("AppendProgress() error = %v", err)
		}
	}
	_ = s.AppendProgress(ctx, &models.GoalProgressEntry{ID: uuid.New(), UserID: user, GoalID: uuid.New(), Value: 99, CreatedAt: base})

	entries, err := s.ListProgress(ctx, user, goal, 3)
	if err != nil {
		t.Fatalf("ListProgress() error = %v", err)
	}
	want := []float64{4, 3, 2}
	if len(entries) != len(want) {
		t.Fatalf("ListProgress() returned %d entries, want %d", len(entries), len(want))
	}
	for i, v := range want {
		if entries[i].Value != v {
			t.Errorf("entries[%d].Value = %v, want %v", i, entries[i].Value, v)
		}
	}
}

func TestStore_FaultInjection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	boom := errors.New("connection reset")

	s.FailOn(OpListGoals, boom)
	if _, err := s.ListGoals(ctx, uuid.New(), models.GoalFilter{}); !errors.Is(err, boom) {
		t.Errorf("ListGoals() error = %v, want injected fault", err)
	}
	s.FailOn(OpListGoals, nil)
	if _, err := s.ListGoals(ctx, uuid.New(), models.GoalFilter{}); err != nil {
		t.Errorf("ListGoals() after clear error = %v", err)
	}
}

func TestStore_CreateGoalRejectsDuplicateID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	g := newGoal(uuid.New(), "Run", models.GoalPriorityMedium, time.Now())
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}

	dup := newGoal(uuid.New(), "Swim", models.GoalPriorityHigh, time.Now())
	dup.ID = g.ID
	if err := s.CreateGoal(ctx, dup); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("CreateGoal(duplicate) error = %v, want ErrConflict", err)
	}

	got, err := s.GetGoal(ctx, g.UserID, g.ID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	if got.Title != "Run" {
		t.Errorf("Title = %q, duplicate create overwrote the original", got.Title)
	}
}
