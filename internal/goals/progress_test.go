package goals

import (
	"math"
	"testing"
	"time"

	"github.com/benvon/smart-goals/internal/models"
)

func TestComputeProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current float64
		target  *float64
		want    int
		wantOK  bool
	}{
		{name: "nil target", current: 5, target: nil, want: 0, wantOK: false},
		{name: "zero target", current: 5, target: float(0), want: 0, wantOK: false},
		{name: "negative target", current: 5, target: float(-1), want: 0, wantOK: false},
		{name: "infinite target", current: 5, target: float(math.Inf(1)), want: 0, wantOK: false},
		{name: "half", current: 5, target: float(10), want: 50, wantOK: true},
		{name: "rounds half up", current: 1, target: float(8), want: 13, wantOK: true},
		{name: "clamps high", current: 25, target: float(10), want: 100, wantOK: true},
		{name: "clamps low", current: -3, target: float(10), want: 0, wantOK: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ComputeProgress(tt.current, tt.target)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ComputeProgress(%v, %v) = (%d, %v), want (%d, %v)", tt.current, tt.target, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestApplyUpdate_CompletedDate(t *testing.T) {
	t.Parallel()
	earlier := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		goal      models.Goal
		update    models.GoalUpdate
		wantState models.GoalStatus
		wantDate  *time.Time
	}{
		{
			name:      "reopening clears completion date",
			goal:      models.Goal{Status: models.GoalStatusCompleted, CompletedDate: &earlier, Progress: 100},
			update:    models.GoalUpdate{Status: statusPtr(models.GoalStatusInProgress)},
			wantState: models.GoalStatusInProgress,
			wantDate:  nil,
		},
		{
			name:      "completed goal keeps original date when progress stays 100",
			goal:      models.Goal{Status: models.GoalStatusCompleted, CompletedDate: &earlier, Progress: 100},
			update:    models.GoalUpdate{Progress: intPtr(100)},
			wantState: models.GoalStatusCompleted,
			wantDate:  &earlier,
		},
		{
			name:      "explicit completed date wins",
			goal:      models.Goal{Status: models.GoalStatusInProgress},
			update:    models.GoalUpdate{Status: statusPtr(models.GoalStatusCompleted), CompletedDate: models.Some(earlier)},
			wantState: models.GoalStatusCompleted,
			wantDate:  &earlier,
		},
		{
			name:      "title change leaves completion alone",
			goal:      models.Goal{Status: models.GoalStatusCompleted, CompletedDate: &earlier},
			update:    models.GoalUpdate{Title: strPtr("new")},
			wantState: models.GoalStatusCompleted,
			wantDate:  &earlier,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := tt.goal
			applyUpdate(&g, &tt.update, testNow)
			if g.Status != tt.wantState {
				t.Errorf("Status = %s, want %s", g.Status, tt.wantState)
			}
			switch {
			case tt.wantDate == nil && g.CompletedDate != nil:
				t.Errorf("CompletedDate = %v, want nil", g.CompletedDate)
			case tt.wantDate != nil && (g.CompletedDate == nil || !g.CompletedDate.Equal(*tt.wantDate)):
				t.Errorf("CompletedDate = %v, want %v", g.CompletedDate, *tt.wantDate)
			}
		})
	}
}

func TestApplyProgressDelta_SetsLastActivity(t *testing.T) {
	t.Parallel()
	g := &models.Goal{Status: models.GoalStatusNotStarted, TargetValue: float(4)}
	applyProgressDelta(g, 4, testNow)

	if g.LastActivityAt == nil || !g.LastActivityAt.Equal(testNow) {
		t.Errorf("LastActivityAt = %v, want %v", g.LastActivityAt, testNow)
	}
	if g.Status != models.GoalStatusCompleted || g.CompletedDate == nil {
		t.Errorf("goal = (status %s, completed %v), want completed", g.Status, g.CompletedDate)
	}
}
