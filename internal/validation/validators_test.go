package validation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/benvon/smart-goals/internal/models"
)

func TestValidateGoalInput(t *testing.T) {
	t.Parallel()

	freq := models.GoalFrequency("hourly")

	tests := []struct {
		name    string
		input   models.GoalInput
		wantErr bool
	}{
		{
			name: "minimal valid input",
			input: models.GoalInput{
				Title:    "Run 5k",
				Category: models.GoalCategoryFitness,
				Type:     models.GoalTypeChallenge,
			},
		},
		{
			name: "missing title",
			input: models.GoalInput{
				Category: models.GoalCategoryFitness,
				Type:     models.GoalTypeChallenge,
			},
			wantErr: true,
		},
		{
			name: "whitespace title",
			input: models.GoalInput{
				Title:    "   ",
				Category: models.GoalCategoryFitness,
				Type:     models.GoalTypeChallenge,
			},
			wantErr: true,
		},
		{
			name: "unknown category",
			input: models.GoalInput{
				Title:    "Sleep more",
				Category: models.GoalCategory("sleep"),
				Type:     models.GoalTypeHabit,
			},
			wantErr: true,
		},
		{
			name: "unknown status",
			input: models.GoalInput{
				Title:    "Sleep more",
				Category: models.GoalCategoryWellness,
				Type:     models.GoalTypeHabit,
				Status:   models.GoalStatus("paused"),
			},
			wantErr: true,
		},
		{
			name: "unknown frequency pointer",
			input: models.GoalInput{
				Title:     "Sleep more",
				Category:  models.GoalCategoryWellness,
				Type:      models.GoalTypeHabit,
				Frequency: &freq,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateGoalInput(&tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGoalInput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateGoalUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "empty patch", body: `{}`},
		{name: "valid status", body: `{"status":"in_progress"}`},
		{name: "invalid status", body: `{"status":"done"}`, wantErr: true},
		{name: "progress over 100", body: `{"progress":101}`, wantErr: true},
		{name: "negative streak", body: `{"streak_current":-1}`, wantErr: true},
		{name: "clearing frequency", body: `{"frequency":null}`},
		{name: "invalid frequency", body: `{"frequency":"hourly"}`, wantErr: true},
		{name: "empty title", body: `{"title":"  "}`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var u models.GoalUpdate
			if err := json.Unmarshal([]byte(tt.body), &u); err != nil {
				t.Fatalf("failed to decode patch: %v", err)
			}
			err := ValidateGoalUpdate(&u)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGoalUpdate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	got := SanitizeText("  hello\x00 world\n ")
	if got != "hello world" {
		t.Errorf("SanitizeText() = %q, want %q", got, "hello world")
	}
}

func TestValidateFinite(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	inf := math.Inf(1)
	milestones := []models.Milestone{{Title: "half", TargetValue: &inf}}

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "finite value", err: ValidateFinite(12.5)},
		{name: "NaN value", err: ValidateFinite(nan), wantErr: true},
		{name: "negative infinity", err: ValidateFinite(math.Inf(-1)), wantErr: true},
		{name: "NaN current on create", err: ValidateGoalInput(&models.GoalInput{
			Title: "Run", Category: models.GoalCategoryFitness, Type: models.GoalTypeHabit, CurrentValue: &nan,
		}), wantErr: true},
		{name: "infinite milestone target on create", err: ValidateGoalInput(&models.GoalInput{
			Title: "Run", Category: models.GoalCategoryFitness, Type: models.GoalTypeHabit, Milestones: milestones,
		}), wantErr: true},
		{name: "infinite target on update", err: ValidateGoalUpdate(&models.GoalUpdate{TargetValue: models.Some(inf)}), wantErr: true},
		{name: "infinite milestone target on update", err: ValidateGoalUpdate(&models.GoalUpdate{Milestones: &milestones}), wantErr: true},
		{name: "cleared target on update", err: ValidateGoalUpdate(&models.GoalUpdate{TargetValue: models.Null[float64]()})},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if (tt.err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", tt.err, tt.wantErr)
			}
		})
	}
}
