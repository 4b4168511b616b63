package goals

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage/memstore"
	"github.com/google/uuid"
)

func tmpl(id string, category models.GoalCategory, difficulty models.Difficulty, tags ...string) *models.GoalTemplate {
	return &models.GoalTemplate{
		ID:         id,
		Title:      id,
		Category:   category,
		Type:       models.GoalTypeHabit,
		Difficulty: difficulty,
		Tags:       tags,
	}
}

func profile(level string, goals ...string) *models.Profile {
	return &models.Profile{
		UserID: uuid.New(),
		Preferences: models.Preferences{
			TrainingPreferences: models.TrainingPreferences{TrainingGoals: goals, TrainingExperience: level},
		},
	}
}

func templateIDs(ts []*models.GoalTemplate) []string {
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return ids
}

func TestPersonalizeTemplates(t *testing.T) {
	t.Parallel()

	catalog := []*models.GoalTemplate{
		tmpl("couch-to-5k", models.GoalCategoryFitness, models.DifficultyBeginner, "running", "endurance"),
		tmpl("deadlift-pr", models.GoalCategoryFitness, models.DifficultyAdvanced, "strength"),
		tmpl("bodyweight", models.GoalCategoryFitness, models.DifficultyIntermediate, "strength", "mobility"),
		tmpl("hydration", models.GoalCategoryNutrition, models.DifficultyBeginner, "water"),
		tmpl("meditation", models.GoalCategoryWellness, models.DifficultyIntermediate, "mindfulness"),
		tmpl("strength-basics", models.GoalCategoryFitness, models.DifficultyBeginner, "strength"),
	}

	tests := []struct {
		name    string
		profile *models.Profile
		want    []string
	}{
		{
			name:    "beginner without goals sees only beginner templates",
			profile: profile(""),
			want:    []string{"couch-to-5k", "hydration", "strength-basics"},
		},
		{
			name:    "nil profile behaves like an empty beginner profile",
			profile: nil,
			want:    []string{"couch-to-5k", "hydration", "strength-basics"},
		},
		{
			name:    "intermediate strength user ranks by shared tags",
			profile: profile("intermediate", "Strength", "mobility"),
			want:    []string{"bodyweight", "strength-basics", "hydration", "meditation"},
		},
		{
			name:    "advanced runner drops unrelated fitness templates",
			profile: profile("advanced", "running"),
			want:    []string{"couch-to-5k", "hydration", "meditation"},
		},
		{
			name:    "unknown experience defaults to beginner",
			profile: profile("elite", "strength"),
			want:    []string{"strength-basics", "hydration"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := templateIDs(PersonalizeTemplates(catalog, tt.profile))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PersonalizeTemplates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func templateEngine(t *testing.T, templates ...*models.GoalTemplate) (*Engine, *memstore.Store) {
	t.Helper()
	var n byte
	ids := func() uuid.UUID {
		n++
		return uuid.UUID{15: n}
	}
	e, mem := newTestEngine(t, nil, WithIDGenerator(ids))
	e.templates = &fakeTemplates{templates: templates}
	return e, mem
}

func runningTemplate() *models.GoalTemplate {
	weekly := models.GoalFrequencyWeekly
	duration := 56
	unit := "km"
	return &models.GoalTemplate{
		ID:                 "couch-to-5k",
		Title:              "Couch to 5K",
		Description:        "Build up to running 5 km",
		Category:           models.GoalCategoryFitness,
		Type:               models.GoalTypeChallenge,
		Difficulty:         models.DifficultyBeginner,
		Tags:               []string{"running"},
		DefaultTargetValue: float(5),
		Unit:               &unit,
		DefaultDuration:    &duration,
		SuggestedFrequency: &weekly,
		DefaultMilestones: []models.TemplateMilestone{
			{Title: "Run 1 km", TargetValue: float(1)},
			{Title: "Run 3 km", TargetValue: float(3)},
		},
		Metadata: map[string]any{"source": "catalog", "templateId": "spoofed"},
	}
}

func TestEngine_CreateGoalFromTemplate_Defaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, _ := templateEngine(t, runningTemplate())
	user := uuid.New()

	g, err := e.CreateGoalFromTemplate(ctx, user, "couch-to-5k", nil)
	if err != nil {
		t.Fatalf("CreateGoalFromTemplate() error = %v", err)
	}

	if g.Title != "Couch to 5K" || g.Category != models.GoalCategoryFitness || g.Type != models.GoalTypeChallenge {
		t.Errorf("identity fields = (%q, %s, %s)", g.Title, g.Category, g.Type)
	}
	if g.TargetValue == nil || *g.TargetValue != 5 || g.Unit == nil || *g.Unit != "km" {
		t.Errorf("target = (%v, %v), want (5, km)", g.TargetValue, g.Unit)
	}
	if !g.StartDate.Equal(testNow) {
		t.Errorf("StartDate = %v, want %v", g.StartDate, testNow)
	}
	if want := testNow.AddDate(0, 0, 56); g.TargetDate == nil || !g.TargetDate.Equal(want) {
		t.Errorf("TargetDate = %v, want %v", g.TargetDate, want)
	}
	if g.Frequency == nil || *g.Frequency != models.GoalFrequencyWeekly {
		t.Errorf("Frequency = %v, want weekly", g.Frequency)
	}
	if g.Priority != models.GoalPriorityMedium || !g.ReminderEnabled {
		t.Errorf("(priority, reminder) = (%s, %v), want (medium, true)", g.Priority, g.ReminderEnabled)
	}
	if g.Status != models.GoalStatusNotStarted || g.Progress != 0 || g.CurrentValue != 0 {
		t.Errorf("state = (%s, %d, %v)", g.Status, g.Progress, g.CurrentValue)
	}
	if len(g.Milestones) != 2 {
		t.Fatalf("len(Milestones) = %d, want 2", len(g.Milestones))
	}
	for _, m := range g.Milestones {
		if m.ID == "" || m.Completed || m.CompletedDate != nil {
			t.Errorf("milestone = %+v, want fresh id and incomplete", m)
		}
	}
	if g.Milestones[0].ID == g.Milestones[1].ID {
		t.Error("milestone ids are not unique")
	}
	if g.Metadata[models.MetadataTemplateID] != "couch-to-5k" || g.Metadata["source"] != "catalog" {
		t.Errorf("Metadata = %v", g.Metadata)
	}
}

func TestEngine_CreateGoalFromTemplate_Customizations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, _ := templateEngine(t, runningTemplate())
	user := uuid.New()

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	high := models.GoalPriorityHigh
	reminders := false
	milestones := []models.Milestone{{Title: "Sign up for race"}}
	custom := &models.GoalUpdate{
		Title:           strPtr("My 5K"),
		TargetValue:     models.Some(6.0),
		StartDate:       &start,
		Priority:        &high,
		ReminderEnabled: &reminders,
		Milestones:      &milestones,
		Metadata:        map[string]any{"source": "user", "templateId": "also-spoofed"},
	}

	g, err := e.CreateGoalFromTemplate(ctx, user, "couch-to-5k", custom)
	if err != nil {
		t.Fatalf("CreateGoalFromTemplate() error = %v", err)
	}
	if g.Title != "My 5K" || *g.TargetValue != 6 || g.Priority != high || g.ReminderEnabled {
		t.Errorf("customizations not applied: %+v", g)
	}
	if g.Description != "Build up to running 5 km" {
		t.Errorf("Description = %q, want template default", g.Description)
	}
	if want := start.AddDate(0, 0, 56); !g.TargetDate.Equal(want) {
		t.Errorf("TargetDate = %v, want start + duration %v", g.TargetDate, want)
	}
	if len(g.Milestones) != 1 || g.Milestones[0].Title != "Sign up for race" || g.Milestones[0].ID == "" {
		t.Errorf("Milestones = %+v", g.Milestones)
	}
	if g.Metadata["source"] != "user" || g.Metadata[models.MetadataTemplateID] != "couch-to-5k" {
		t.Errorf("Metadata = %v", g.Metadata)
	}
}

func TestEngine_CreateGoalFromTemplate_NullTargetDate(t *testing.T) {
	t.Parallel()
	e, _ := templateEngine(t, runningTemplate())

	g, err := e.CreateGoalFromTemplate(context.Background(), uuid.New(), "couch-to-5k",
		&models.GoalUpdate{TargetDate: models.Null[time.Time]()})
	if err != nil {
		t.Fatalf("CreateGoalFromTemplate() error = %v", err)
	}
	if g.TargetDate != nil {
		t.Errorf("TargetDate = %v, want nil for explicit null", g.TargetDate)
	}
}

func TestEngine_CreateGoalFromTemplate_IsDeterministic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	user := uuid.New()

	var goals []*models.Goal
	for i := 0; i < 2; i++ {
		e, _ := templateEngine(t, runningTemplate())
		g, err := e.CreateGoalFromTemplate(ctx, user, "couch-to-5k", nil)
		if err != nil {
			t.Fatalf("CreateGoalFromTemplate() error = %v", err)
		}
		goals = append(goals, g)
	}
	if !reflect.DeepEqual(goals[0], goals[1]) {
		t.Errorf("instantiation differs:\n%+v\n%+v", goals[0], goals[1])
	}
}

func TestEngine_CreateGoalFromTemplate_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, _ := templateEngine(t, runningTemplate())
	user := uuid.New()

	if g, err := e.CreateGoalFromTemplate(ctx, user, "missing", nil); g != nil || !errors.Is(err, ErrNotFound) {
		t.Errorf("missing template = %v, %v; want nil, ErrNotFound", g, err)
	}

	bad := models.GoalCategory("sleep")
	if _, err := e.CreateGoalFromTemplate(ctx, user, "couch-to-5k", &models.GoalUpdate{Category: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("invalid customization error = %v, want ErrInvalidInput", err)
	}

	if _, err := e.CreateGoalFromTemplate(ctx, user, "couch-to-5k", &models.GoalUpdate{TargetValue: models.Some(math.Inf(1))}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("infinite target customization error = %v, want ErrInvalidInput", err)
	}

	e.templates = &fakeTemplates{err: errors.New("catalog unreadable")}
	if _, err := e.CreateGoalFromTemplate(ctx, user, "couch-to-5k", nil); !errors.Is(err, ErrPersistence) {
		t.Errorf("catalog failure error = %v, want ErrPersistence", err)
	}
}

func TestEngine_GetRecommendedGoalTemplates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, mem := templateEngine(t, runningTemplate(), tmpl("deadlift-pr", models.GoalCategoryFitness, models.DifficultyAdvanced, "strength"))
	user := uuid.New()
	if got, err := e.GetRecommendedGoalTemplates(ctx, user); !errors.Is(err, ErrNotFound) || got == nil || len(got) != 0 {
		t.Errorf("no profile = %v, %v; want empty, ErrNotFound", got, err)
	}

	p := profile("beginner", "running")
	p.UserID = user
	mem.PutProfile(p)

	got, err := e.GetRecommendedGoalTemplates(ctx, user)
	if err != nil {
		t.Fatalf("GetRecommendedGoalTemplates() error = %v", err)
	}
	if ids := templateIDs(got); !reflect.DeepEqual(ids, []string{"couch-to-5k"}) {
		t.Errorf("recommended = %v, want [couch-to-5k]", ids)
	}
}

func TestEngine_GetGoalTemplates(t *testing.T) {
	t.Parallel()

	e, _ := templateEngine(t,
		tmpl("hydration", models.GoalCategoryNutrition, models.DifficultyBeginner, "water"),
		tmpl("deadlift-pr", models.GoalCategoryFitness, models.DifficultyAdvanced, "strength"),
	)
	got, err := e.GetGoalTemplates(context.Background())
	if err != nil {
		t.Fatalf("GetGoalTemplates() error = %v", err)
	}
	if ids := templateIDs(got); !reflect.DeepEqual(ids, []string{"hydration", "deadlift-pr"}) {
		t.Errorf("GetGoalTemplates() = %v", ids)
	}

	e.templates = &fakeTemplates{err: errors.New("catalog unavailable")}
	got, err = e.GetGoalTemplates(context.Background())
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("err = %v, want ErrPersistence", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("templates = %v, want empty slice", got)
	}
}
