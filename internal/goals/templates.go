package goals

import (
	"context"
	"sort"
	"time"

	"github.com/benvon/smart-goals/internal/logger"
	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PersonalizeTemplates filters and ranks templates for a profile.
//
// Fitness templates are kept only when the user has no training goals or the
// template shares a tag with them; other categories always pass. Templates
// harder than the user's fitness level are dropped. The rest are sorted by the
// number of tags shared with the training goals, keeping catalog order on ties.
func PersonalizeTemplates(templates []*models.GoalTemplate, profile *models.Profile) []*models.GoalTemplate {
	goals := models.TagSet(profile.TrainingGoals())
	level := profile.FitnessLevel()

	type ranked struct {
		template  *models.GoalTemplate
		relevance int
	}
	kept := make([]ranked, 0, len(templates))
	for _, t := range templates {
		if t == nil {
			continue
		}
		relevance := models.CountTagsIn(t.Tags, goals)
		if t.Category == models.GoalCategoryFitness && len(goals) > 0 && relevance == 0 {
			continue
		}
		if !level.Allows(t.Difficulty) {
			continue
		}
		kept = append(kept, ranked{template: t, relevance: relevance})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].relevance > kept[j].relevance
	})

	out := make([]*models.GoalTemplate, len(kept))
	for i, r := range kept {
		out[i] = r.template
	}
	return out
}

// GetGoalTemplates returns the full template catalog
func (e *Engine) GetGoalTemplates(ctx context.Context) ([]*models.GoalTemplate, error) {
	ctx, span := e.tracer.Start(ctx, "goals.GetGoalTemplates")
	defer span.End()

	templates, err := e.templates.Templates(ctx)
	if err != nil {
		return []*models.GoalTemplate{}, e.fail(span, "failed_to_load_goal_templates", err)
	}
	return templates, nil
}

// GetRecommendedGoalTemplates returns catalog templates personalized for the user's profile
func (e *Engine) GetRecommendedGoalTemplates(ctx context.Context, userID uuid.UUID) ([]*models.GoalTemplate, error) {
	ctx, span := e.startSpan(ctx, "goals.GetRecommendedGoalTemplates", userID)
	defer span.End()

	userField := zap.String("user_id", logger.SanitizeUserID(userID.String()))

	profile, err := e.profiles.GetProfile(ctx, userID)
	if err != nil {
		return []*models.GoalTemplate{}, e.fail(span, "failed_to_load_profile", err, userField)
	}
	templates, err := e.templates.Templates(ctx)
	if err != nil {
		return []*models.GoalTemplate{}, e.fail(span, "failed_to_load_goal_templates", err, userField)
	}
	return PersonalizeTemplates(templates, profile), nil
}

// CreateGoalFromTemplate instantiates a template as a new goal.
// Customizations win over template defaults; the template id is always
// stamped into metadata last.
func (e *Engine) CreateGoalFromTemplate(ctx context.Context, userID uuid.UUID, templateID string, customizations *models.GoalUpdate) (*models.Goal, error) {
	ctx, span := e.startSpan(ctx, "goals.CreateGoalFromTemplate", userID)
	defer span.End()

	fields := []zap.Field{
		zap.String("user_id", logger.SanitizeUserID(userID.String())),
		zap.String("template_id", logger.SanitizeString(templateID, 128)),
	}

	if customizations == nil {
		customizations = &models.GoalUpdate{}
	}
	if err := validation.ValidateGoalUpdate(customizations); err != nil {
		e.logger.Debug("template_customizations_rejected", append(fields, zap.String("reason", logger.SanitizeError(err)))...)
		return nil, ErrInvalidInput
	}

	tmpl, err := e.templates.Template(ctx, templateID)
	if err != nil {
		return nil, e.fail(span, "failed_to_load_goal_template", err, fields...)
	}

	return e.CreateGoal(ctx, userID, e.inputFromTemplate(tmpl, customizations))
}

func (e *Engine) inputFromTemplate(tmpl *models.GoalTemplate, c *models.GoalUpdate) models.GoalInput {
	start := e.now()
	if c.StartDate != nil {
		start = *c.StartDate
	}

	var targetDate *time.Time
	switch {
	case c.TargetDate.Set:
		// explicit null means no target date
		targetDate = c.TargetDate.Ptr()
	case tmpl.DefaultDuration != nil:
		t := start.AddDate(0, 0, *tmpl.DefaultDuration)
		targetDate = &t
	}

	var milestones []models.Milestone
	if c.Milestones != nil {
		milestones = *c.Milestones
	} else {
		milestones = make([]models.Milestone, 0, len(tmpl.DefaultMilestones))
		for _, m := range tmpl.DefaultMilestones {
			milestones = append(milestones, models.Milestone{
				ID:          e.newID().String(),
				Title:       m.Title,
				TargetValue: m.TargetValue,
				Completed:   false,
			})
		}
	}

	in := models.GoalInput{
		Title:           pick(c.Title, tmpl.Title),
		Description:     pick(c.Description, tmpl.Description),
		Category:        pick(c.Category, tmpl.Category),
		Type:            pick(c.Type, tmpl.Type),
		TargetValue:     pickOptional(c.TargetValue, tmpl.DefaultTargetValue),
		CurrentValue:    c.CurrentValue,
		Unit:            pickOptional(c.Unit, tmpl.Unit),
		StartDate:       &start,
		TargetDate:      targetDate,
		Priority:        pick(c.Priority, models.GoalPriorityMedium),
		Frequency:       pickOptional(c.Frequency, tmpl.SuggestedFrequency),
		ReminderEnabled: pick(c.ReminderEnabled, true),
		ReminderTime:    c.ReminderTime.Ptr(),
		Tags:            pick(c.Tags, tmpl.Tags),
		Milestones:      milestones,
		Metadata: models.MergeMetadata(
			tmpl.Metadata,
			c.Metadata,
			map[string]any{models.MetadataTemplateID: tmpl.ID},
		),
	}
	if c.Status != nil {
		in.Status = *c.Status
	}
	if c.ReminderDays.Valid {
		in.ReminderDays = c.ReminderDays.Value
	}
	if c.RelatedGoals != nil {
		in.RelatedGoals = *c.RelatedGoals
	}
	return in
}

func pick[T any](custom *T, fallback T) T {
	if custom != nil {
		return *custom
	}
	return fallback
}

func pickOptional[T any](custom models.Optional[T], fallback *T) *T {
	if custom.Valid {
		return custom.Ptr()
	}
	return fallback
}
