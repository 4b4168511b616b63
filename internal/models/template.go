package models

// Difficulty is how demanding a goal template is
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Allows reports whether a user at level d may be offered a template of difficulty other.
// A level contains itself and every easier level.
func (d Difficulty) Allows(other Difficulty) bool {
	switch d {
	case DifficultyAdvanced:
		return other == DifficultyBeginner || other == DifficultyIntermediate || other == DifficultyAdvanced
	case DifficultyIntermediate:
		return other == DifficultyBeginner || other == DifficultyIntermediate
	default:
		return other == DifficultyBeginner
	}
}

// ParseDifficulty maps free-form experience strings onto a Difficulty, defaulting to beginner
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyIntermediate:
		return DifficultyIntermediate
	case DifficultyAdvanced:
		return DifficultyAdvanced
	default:
		return DifficultyBeginner
	}
}

// TemplateMilestone is a milestone blueprint. It has no id or completion
// state until the template is instantiated.
type TemplateMilestone struct {
	Title       string   `json:"title" yaml:"title" validate:"required"`
	TargetValue *float64 `json:"target_value,omitempty" yaml:"target_value,omitempty"`
}

// GoalTemplate is a read-only catalog blueprint for creating goals
type GoalTemplate struct {
	ID                 string              `json:"id" yaml:"id" validate:"required,max=100"`
	Title              string              `json:"title" yaml:"title" validate:"required,max=200"`
	Description        string              `json:"description" yaml:"description"`
	Category           GoalCategory        `json:"category" yaml:"category" validate:"required,goal_category"`
	Type               GoalType            `json:"type" yaml:"type" validate:"required,goal_type"`
	Difficulty         Difficulty          `json:"difficulty" yaml:"difficulty" validate:"required,difficulty"`
	Tags               []string            `json:"tags" yaml:"tags"`
	DefaultTargetValue *float64            `json:"default_target_value,omitempty" yaml:"default_target_value,omitempty"`
	Unit               *string             `json:"unit,omitempty" yaml:"unit,omitempty"`
	DefaultDuration    *int                `json:"default_duration,omitempty" yaml:"default_duration,omitempty" validate:"omitempty,min=1"` // days
	SuggestedFrequency *GoalFrequency      `json:"suggested_frequency,omitempty" yaml:"suggested_frequency,omitempty" validate:"omitempty,goal_frequency"`
	DefaultMilestones  []TemplateMilestone `json:"default_milestones,omitempty" yaml:"default_milestones,omitempty" validate:"dive"`
	Metadata           map[string]any      `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of the template
func (t *GoalTemplate) Clone() *GoalTemplate {
	if t == nil {
		return nil
	}
	c := *t
	c.Tags = cloneSlice(t.Tags)
	c.DefaultTargetValue = clonePtr(t.DefaultTargetValue)
	c.Unit = clonePtr(t.Unit)
	c.DefaultDuration = clonePtr(t.DefaultDuration)
	c.SuggestedFrequency = clonePtr(t.SuggestedFrequency)
	c.Metadata = CloneMetadata(t.Metadata)
	if t.DefaultMilestones != nil {
		c.DefaultMilestones = make([]TemplateMilestone, len(t.DefaultMilestones))
		for i, m := range t.DefaultMilestones {
			m.TargetValue = clonePtr(m.TargetValue)
			c.DefaultMilestones[i] = m
		}
	}
	return &c
}
