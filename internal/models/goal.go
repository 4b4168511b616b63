package models

import (
	"time"

	"github.com/google/uuid"
)

// GoalCategory groups goals by life area
type GoalCategory string

const (
	GoalCategoryFitness   GoalCategory = "fitness"
	GoalCategoryNutrition GoalCategory = "nutrition"
	GoalCategoryWellness  GoalCategory = "wellness"
	GoalCategoryCustom    GoalCategory = "custom"
)

// GoalType describes how a goal is pursued
type GoalType string

const (
	GoalTypeHabit     GoalType = "habit"
	GoalTypeMilestone GoalType = "milestone"
	GoalTypeChallenge GoalType = "challenge"
)

// GoalStatus represents the lifecycle state of a goal
type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "not_started"
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusCompleted  GoalStatus = "completed"
	GoalStatusFailed     GoalStatus = "failed"
	GoalStatusAbandoned  GoalStatus = "abandoned"
)

// GoalPriority represents how important a goal is to its owner
type GoalPriority string

const (
	GoalPriorityLow    GoalPriority = "low"
	GoalPriorityMedium GoalPriority = "medium"
	GoalPriorityHigh   GoalPriority = "high"
)

// Rank orders priorities so that high sorts before medium before low.
// Unknown values rank lowest.
func (p GoalPriority) Rank() int {
	switch p {
	case GoalPriorityHigh:
		return 3
	case GoalPriorityMedium:
		return 2
	case GoalPriorityLow:
		return 1
	default:
		return 0
	}
}

// GoalFrequency is the cadence a goal is worked on
type GoalFrequency string

const (
	GoalFrequencyDaily   GoalFrequency = "daily"
	GoalFrequencyWeekly  GoalFrequency = "weekly"
	GoalFrequencyMonthly GoalFrequency = "monthly"
	GoalFrequencyOnce    GoalFrequency = "once"
)

// Milestone is a named checkpoint owned by exactly one goal.
// Milestone IDs are unique within their goal only.
type Milestone struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	TargetValue   *float64   `json:"target_value,omitempty" validate:"omitempty,finite"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

// Goal is a user-owned tracked objective
type Goal struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    GoalCategory `json:"category"`
	Type        GoalType     `json:"type"`

	TargetValue  *float64 `json:"target_value,omitempty"`
	CurrentValue float64  `json:"current_value"`
	Unit         *string  `json:"unit,omitempty"`

	StartDate     time.Time  `json:"start_date"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`

	Status   GoalStatus   `json:"status"`
	Priority GoalPriority `json:"priority"`

	Frequency       *GoalFrequency `json:"frequency,omitempty"`
	ReminderEnabled bool           `json:"reminder_enabled"`
	ReminderTime    *string        `json:"reminder_time,omitempty"`
	ReminderDays    []string       `json:"reminder_days,omitempty"`

	// Progress is an integer percentage in [0, 100]
	Progress      int `json:"progress"`
	StreakCurrent int `json:"streak_current"`
	StreakLongest int `json:"streak_longest"`

	Milestones   []Milestone    `json:"milestones"`
	Tags         []string       `json:"tags"`
	RelatedGoals []uuid.UUID    `json:"related_goals"`
	Metadata     map[string]any `json:"metadata"`

	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FindMilestone returns the index of the milestone with the given ID, or -1
func (g *Goal) FindMilestone(id string) int {
	for i := range g.Milestones {
		if g.Milestones[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the goal so callers can mutate it freely
func (g *Goal) Clone() *Goal {
	if g == nil {
		return nil
	}
	c := *g
	c.TargetValue = clonePtr(g.TargetValue)
	c.Unit = clonePtr(g.Unit)
	c.TargetDate = clonePtr(g.TargetDate)
	c.CompletedDate = clonePtr(g.CompletedDate)
	c.Frequency = clonePtr(g.Frequency)
	c.ReminderTime = clonePtr(g.ReminderTime)
	c.LastActivityAt = clonePtr(g.LastActivityAt)
	c.ReminderDays = cloneSlice(g.ReminderDays)
	c.Tags = cloneSlice(g.Tags)
	c.RelatedGoals = cloneSlice(g.RelatedGoals)
	c.Metadata = CloneMetadata(g.Metadata)
	if g.Milestones != nil {
		c.Milestones = make([]Milestone, len(g.Milestones))
		for i, m := range g.Milestones {
			m.TargetValue = clonePtr(m.TargetValue)
			m.CompletedDate = clonePtr(m.CompletedDate)
			c.Milestones[i] = m
		}
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
