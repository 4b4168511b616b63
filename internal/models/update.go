package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Optional is a patch field for values that may be cleared.
// Set reports whether the field was supplied at all; Valid reports whether the
// supplied value is non-null. A JSON key that is absent leaves Set false, an
// explicit null yields Set true and Valid false.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Some returns a supplied, non-null Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null returns a supplied Optional that clears the field
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// Ptr returns the value as a pointer, nil when cleared or not set
func (o Optional[T]) Ptr() *T {
	if !o.Set || !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the key is present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Valid = false
		o.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// GoalInput is the payload for creating a goal: a Goal without identity or derived fields
type GoalInput struct {
	Title           string         `json:"title" validate:"required,min=1,max=200"`
	Description     string         `json:"description" validate:"max=5000"`
	Category        GoalCategory   `json:"category" validate:"required,goal_category"`
	Type            GoalType       `json:"type" validate:"required,goal_type"`
	TargetValue     *float64       `json:"target_value,omitempty" validate:"omitempty,finite"`
	CurrentValue    *float64       `json:"current_value,omitempty" validate:"omitempty,finite"`
	Unit            *string        `json:"unit,omitempty" validate:"omitempty,max=50"`
	StartDate       *time.Time     `json:"start_date,omitempty"`
	TargetDate      *time.Time     `json:"target_date,omitempty"`
	Status          GoalStatus     `json:"status,omitempty" validate:"omitempty,goal_status"`
	Priority        GoalPriority   `json:"priority,omitempty" validate:"omitempty,goal_priority"`
	Frequency       *GoalFrequency `json:"frequency,omitempty" validate:"omitempty,goal_frequency"`
	ReminderEnabled bool           `json:"reminder_enabled"`
	ReminderTime    *string        `json:"reminder_time,omitempty" validate:"omitempty,max=32"`
	ReminderDays    []string       `json:"reminder_days,omitempty"`
	Tags            []string       `json:"tags,omitempty" validate:"max=50"`
	RelatedGoals    []uuid.UUID    `json:"related_goals,omitempty"`
	Milestones      []Milestone    `json:"milestones,omitempty" validate:"dive"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// GoalUpdate is a partial patch. Nil pointers and unset Optionals are left untouched.
type GoalUpdate struct {
	Title           *string                 `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string                 `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category        *GoalCategory           `json:"category,omitempty" validate:"omitempty,goal_category"`
	Type            *GoalType               `json:"type,omitempty" validate:"omitempty,goal_type"`
	TargetValue     Optional[float64]       `json:"target_value"`
	CurrentValue    *float64                `json:"current_value,omitempty" validate:"omitempty,finite"`
	Unit            Optional[string]        `json:"unit"`
	StartDate       *time.Time              `json:"start_date,omitempty"`
	TargetDate      Optional[time.Time]     `json:"target_date"`
	CompletedDate   Optional[time.Time]     `json:"completed_date"`
	Status          *GoalStatus             `json:"status,omitempty" validate:"omitempty,goal_status"`
	Priority        *GoalPriority           `json:"priority,omitempty" validate:"omitempty,goal_priority"`
	Frequency       Optional[GoalFrequency] `json:"frequency"`
	ReminderEnabled *bool                   `json:"reminder_enabled,omitempty"`
	ReminderTime    Optional[string]        `json:"reminder_time"`
	ReminderDays    Optional[[]string]      `json:"reminder_days"`
	Progress        *int                    `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
	StreakCurrent   *int                    `json:"streak_current,omitempty" validate:"omitempty,min=0"`
	StreakLongest   *int                    `json:"streak_longest,omitempty" validate:"omitempty,min=0"`
	Milestones      *[]Milestone            `json:"milestones,omitempty"`
	Tags            *[]string               `json:"tags,omitempty"`
	RelatedGoals    *[]uuid.UUID            `json:"related_goals,omitempty"`
	Metadata        map[string]any          `json:"metadata,omitempty"`
}

// TouchesValues reports whether the patch changes current or target value
func (u *GoalUpdate) TouchesValues() bool {
	return u.CurrentValue != nil || u.TargetValue.Set
}
