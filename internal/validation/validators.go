package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	enums := map[string]func(string) error{
		"goal_category":  ValidateGoalCategory,
		"goal_type":      ValidateGoalType,
		"goal_status":    ValidateGoalStatus,
		"goal_priority":  ValidateGoalPriority,
		"goal_frequency": ValidateGoalFrequency,
		"difficulty":     ValidateDifficulty,
	}
	for tag, check := range enums {
		check := check
		fn := func(fl validator.FieldLevel) bool {
			return check(fl.Field().String()) == nil
		}
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}

	finite := func(fl validator.FieldLevel) bool {
		return ValidateFinite(fl.Field().Float()) == nil
	}
	if err := Validate.RegisterValidation("finite", finite); err != nil {
		panic(fmt.Sprintf("failed to register finite validator: %v", err))
	}
}

// ErrNotFinite is returned for NaN or infinite numeric input
var ErrNotFinite = errors.New("value must be a finite number")

// ValidateFinite rejects NaN and ±Inf
func ValidateFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrNotFinite
	}
	return nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateGoalCategory validates a GoalCategory string value
func ValidateGoalCategory(value string) error {
	switch models.GoalCategory(value) {
	case models.GoalCategoryFitness, models.GoalCategoryNutrition, models.GoalCategoryWellness, models.GoalCategoryCustom:
		return nil
	default:
		return fmt.Errorf("invalid category: %s (must be 'fitness', 'nutrition', 'wellness', or 'custom')", value)
	}
}

// ValidateGoalType validates a GoalType string value
func ValidateGoalType(value string) error {
	switch models.GoalType(value) {
	case models.GoalTypeHabit, models.GoalTypeMilestone, models.GoalTypeChallenge:
		return nil
	default:
		return fmt.Errorf("invalid type: %s (must be 'habit', 'milestone', or 'challenge')", value)
	}
}

// ValidateGoalStatus validates a GoalStatus string value
func ValidateGoalStatus(value string) error {
	switch models.GoalStatus(value) {
	case models.GoalStatusNotStarted, models.GoalStatusInProgress, models.GoalStatusCompleted,
		models.GoalStatusFailed, models.GoalStatusAbandoned:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'not_started', 'in_progress', 'completed', 'failed', or 'abandoned')", value)
	}
}

// ValidateGoalPriority validates a GoalPriority string value
func ValidateGoalPriority(value string) error {
	switch models.GoalPriority(value) {
	case models.GoalPriorityLow, models.GoalPriorityMedium, models.GoalPriorityHigh:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s (must be 'low', 'medium', or 'high')", value)
	}
}

// ValidateGoalFrequency validates a GoalFrequency string value
func ValidateGoalFrequency(value string) error {
	switch models.GoalFrequency(value) {
	case models.GoalFrequencyDaily, models.GoalFrequencyWeekly, models.GoalFrequencyMonthly, models.GoalFrequencyOnce:
		return nil
	default:
		return fmt.Errorf("invalid frequency: %s (must be 'daily', 'weekly', 'monthly', or 'once')", value)
	}
}

// ValidateDifficulty validates a Difficulty string value
func ValidateDifficulty(value string) error {
	switch models.Difficulty(value) {
	case models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced:
		return nil
	default:
		return fmt.Errorf("invalid difficulty: %s (must be 'beginner', 'intermediate', or 'advanced')", value)
	}
}

// ValidateGoalInput validates a create payload
func ValidateGoalInput(in *models.GoalInput) error {
	if err := Validate.Struct(in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	return nil
}

// ValidateGoalUpdate validates a patch, including the Optional fields the
// struct tags cannot reach
func ValidateGoalUpdate(u *models.GoalUpdate) error {
	if err := Validate.Struct(u); err != nil {
		return err
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if u.Frequency.Set && u.Frequency.Valid {
		if err := ValidateGoalFrequency(string(u.Frequency.Value)); err != nil {
			return err
		}
	}
	if u.TargetValue.Set && u.TargetValue.Valid {
		if err := ValidateFinite(u.TargetValue.Value); err != nil {
			return fmt.Errorf("target_value: %w", err)
		}
	}
	if u.Milestones != nil {
		for i := range *u.Milestones {
			if err := Validate.Struct(&(*u.Milestones)[i]); err != nil {
				return err
			}
		}
	}
	if u.Unit.Set && u.Unit.Valid && len(u.Unit.Value) > 50 {
		return fmt.Errorf("unit exceeds maximum length of 50 characters")
	}
	return nil
}
