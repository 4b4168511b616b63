package models

import "github.com/google/uuid"

// Profile is the read-only subset of a user profile used to personalize templates.
// Preferences are stored as a JSON document written by the client apps, hence the
// camelCase keys.
type Profile struct {
	UserID      uuid.UUID   `json:"user_id"`
	Preferences Preferences `json:"preferences"`
}

// Preferences holds user preference groups
type Preferences struct {
	TrainingPreferences TrainingPreferences `json:"trainingPreferences"`
}

// TrainingPreferences holds the training goals and experience level of a user
type TrainingPreferences struct {
	TrainingGoals      []string `json:"trainingGoals"`
	TrainingExperience string   `json:"trainingExperience"`
}

// FitnessLevel returns the user's experience as a Difficulty (beginner when unset)
func (p *Profile) FitnessLevel() Difficulty {
	if p == nil {
		return DifficultyBeginner
	}
	return ParseDifficulty(p.Preferences.TrainingPreferences.TrainingExperience)
}

// TrainingGoals returns the user's training goal tags
func (p *Profile) TrainingGoals() []string {
	if p == nil {
		return nil
	}
	return p.Preferences.TrainingPreferences.TrainingGoals
}
