package models

import (
	"sort"
	"strings"
)

// GoalFilter narrows a goal listing. All supplied criteria must match.
type GoalFilter struct {
	Category *GoalCategory
	Status   *GoalStatus
	Priority *GoalPriority
	// Search is matched case-insensitively as a substring of title or description
	Search string
}

// Matches reports whether the goal satisfies every supplied criterion
func (f GoalFilter) Matches(g *Goal) bool {
	if g == nil {
		return false
	}
	if f.Category != nil && g.Category != *f.Category {
		return false
	}
	if f.Status != nil && g.Status != *f.Status {
		return false
	}
	if f.Priority != nil && g.Priority != *f.Priority {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(g.Title), needle) &&
			!strings.Contains(strings.ToLower(g.Description), needle) {
			return false
		}
	}
	return true
}

// FilterGoals returns the goals matching f, preserving order
func FilterGoals(goals []*Goal, f GoalFilter) []*Goal {
	out := make([]*Goal, 0, len(goals))
	for _, g := range goals {
		if f.Matches(g) {
			out = append(out, g)
		}
	}
	return out
}

// SortGoals orders goals by priority (high first) then start date (most recent first)
func SortGoals(goals []*Goal) {
	sort.SliceStable(goals, func(i, j int) bool {
		pi, pj := goals[i].Priority.Rank(), goals[j].Priority.Rank()
		if pi != pj {
			return pi > pj
		}
		return goals[i].StartDate.After(goals[j].StartDate)
	})
}
