// Package streak derives goal streak counters from dated progress entries.
//
// A streak counts consecutive cadence periods (days, ISO weeks or calendar
// months, chosen by the goal frequency) that contain at least one positive
// progress entry. The current streak stays alive while the most recent active
// period is the current period or the one right before it, so a user who has
// not logged yet today does not lose yesterday's streak.
package streak

import (
	"sort"
	"time"

	"github.com/benvon/smart-goals/internal/models"
)

// Result holds computed streak counters
type Result struct {
	Current int
	Longest int
}

// Supported reports whether a frequency has a cadence streaks can be counted on
func Supported(freq *models.GoalFrequency) bool {
	if freq == nil {
		return false
	}
	switch *freq {
	case models.GoalFrequencyDaily, models.GoalFrequencyWeekly, models.GoalFrequencyMonthly:
		return true
	default:
		return false
	}
}

// Compute returns the streak counters for entries at the given cadence.
// previousLongest is carried forward so history truncation never shrinks the
// longest streak. ok is false when freq has no cadence.
func Compute(entries []*models.GoalProgressEntry, freq *models.GoalFrequency, previousLongest int, now time.Time) (Result, bool) {
	if !Supported(freq) {
		return Result{}, false
	}

	seen := make(map[int]struct{})
	for _, e := range entries {
		if e == nil || e.Value <= 0 {
			continue
		}
		seen[periodIndex(e.CreatedAt, *freq)] = struct{}{}
	}

	periods := make([]int, 0, len(seen))
	for p := range seen {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(periods)))

	res := Result{Longest: previousLongest}
	if len(periods) == 0 {
		return res, true
	}

	current := periodIndex(now, *freq)
	if periods[0] == current || periods[0] == current-1 {
		res.Current = 1
		for i := 1; i < len(periods) && periods[i] == periods[i-1]-1; i++ {
			res.Current++
		}
	}

	run := 1
	longest := 1
	for i := 1; i < len(periods); i++ {
		if periods[i] == periods[i-1]-1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	if longest > res.Longest {
		res.Longest = longest
	}
	if res.Current > res.Longest {
		res.Longest = res.Current
	}
	return res, true
}

// periodIndex maps t onto a monotonically increasing period number in UTC
func periodIndex(t time.Time, freq models.GoalFrequency) int {
	t = t.UTC()
	day := int(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400)
	switch freq {
	case models.GoalFrequencyWeekly:
		// 1970-01-01 was a Thursday; shift so weeks start on Monday
		return (day + 3) / 7
	case models.GoalFrequencyMonthly:
		return t.Year()*12 + int(t.Month()) - 1
	default:
		return day
	}
}
