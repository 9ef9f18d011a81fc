// Package streak maintains the consecutive-days-active counter.
//
// Days are timezone-local calendar days (see package calendar), never UTC
// truncations or elapsed-hour windows. All functions are pure: callers load
// the state, apply a transition and persist the result.
package streak

import (
	"time"

	"github.com/example/ieltsprep/internal/calendar"
	"github.com/example/ieltsprep/pkg/models"
)

// CompleteToday records activity for the local day of now in loc.
//
// A second completion on the same local day returns s unchanged. A completion
// on the day after LastDayKey extends the streak by one; any other gap, or a
// first ever completion, starts a new streak of 1.
func CompleteToday(s models.StreakState, loc *time.Location, now time.Time) models.StreakState {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := calendar.Shift(local, 0)
	if s.LastDayKey == today {
		return s
	}

	next := s
	if s.LastDayKey != "" && s.LastDayKey == calendar.Shift(local, -1) {
		next.CurrentStreak = s.CurrentStreak + 1
	} else {
		next.CurrentStreak = 1
	}
	next.LastDayKey = today
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	return next
}

// Current returns the streak to display on the local day of now: the stored
// count while the last active day is today or yesterday, otherwise 0 because
// the run has already been broken.
func Current(s models.StreakState, loc *time.Location, now time.Time) int {
	if s.LastDayKey == "" {
		return 0
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	if s.LastDayKey == calendar.Shift(local, 0) || s.LastDayKey == calendar.Shift(local, -1) {
		return s.CurrentStreak
	}
	return 0
}

// AtRisk reports whether the streak is alive but today has no activity yet.
func AtRisk(s models.StreakState, loc *time.Location, now time.Time) bool {
	if loc == nil {
		loc = time.UTC
	}
	return s.CurrentStreak > 0 && s.LastDayKey == calendar.Shift(now.In(loc), -1)
}
