// Package studyplan spreads missed daily work over the coming week and
// projects when a learner will reach their goal.
package studyplan

import (
	"time"

	"github.com/example/ieltsprep/internal/calendar"
	"github.com/example/ieltsprep/pkg/models"
)

// PlanDays is the length of the forward plan and of the history window.
const PlanDays = 7

// Missed sums the shortfall against baseDaily over the given days. Days above
// quota contribute nothing; they do not offset other days.
func Missed(baseDaily int, last7 []models.AttemptCount) int {
	missed := 0
	for _, a := range last7 {
		if short := baseDaily - a.Count; short > 0 {
			missed += short
		}
	}
	return missed
}

// Redistribute builds the 7-day plan starting at the local day of today:
// every day gets baseDaily plus an even share of missed, and the remainder
// goes one task each to the earliest days.
func Redistribute(baseDaily, missed int, today time.Time) []models.DayPlan {
	if missed < 0 {
		missed = 0
	}
	perDay := missed / PlanDays
	remainder := missed % PlanDays

	plan := make([]models.DayPlan, PlanDays)
	for i := range plan {
		target := baseDaily + perDay
		if i < remainder {
			target++
		}
		plan[i] = models.DayPlan{
			Date:   calendar.Shift(today, i),
			Target: target,
		}
	}
	return plan
}

// SlipRecovery redistributes the shortfall of last7 over the next 7 days.
func SlipRecovery(baseDaily int, last7 []models.AttemptCount, today time.Time) []models.DayPlan {
	return Redistribute(baseDaily, Missed(baseDaily, last7), today)
}

// Analyze projects the recovery plan and goal ETA from ascending history.
// Only the last 7 entries are considered. ETA is nil when the average over
// those entries is zero, since no date can be projected.
func Analyze(history []models.AttemptCount, baseDaily, goalTotal, totalAttempts int, today time.Time) models.PlanResult {
	last7 := history
	if len(last7) > PlanDays {
		last7 = last7[len(last7)-PlanDays:]
	}

	result := models.PlanResult{
		Next7:        SlipRecovery(baseDaily, last7, today),
		DailyTarget:  baseDaily,
		WeeklyTarget: baseDaily * PlanDays,
	}

	sum := 0
	for _, a := range last7 {
		sum += a.Count
	}

	remaining := goalTotal - totalAttempts
	if remaining < 0 {
		remaining = 0
	}
	// ceil(remaining / (sum/n)) in integers; a float average overshoots whole results.
	if sum > 0 {
		etaDays := (remaining*len(last7) + sum - 1) / sum
		eta := calendar.Shift(today, etaDays)
		result.ETA = &eta
	}
	return result
}

// Window returns the days consecutive days ending the day before today, in
// ascending order, taking counts from the given tallies and zero for days
// without one. Tallies outside the window are ignored.
func Window(counts []models.AttemptCount, today time.Time, days int) []models.AttemptCount {
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Date] += c.Count
	}

	window := make([]models.AttemptCount, 0, days)
	for i := days; i >= 1; i-- {
		day := calendar.Shift(today, -i)
		window = append(window, models.AttemptCount{Date: day, Count: byDay[day]})
	}
	return window
}
