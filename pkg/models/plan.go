package models

// AttemptCount is the number of tasks completed on one day.
type AttemptCount struct {
	Date  string `json:"date" db:"day"`
	Count int    `json:"count" db:"completed"`
}

// DayPlan is the number of tasks the learner should complete on Date.
type DayPlan struct {
	Date   string `json:"date"`
	Target int    `json:"target"`
}

// PlanResult is the forward plan derived from recent attempt history.
// ETA is nil when recent velocity is zero.
type PlanResult struct {
	Next7        []DayPlan `json:"next7"`
	DailyTarget  int       `json:"daily_target"`
	WeeklyTarget int       `json:"weekly_target"`
	ETA          *string   `json:"eta"`
}
