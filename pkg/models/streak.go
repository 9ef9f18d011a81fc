package models

// StreakState is a user's daily-engagement streak.
// CurrentStreak is zero exactly when LastDayKey is empty.
type StreakState struct {
	UserID        int64  `json:"user_id" db:"user_id"`
	CurrentStreak int    `json:"current_streak" db:"current_streak"`
	LongestStreak int    `json:"longest_streak" db:"longest_streak"`
	LastDayKey    string `json:"last_day_key,omitempty" db:"last_day_key"` // YYYY-MM-DD in the user's timezone
	Version       int64  `json:"-" db:"version"`
}
