package models

// User is a learner. For Telegram users the ID is the Telegram user ID.
type User struct {
	ID                  int64  `json:"id" db:"id"`
	Username            string `json:"username" db:"username"`
	FirstName           string `json:"first_name" db:"first_name"`
	Timezone            string `json:"timezone" db:"timezone"`         // IANA name, e.g. Asia/Karachi
	DailyTarget         int    `json:"daily_target" db:"daily_target"` // Tasks per day
	GoalTotal           int    `json:"goal_total" db:"goal_total"`     // Total tasks to reach the goal
	NotificationEnabled bool   `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int    `json:"notification_hour" db:"notification_hour"` // Local hour of day for reminders (0-23)
	CreatedAt           string `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt           string `json:"updated_at,omitempty" db:"updated_at"`
}
