package models

// Module is the IELTS paper a drill practises.
type Module string

const (
	ModuleListening  Module = "listening"
	ModuleReading    Module = "reading"
	ModuleWriting    Module = "writing"
	ModuleSpeaking   Module = "speaking"
	ModuleVocabulary Module = "vocabulary"
)

// Modules lists every supported module in display order.
var Modules = []Module{ModuleListening, ModuleReading, ModuleWriting, ModuleSpeaking, ModuleVocabulary}

// Drill is a single practice item plus the learner's SM-2 scheduling state for it.
type Drill struct {
	ID          string  `json:"id" db:"id"`
	UserID      int64   `json:"user_id" db:"user_id"`
	Module      Module  `json:"module" db:"module"`
	Prompt      string  `json:"prompt" db:"prompt"`
	Answer      string  `json:"answer" db:"answer"`
	Notes       string  `json:"notes,omitempty" db:"notes"`
	Interval    int     `json:"interval" db:"interval_days"` // Days until next review, always >= 1
	Repetition  int     `json:"repetition" db:"repetition"`  // Consecutive successful recalls
	Ease        float64 `json:"ease" db:"ease"`              // SM-2 ease factor, always >= 1.3
	Due         string  `json:"due" db:"due"`                // YYYY-MM-DD
	LastGrade   int     `json:"last_grade" db:"last_grade"`
	LastReview  string  `json:"last_review,omitempty" db:"last_review"` // YYYY-MM-DD, empty before first review
	ReviewCount int     `json:"review_count" db:"review_count"`
	CreatedAt   string  `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt   string  `json:"updated_at,omitempty" db:"updated_at"`
}
