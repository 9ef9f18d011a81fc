package spaced_repetition

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/example/ieltsprep/internal/calendar"
	"github.com/example/ieltsprep/pkg/models"
)

const (
	// DefaultEase is the ease factor a new drill starts with
	DefaultEase = 2.5
	// MinEase is the floor that keeps intervals growing
	MinEase = 1.3
	// MinGrade and MaxGrade bound the recall quality scale
	MinGrade = 0
	MaxGrade = 5
)

// ErrInvalidGrade is returned by ValidateGrade for grades outside 0..5.
var ErrInvalidGrade = errors.New("spaced_repetition: grade must be between 0 and 5")

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Grades at or above this count as a successful recall
	PassThreshold int
	// Upper bound on the interval in days, 0 disables the cap
	MaxInterval int
}

// NewSM2 returns the canonical SM-2 configuration
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold: int(QualityCorrectDifficult),
	}
}

// ValidateGrade rejects grades outside the 0..5 scale.
func ValidateGrade(grade int) error {
	if grade < MinGrade || grade > MaxGrade {
		return fmt.Errorf("%w: got %d", ErrInvalidGrade, grade)
	}
	return nil
}

// NewDrill returns a drill seeded for its first exposure, due on the local day of now.
func NewDrill(id string, userID int64, now time.Time) models.Drill {
	return models.Drill{
		ID:         id,
		UserID:     userID,
		Interval:   1,
		Repetition: 0,
		Ease:       DefaultEase,
		Due:        calendar.Shift(now, 0),
	}
}

// Schedule grades a review and returns the drill's next state. The input is
// not modified. now should already be in the learner's timezone; the due
// date is that local day plus the new interval. Out of range grades are
// clamped to 0..5.
func (sm *SM2) Schedule(d models.Drill, grade int, now time.Time) models.Drill {
	grade = clampGrade(grade)
	q := float64(MaxGrade - grade)

	ease := d.Ease
	if ease < MinEase {
		ease = MinEase
	}
	ease = math.Max(MinEase, ease+(0.1-q*(0.08+q*0.02)))

	repetition := 0
	if grade >= sm.passThreshold() {
		repetition = d.Repetition + 1
	}

	var interval int
	switch {
	case repetition <= 1:
		interval = 1
	case repetition == 2:
		interval = 6
	default:
		prev := d.Interval
		if prev < 1 {
			prev = 1
		}
		interval = int(math.Round(float64(prev) * ease))
	}
	if sm.MaxInterval > 0 && interval > sm.MaxInterval {
		interval = sm.MaxInterval
	}
	if interval < 1 {
		interval = 1
	}

	next := d
	next.Ease = ease
	next.Repetition = repetition
	next.Interval = interval
	next.LastGrade = grade
	next.LastReview = calendar.Shift(now, 0)
	next.Due = calendar.Shift(now, interval)
	next.ReviewCount = d.ReviewCount + 1
	return next
}

func (sm *SM2) passThreshold() int {
	if sm.PassThreshold <= 0 {
		return int(QualityCorrectDifficult)
	}
	return sm.PassThreshold
}

func clampGrade(grade int) int {
	if grade < MinGrade {
		return MinGrade
	}
	if grade > MaxGrade {
		return MaxGrade
	}
	return grade
}

// IsDue reports whether the drill is reviewable on the local day of asOf.
func IsDue(d models.Drill, asOf time.Time) bool {
	return d.Due <= calendar.Shift(asOf, 0)
}

// NextDue returns up to limit drills due on the local day of asOf, by priority:
// never reviewed first, then lowest ease (hardest), then most overdue.
// A limit of 0 or less returns all due drills.
func NextDue(drills []models.Drill, asOf time.Time, limit int) []models.Drill {
	var due []models.Drill
	for _, d := range drills {
		if IsDue(d, asOf) {
			due = append(due, d)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		newI, newJ := due[i].ReviewCount == 0, due[j].ReviewCount == 0
		if newI != newJ {
			return newI
		}
		if due[i].Ease != due[j].Ease {
			return due[i].Ease < due[j].Ease
		}
		return due[i].Due < due[j].Due
	})

	if limit > 0 && len(due) > limit {
		return due[:limit]
	}
	return due
}

// IsMastered determines if a drill is considered learned: at least five
// consecutive successful recalls, a strong last grade and a month-long interval.
func IsMastered(d models.Drill) bool {
	return d.Repetition >= 5 &&
		d.LastGrade >= int(QualityCorrectHesitation) &&
		d.Interval >= 30
}
