package spaced_repetition

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ieltsprep/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func seed() models.Drill {
	return NewDrill("d1", 42, t0)
}

func TestNewDrill(t *testing.T) {
	d := seed()
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, int64(42), d.UserID)
	assert.Equal(t, 1, d.Interval)
	assert.Equal(t, 0, d.Repetition)
	assert.Equal(t, DefaultEase, d.Ease)
	assert.Equal(t, "2025-06-15", d.Due)
	assert.True(t, IsDue(d, t0))
}

func TestEaseFloor(t *testing.T) {
	sm := NewSM2()
	for grade := MinGrade; grade <= MaxGrade; grade++ {
		for _, ease := range []float64{1.3, 1.31, 1.5, 2.5, 3.0} {
			d := seed()
			d.Ease = ease
			d.Repetition = 4
			d.Interval = 20
			got := sm.Schedule(d, grade, t0)
			assert.GreaterOrEqual(t, got.Ease, MinEase, "grade=%d ease=%v", grade, ease)
			assert.GreaterOrEqual(t, got.Interval, 1, "grade=%d ease=%v", grade, ease)
		}
	}
}

func TestEaseAdjustment(t *testing.T) {
	sm := NewSM2()
	tests := []struct {
		grade int
		delta float64
	}{
		{5, 0.1},
		{4, 0.0},
		{3, -0.14},
		{2, -0.32},
		{1, -0.54},
		{0, -0.8},
	}
	for _, tt := range tests {
		got := sm.Schedule(seed(), tt.grade, t0)
		assert.InDelta(t, math.Max(MinEase, DefaultEase+tt.delta), got.Ease, 1e-9, "grade=%d", tt.grade)
	}
}

func TestIntervalRamp(t *testing.T) {
	sm := NewSM2()
	d := seed()

	d = sm.Schedule(d, 5, t0)
	assert.Equal(t, 1, d.Interval)
	assert.Equal(t, 1, d.Repetition)
	assert.Equal(t, "2025-06-16", d.Due)

	d = sm.Schedule(d, 5, t0)
	assert.Equal(t, 6, d.Interval)
	assert.Equal(t, 2, d.Repetition)
	assert.Equal(t, "2025-06-21", d.Due)

	d = sm.Schedule(d, 5, t0)
	assert.Equal(t, 3, d.Repetition)
	assert.InDelta(t, 2.8, d.Ease, 1e-9)
	assert.Equal(t, int(math.Round(6*d.Ease)), d.Interval)
	assert.Equal(t, 17, d.Interval)
	assert.Equal(t, "2025-07-02", d.Due)
}

func TestForgettingResetsRepetition(t *testing.T) {
	sm := NewSM2()
	for _, rep := range []int{1, 2, 5, 12} {
		d := seed()
		d.Repetition = rep
		d.Interval = 40
		got := sm.Schedule(d, 2, t0)
		assert.Equal(t, 0, got.Repetition)
		assert.Equal(t, 1, got.Interval)
		assert.Equal(t, "2025-06-16", got.Due)
	}
}

func TestScheduleDoesNotMutateInput(t *testing.T) {
	sm := NewSM2()
	d := seed()
	before := d
	_ = sm.Schedule(d, 5, t0)
	assert.Equal(t, before, d)
}

func TestScheduleClampsGrade(t *testing.T) {
	sm := NewSM2()
	assert.Equal(t, sm.Schedule(seed(), 5, t0), sm.Schedule(seed(), 9, t0))
	assert.Equal(t, sm.Schedule(seed(), 0, t0), sm.Schedule(seed(), -3, t0))
}

func TestScheduleRecordsReview(t *testing.T) {
	sm := NewSM2()
	got := sm.Schedule(seed(), 4, t0)
	assert.Equal(t, 4, got.LastGrade)
	assert.Equal(t, "2025-06-15", got.LastReview)
	assert.Equal(t, 1, got.ReviewCount)
}

func TestScheduleUsesLocalDay(t *testing.T) {
	sm := NewSM2()
	karachi, err := time.LoadLocation("Asia/Karachi")
	require.NoError(t, err)
	// 22:00 UTC is already the next day in Karachi.
	now := time.Date(2025, 6, 15, 22, 0, 0, 0, time.UTC).In(karachi)
	got := sm.Schedule(seed(), 5, now)
	assert.Equal(t, "2025-06-17", got.Due)
}

func TestMaxInterval(t *testing.T) {
	sm := &SM2{MaxInterval: 30}
	d := seed()
	d.Repetition = 6
	d.Interval = 100
	got := sm.Schedule(d, 5, t0)
	assert.Equal(t, 30, got.Interval)
}

func TestValidateGrade(t *testing.T) {
	for g := 0; g <= 5; g++ {
		assert.NoError(t, ValidateGrade(g))
	}
	for _, g := range []int{-1, 6, 100} {
		err := ValidateGrade(g)
		assert.True(t, errors.Is(err, ErrInvalidGrade), "grade %d", g)
	}
}

func TestIsDue(t *testing.T) {
	d := seed()
	d.Due = "2025-06-15"
	assert.True(t, IsDue(d, t0))
	assert.True(t, IsDue(d, t0.AddDate(0, 0, 3)))
	assert.False(t, IsDue(d, t0.AddDate(0, 0, -1)))
}

func TestNextDue(t *testing.T) {
	drills := []models.Drill{
		{ID: "future", Due: "2025-06-20", Ease: 1.3, ReviewCount: 3},
		{ID: "easy", Due: "2025-06-10", Ease: 2.8, ReviewCount: 2},
		{ID: "hard", Due: "2025-06-14", Ease: 1.5, ReviewCount: 4},
		{ID: "new", Due: "2025-06-15", Ease: 2.5},
		{ID: "hard-older", Due: "2025-06-01", Ease: 1.5, ReviewCount: 9},
	}

	got := NextDue(drills, t0, 0)
	var ids []string
	for _, d := range got {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"new", "hard-older", "hard", "easy"}, ids)

	assert.Len(t, NextDue(drills, t0, 2), 2)
	assert.Empty(t, NextDue(nil, t0, 5))
}

func TestIsMastered(t *testing.T) {
	d := models.Drill{Repetition: 5, LastGrade: 4, Interval: 30}
	assert.True(t, IsMastered(d))
	d.Interval = 29
	assert.False(t, IsMastered(d))
	d.Interval = 30
	d.LastGrade = 3
	assert.False(t, IsMastered(d))
}
