package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ieltsprep/pkg/models"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestCompleteTodayFirstActivity(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	got := CompleteToday(models.StreakState{UserID: 7}, time.UTC, now)
	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 1, got.LongestStreak)
	assert.Equal(t, "2025-06-15", got.LastDayKey)
	assert.Equal(t, int64(7), got.UserID)
}

func TestCompleteTodayIdempotentSameDay(t *testing.T) {
	tz := mustLoad(t, "Asia/Karachi")
	s := models.StreakState{CurrentStreak: 3, LongestStreak: 4, LastDayKey: "2025-06-14"}
	now := time.Date(2025, 6, 15, 4, 0, 0, 0, time.UTC)

	once := CompleteToday(s, tz, now)
	twice := CompleteToday(once, tz, now)
	later := CompleteToday(once, tz, now.Add(10*time.Hour))

	assert.Equal(t, once, twice)
	assert.Equal(t, once, later)
	assert.Equal(t, 4, once.CurrentStreak)
}

func TestCompleteTodayConsecutiveDay(t *testing.T) {
	for _, n := range []int{1, 2, 10, 99} {
		s := models.StreakState{CurrentStreak: n, LongestStreak: n, LastDayKey: "2025-06-14"}
		got := CompleteToday(s, time.UTC, time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC))
		assert.Equal(t, n+1, got.CurrentStreak)
		assert.Equal(t, n+1, got.LongestStreak)
		assert.Equal(t, "2025-06-15", got.LastDayKey)
	}
}

func TestCompleteTodayGapResets(t *testing.T) {
	s := models.StreakState{CurrentStreak: 5, LongestStreak: 8, LastDayKey: "2025-06-12"}
	got := CompleteToday(s, time.UTC, time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 8, got.LongestStreak)
	assert.Equal(t, "2025-06-15", got.LastDayKey)
}

func TestCompleteTodayDoesNotMutateInput(t *testing.T) {
	s := models.StreakState{CurrentStreak: 2, LastDayKey: "2025-06-14"}
	before := s
	_ = CompleteToday(s, time.UTC, time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, before, s)
}

func TestCompleteTodayLocalCalendarNotElapsedHours(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")

	// Late evening local, then two hours later by the clock: a new local day.
	first := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC) // 23:00 on the 14th in LA
	s := CompleteToday(models.StreakState{}, la, first)
	require.Equal(t, "2025-06-14", s.LastDayKey)
	got := CompleteToday(s, la, first.Add(2*time.Hour))
	assert.Equal(t, 2, got.CurrentStreak)
	assert.Equal(t, "2025-06-15", got.LastDayKey)

	// Early morning local, then 47 hours later: still only the next local day.
	early := time.Date(2025, 6, 14, 7, 30, 0, 0, time.UTC) // 00:30 on the 14th in LA
	s = CompleteToday(models.StreakState{}, la, early)
	got = CompleteToday(s, la, early.Add(47*time.Hour))
	assert.Equal(t, 2, got.CurrentStreak)

	// Two timestamps on different UTC days but the same local day are a no-op.
	lateLocal := time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC) // 16:00 on the 14th in LA
	a := CompleteToday(models.StreakState{}, la, lateLocal)
	b := CompleteToday(a, la, first)
	assert.Equal(t, a, b)
}

func TestCompleteTodayNilLocation(t *testing.T) {
	got := CompleteToday(models.StreakState{}, nil, time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-06-15", got.LastDayKey)
}

func TestCompleteTodayAcrossDST(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	s := models.StreakState{CurrentStreak: 4, LongestStreak: 4, LastDayKey: "2025-03-09"}
	// Just after midnight following the 23 hour day.
	got := CompleteToday(s, ny, time.Date(2025, 3, 10, 0, 30, 0, 0, ny))
	assert.Equal(t, 5, got.CurrentStreak)
}

func TestCurrent(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		s    models.StreakState
		want int
	}{
		{"never active", models.StreakState{}, 0},
		{"active today", models.StreakState{CurrentStreak: 3, LastDayKey: "2025-06-15"}, 3},
		{"active yesterday", models.StreakState{CurrentStreak: 3, LastDayKey: "2025-06-14"}, 3},
		{"broken", models.StreakState{CurrentStreak: 3, LastDayKey: "2025-06-13"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Current(tt.s, time.UTC, now))
		})
	}
}

func TestAtRisk(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.True(t, AtRisk(models.StreakState{CurrentStreak: 2, LastDayKey: "2025-06-14"}, time.UTC, now))
	assert.False(t, AtRisk(models.StreakState{CurrentStreak: 2, LastDayKey: "2025-06-15"}, time.UTC, now))
	assert.False(t, AtRisk(models.StreakState{}, time.UTC, now))
}
