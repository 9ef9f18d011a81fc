package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/progress"
)

// 20:00 in Karachi, 16:00 in London.
var t0 = time.Date(2025, 6, 15, 15, 0, 0, 0, time.UTC)

type sentReminder struct {
	userID   int64
	reminder progress.Reminder
}

type recordingNotifier struct {
	sent []sentReminder
	err  error
}

func (n *recordingNotifier) SendReminders(userID int64, r progress.Reminder) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentReminder{userID, r})
	return nil
}

func newService(t *testing.T) *progress.Service {
	t.Helper()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return progress.NewService(progress.Options{
		Users:              database.NewUserRepository(db),
		Drills:             database.NewDrillRepository(db),
		Streaks:            database.NewStreakRepository(db),
		Attempts:           database.NewAttemptRepository(db),
		DefaultDailyTarget: 10,
		Now:                func() time.Time { return t0 },
	})
}

func addUser(t *testing.T, svc *progress.Service, id int64, tz string, hour int, enabled bool) {
	t.Helper()
	_, err := svc.UpdateSettings(context.Background(), id, progress.Settings{
		Timezone:            &tz,
		NotificationHour:    &hour,
		NotificationEnabled: &enabled,
	})
	require.NoError(t, err)
}

func TestTickUsesLocalHour(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	addUser(t, svc, 1, "Asia/Karachi", 20, true)
	addUser(t, svc, 2, "UTC", 20, true)
	addUser(t, svc, 3, "Asia/Karachi", 20, false)
	addUser(t, svc, 4, "Europe/London", 16, true)

	_, err := svc.AddDrill(ctx, 1, progress.NewDrill{Prompt: "paraphrase the question"})
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	s := New(svc, notifier)

	sent := s.Tick(ctx, t0)
	assert.Equal(t, 2, sent)
	require.Len(t, notifier.sent, 2)

	assert.Equal(t, int64(1), notifier.sent[0].userID)
	assert.Equal(t, 1, notifier.sent[0].reminder.DueCount)
	assert.Equal(t, 0, notifier.sent[0].reminder.Streak)
	// A week without attempts doubles the daily target.
	assert.Equal(t, 20, notifier.sent[0].reminder.TodayTarget)

	assert.Equal(t, int64(4), notifier.sent[1].userID)
	assert.Equal(t, 0, notifier.sent[1].reminder.DueCount)
}

func TestTickSkipsUsersDoneForToday(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	addUser(t, svc, 1, "Asia/Karachi", 20, true)

	_, err := svc.CompleteToday(ctx, 1)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	assert.Equal(t, 0, New(svc, notifier).Tick(ctx, t0))
	assert.Empty(t, notifier.sent)
}

func TestTickContinuesAfterSendError(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	addUser(t, svc, 1, "UTC", 15, true)
	addUser(t, svc, 2, "UTC", 15, true)

	notifier := &recordingNotifier{err: errors.New("blocked by user")}
	assert.Equal(t, 0, New(svc, notifier).Tick(ctx, t0))
}

func TestTickStopsOnCancelledContext(t *testing.T) {
	svc := newService(t)
	addUser(t, svc, 1, "UTC", 15, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	notifier := &recordingNotifier{}
	assert.Equal(t, 0, New(svc, notifier).Tick(ctx, t0))
}

func TestRunManualCheck(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	addUser(t, svc, 2, "UTC", 3, true)

	notifier := &recordingNotifier{}
	s := New(svc, notifier)
	require.NoError(t, s.RunManualCheck(ctx, 2))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(2), notifier.sent[0].userID)

	err := s.RunManualCheck(ctx, 99)
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestNextHour(t *testing.T) {
	got := nextHour(time.Date(2025, 6, 15, 15, 42, 10, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 6, 15, 16, 0, 0, 0, time.UTC), got)
}
