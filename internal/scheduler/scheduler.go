package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/pkg/models"
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *progress.Service
	notifier  Notifier
	now       func() time.Time
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(userID int64, reminder progress.Reminder) error
}

// New creates a new scheduler instance
func New(service *progress.Service, notifier Notifier) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	// Users pick whole local hours, so run at the top of every hour.
	_, err := s.scheduler.Every(1).Hour().StartAt(nextHour(s.now())).Do(func() {
		s.Tick(ctx, s.now())
	})
	if err != nil {
		return err
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Tick sends reminders to every user whose local hour at now is their
// notification hour. It returns the number of reminders sent.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	users, err := s.service.NotifiableUsers(ctx)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return 0
	}

	sent := 0
	for _, user := range users {
		if ctx.Err() != nil {
			return sent
		}
		if !dueAt(s.service, user, now) {
			continue
		}
		ok, err := s.remind(ctx, user)
		if err != nil {
			log.Printf("Error sending reminder to user %d: %v", user.ID, err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent
}

// RunManualCheck forces a reminder for a specific user regardless of the hour
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	user, err := s.service.User(ctx, userID)
	if err != nil {
		return err
	}
	_, err = s.remind(ctx, *user)
	return err
}

// remind skips users with nothing to review who already studied today.
func (s *Scheduler) remind(ctx context.Context, user models.User) (bool, error) {
	r, err := s.service.Reminder(ctx, user)
	if err != nil {
		return false, err
	}
	if r.DueCount == 0 && !r.AtRisk && r.Streak > 0 {
		return false, nil
	}
	if err := s.notifier.SendReminders(user.ID, r); err != nil {
		return false, err
	}
	return true, nil
}

func dueAt(service *progress.Service, user models.User, now time.Time) bool {
	return now.In(service.Location(user)).Hour() == user.NotificationHour
}

func nextHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}
