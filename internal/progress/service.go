// Package progress runs the read-modify-write cycles around the pure
// scheduling core: it loads state from the stores, applies the spaced
// repetition, streak and study plan transitions, and persists the results.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/ieltsprep/internal/calendar"
	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/spaced_repetition"
	"github.com/example/ieltsprep/internal/streak"
	"github.com/example/ieltsprep/internal/studyplan"
	"github.com/example/ieltsprep/pkg/models"
)

// maxSaveAttempts bounds the compare-and-swap loop of CompleteToday.
const maxSaveAttempts = 5

// UserStore is the persistence contract for learners.
type UserStore interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	ListNotifiable(ctx context.Context) ([]models.User, error)
}

// DrillStore is the persistence contract for drills.
type DrillStore interface {
	Get(ctx context.Context, userID int64, id string) (*models.Drill, error)
	Upsert(ctx context.Context, drill *models.Drill) error
	ListDue(ctx context.Context, userID int64, asOfDay string) ([]models.Drill, error)
	CountDue(ctx context.Context, userID int64, asOfDay string) (int, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Drill, error)
}

// StreakStore persists streaks with a compare-and-swap on StreakState.Version.
// Save returns database.ErrConflict when the stored version moved on.
type StreakStore interface {
	Get(ctx context.Context, userID int64) (models.StreakState, error)
	Save(ctx context.Context, state models.StreakState) (models.StreakState, error)
}

// AttemptStore keeps per-day completed task tallies.
type AttemptStore interface {
	Increment(ctx context.Context, userID int64, day string, n int) error
	History(ctx context.Context, userID int64, fromDay, toDay string) ([]models.AttemptCount, error)
	Total(ctx context.Context, userID int64) (int, error)
}

// Options configures a Service.
type Options struct {
	Users    UserStore
	Drills   DrillStore
	Streaks  StreakStore
	Attempts AttemptStore
	// Scheduler defaults to spaced_repetition.NewSM2()
	Scheduler *spaced_repetition.SM2
	// Defaults applied to users that have not chosen their own
	DefaultTimezone    string
	DefaultDailyTarget int
	// Now defaults to time.Now
	Now func() time.Time
}

// Service exposes the learner-facing progress operations.
type Service struct {
	users    UserStore
	drills   DrillStore
	streaks  StreakStore
	attempts AttemptStore
	sm2      *spaced_repetition.SM2

	defaultTimezone    string
	defaultDailyTarget int
	now                func() time.Time
}

// NewService creates a Service from opts.
func NewService(opts Options) *Service {
	s := &Service{
		users:              opts.Users,
		drills:             opts.Drills,
		streaks:            opts.Streaks,
		attempts:           opts.Attempts,
		sm2:                opts.Scheduler,
		defaultTimezone:    opts.DefaultTimezone,
		defaultDailyTarget: opts.DefaultDailyTarget,
		now:                opts.Now,
	}
	if s.sm2 == nil {
		s.sm2 = spaced_repetition.NewSM2()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.defaultTimezone == "" {
		s.defaultTimezone = "UTC"
	}
	if s.defaultDailyTarget < 1 {
		s.defaultDailyTarget = 10
	}
	return s
}

// Settings are the user-adjustable parameters. Nil fields are left unchanged.
type Settings struct {
	Username            *string
	FirstName           *string
	Timezone            *string
	DailyTarget         *int
	GoalTotal           *int
	NotificationEnabled *bool
	NotificationHour    *int
}

// NewDrill is the content of a drill to create.
type NewDrill struct {
	Module models.Module
	Prompt string
	Answer string
	Notes  string
}

// GradeResult is the outcome of grading one review.
type GradeResult struct {
	Drill    models.Drill       `json:"drill"`
	Streak   models.StreakState `json:"streak"`
	Mastered bool               `json:"mastered"`
}

// StreakView is a stored streak plus the count to display today.
type StreakView struct {
	models.StreakState
	Display int  `json:"display"`
	AtRisk  bool `json:"at_risk"`
}

// User returns the user, or an error matching ErrUnknownUser.
func (s *Service) User(ctx context.Context, userID int64) (*models.User, error) {
	return s.user(ctx, userID)
}

func (s *Service) user(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrUnknownUser, err)
	}
	return user, err
}

// RegisterUser creates the user if it does not exist yet and returns the stored record.
// Existing users are returned unchanged.
func (s *Service) RegisterUser(ctx context.Context, userID int64, username, firstName string) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		ID:                  userID,
		Username:            username,
		FirstName:           firstName,
		Timezone:            s.defaultTimezone,
		DailyTarget:         s.defaultDailyTarget,
		NotificationEnabled: true,
		NotificationHour:    9,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("Registered user %d (%s)", userID, username)
	return user, nil
}

// UpdateSettings applies settings to the user, creating it first if needed.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, settings Settings) (*models.User, error) {
	user, err := s.RegisterUser(ctx, userID, "", "")
	if err != nil {
		return nil, err
	}

	var fields []FieldError
	if settings.Username != nil {
		user.Username = *settings.Username
	}
	if settings.FirstName != nil {
		user.FirstName = *settings.FirstName
	}
	if settings.Timezone != nil {
		tz := strings.TrimSpace(*settings.Timezone)
		if !calendar.ValidTimezone(tz) {
			fields = append(fields, FieldError{Field: "timezone", Error: "unknown IANA timezone"})
		} else {
			user.Timezone = tz
		}
	}
	if settings.DailyTarget != nil {
		if *settings.DailyTarget < 1 {
			fields = append(fields, FieldError{Field: "daily_target", Error: "must be at least 1"})
		} else {
			user.DailyTarget = *settings.DailyTarget
		}
	}
	if settings.GoalTotal != nil {
		if *settings.GoalTotal < 0 {
			fields = append(fields, FieldError{Field: "goal_total", Error: "must not be negative"})
		} else {
			user.GoalTotal = *settings.GoalTotal
		}
	}
	if settings.NotificationEnabled != nil {
		user.NotificationEnabled = *settings.NotificationEnabled
	}
	if settings.NotificationHour != nil {
		if *settings.NotificationHour < 0 || *settings.NotificationHour > 23 {
			fields = append(fields, FieldError{Field: "notification_hour", Error: "must be between 0 and 23"})
		} else {
			user.NotificationHour = *settings.NotificationHour
		}
	}
	if len(fields) > 0 {
		return nil, NewValidationError(errors.New("invalid settings"), fields...)
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddDrill creates a drill for the user, due today.
func (s *Service) AddDrill(ctx context.Context, userID int64, nd NewDrill) (models.Drill, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return models.Drill{}, err
	}
	if strings.TrimSpace(nd.Prompt) == "" {
		return models.Drill{}, NewValidationError(errors.New("invalid drill"), FieldError{Field: "prompt", Error: "required"})
	}
	if nd.Module == "" {
		nd.Module = models.ModuleVocabulary
	}

	drill := spaced_repetition.NewDrill(uuid.NewString(), userID, s.localNow(user))
	drill.Module = nd.Module
	drill.Prompt = strings.TrimSpace(nd.Prompt)
	drill.Answer = strings.TrimSpace(nd.Answer)
	drill.Notes = strings.TrimSpace(nd.Notes)

	if err := s.drills.Upsert(ctx, &drill); err != nil {
		return models.Drill{}, err
	}
	return drill, nil
}

// DueDrills returns up to limit drills due today in the user's timezone, in review order.
func (s *Service) DueDrills(ctx context.Context, userID int64, limit int) ([]models.Drill, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.localNow(user)
	drills, err := s.drills.ListDue(ctx, userID, calendar.Shift(now, 0))
	if err != nil {
		return nil, err
	}
	return spaced_repetition.NextDue(drills, now, limit), nil
}

// Drills returns every drill of the user, oldest first.
func (s *Service) Drills(ctx context.Context, userID int64) ([]models.Drill, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.drills.ListByUser(ctx, userID)
}

// CountDue returns how many drills are due today for the user.
func (s *Service) CountDue(ctx context.Context, user models.User) (int, error) {
	return s.drills.CountDue(ctx, user.ID, calendar.Shift(s.localNow(&user), 0))
}

// GradeDrill records a review: the drill is rescheduled, today's tally goes
// up by one and the streak is completed for today.
func (s *Service) GradeDrill(ctx context.Context, userID int64, drillID string, grade int) (GradeResult, error) {
	if err := spaced_repetition.ValidateGrade(grade); err != nil {
		return GradeResult{}, NewValidationError(err, FieldError{Field: "grade", Error: "must be between 0 and 5"})
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return GradeResult{}, err
	}
	drill, err := s.drills.Get(ctx, userID, drillID)
	if errors.Is(err, database.ErrNotFound) {
		return GradeResult{}, fmt.Errorf("%w: %w", ErrUnknownDrill, err)
	}
	if err != nil {
		return GradeResult{}, err
	}

	now := s.localNow(user)
	next := s.sm2.Schedule(*drill, grade, now)
	if err := s.drills.Upsert(ctx, &next); err != nil {
		return GradeResult{}, err
	}
	if err := s.attempts.Increment(ctx, userID, calendar.Shift(now, 0), 1); err != nil {
		return GradeResult{}, err
	}

	st, err := s.completeToday(ctx, user, now)
	if err != nil {
		return GradeResult{}, err
	}
	return GradeResult{Drill: next, Streak: st, Mastered: spaced_repetition.IsMastered(next)}, nil
}

// CompleteToday marks today as active for the user's streak.
func (s *Service) CompleteToday(ctx context.Context, userID int64) (models.StreakState, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return models.StreakState{}, err
	}
	return s.completeToday(ctx, user, s.now())
}

// completeToday reloads and retries when a concurrent writer saved first, so
// two completions on the same day count once. Every attempt uses the same now.
func (s *Service) completeToday(ctx context.Context, user *models.User, now time.Time) (models.StreakState, error) {
	loc := s.location(user)
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		current, err := s.streaks.Get(ctx, user.ID)
		if err != nil {
			return models.StreakState{}, err
		}
		current.UserID = user.ID

		next := streak.CompleteToday(current, loc, now)
		if next == current {
			return current, nil
		}

		saved, err := s.streaks.Save(ctx, next)
		if errors.Is(err, database.ErrConflict) {
			continue
		}
		if err != nil {
			return models.StreakState{}, err
		}
		return saved, nil
	}
	return models.StreakState{}, fmt.Errorf("completing streak of user %d: %w", user.ID, database.ErrConflict)
}

// Streak returns the stored streak with today's display value.
func (s *Service) Streak(ctx context.Context, userID int64) (StreakView, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return StreakView{}, err
	}
	st, err := s.streaks.Get(ctx, userID)
	if err != nil {
		return StreakView{}, err
	}
	loc := s.location(user)
	now := s.now()
	return StreakView{
		StreakState: st,
		Display:     streak.Current(st, loc, now),
		AtRisk:      streak.AtRisk(st, loc, now),
	}, nil
}

// Plan computes the recovery plan and goal ETA from the last 7 local days.
func (s *Service) Plan(ctx context.Context, userID int64) (models.PlanResult, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return models.PlanResult{}, err
	}
	now := s.localNow(user)

	stored, err := s.attempts.History(ctx, userID, calendar.Shift(now, -studyplan.PlanDays), calendar.Shift(now, -1))
	if err != nil {
		return models.PlanResult{}, err
	}
	total, err := s.attempts.Total(ctx, userID)
	if err != nil {
		return models.PlanResult{}, err
	}

	history := studyplan.Window(stored, now, studyplan.PlanDays)
	return studyplan.Analyze(history, s.dailyTarget(user), user.GoalTotal, total, now), nil
}

// Reminder is the daily nudge content for one user.
type Reminder struct {
	DueCount    int
	Streak      int
	AtRisk      bool
	TodayTarget int
}

// NotifiableUsers lists users with reminders switched on.
func (s *Service) NotifiableUsers(ctx context.Context) ([]models.User, error) {
	return s.users.ListNotifiable(ctx)
}

// Reminder builds the reminder for user as of now.
func (s *Service) Reminder(ctx context.Context, user models.User) (Reminder, error) {
	due, err := s.CountDue(ctx, user)
	if err != nil {
		return Reminder{}, err
	}
	view, err := s.Streak(ctx, user.ID)
	if err != nil {
		return Reminder{}, err
	}
	plan, err := s.Plan(ctx, user.ID)
	if err != nil {
		return Reminder{}, err
	}

	r := Reminder{DueCount: due, Streak: view.Display, AtRisk: view.AtRisk}
	if len(plan.Next7) > 0 {
		r.TodayTarget = plan.Next7[0].Target
	}
	return r, nil
}

// Location returns the user's timezone, falling back to the default.
func (s *Service) Location(user models.User) *time.Location {
	return s.location(&user)
}

func (s *Service) localNow(user *models.User) time.Time {
	return s.now().In(s.location(user))
}

func (s *Service) location(user *models.User) *time.Location {
	if user.Timezone == "" {
		return calendar.Location(s.defaultTimezone)
	}
	return calendar.Location(user.Timezone)
}

func (s *Service) dailyTarget(user *models.User) int {
	if user.DailyTarget < 1 {
		return s.defaultDailyTarget
	}
	return user.DailyTarget
}
