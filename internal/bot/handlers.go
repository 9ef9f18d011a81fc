package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/ieltsprep/internal/calendar"
	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/pkg/models"
)

// Constants for callback data
const (
	callbackReview = "review"
	callbackStreak = "streak"
	callbackPlan   = "plan"

	callbackGradePrefix  = "grade:"
	callbackAnswerPrefix = "answer:"
)

const helpText = `IELTS practice bot 🎓

/review - review the next due drill
/add prompt | answer | module - add a drill
/drills - list your drills and when they are due
/streak - show your study streak
/plan - show this week's catch-up plan
/timezone Europe/London - set your timezone
/target 15 - set your daily task target
/goal 600 - set the total tasks you aim for
/notify on|off - daily reminders
/time 20 - reminder hour (your local time)
/help - show this message`

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.reply(message.Chat.ID, helpText, true)
	case "review":
		err = b.handleReview(ctx, message.From.ID, message.Chat.ID)
	case "add":
		err = b.handleAdd(ctx, message)
	case "drills":
		err = b.handleListDrills(ctx, message.From.ID, message.Chat.ID)
	case "streak":
		err = b.handleStreak(ctx, message.From.ID, message.Chat.ID)
	case "plan":
		err = b.handlePlan(ctx, message.From.ID, message.Chat.ID)
	case "timezone":
		err = b.handleTimezone(ctx, message)
	case "target":
		err = b.handleNumberSetting(ctx, message, "target", func(n int) progress.Settings { return progress.Settings{DailyTarget: &n} })
	case "goal":
		err = b.handleNumberSetting(ctx, message, "goal", func(n int) progress.Settings { return progress.Settings{GoalTotal: &n} })
	case "time":
		err = b.handleNumberSetting(ctx, message, "reminder hour", func(n int) progress.Settings { return progress.Settings{NotificationHour: &n} })
	case "notify":
		err = b.handleNotify(ctx, message)
	case "remind":
		err = b.handleRemind(ctx, message)
	default:
		err = b.reply(message.Chat.ID, "Unknown command. Use /help to see what I can do.", true)
	}
	return err
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	usr, err := b.service.RegisterUser(ctx, message.From.ID, message.From.UserName, message.From.FirstName)
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	name := usr.FirstName
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("Hi %s! Your timezone is %s and your daily target is %d tasks.\n\n%s",
		name, usr.Timezone, usr.DailyTarget, helpText)
	return b.reply(message.Chat.ID, text, true)
}

func (b *Bot) handleReview(ctx context.Context, userID, chatID int64) error {
	drills, err := b.service.DueDrills(ctx, userID, b.config.ReviewPreview)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(drills) == 0 {
		return b.reply(chatID, "✅ Nothing is due right now. Add drills with /add or come back tomorrow.", true)
	}

	d := drills[0]
	text := fmt.Sprintf("[%s] %s\n\nHow well did you recall it? (0 = blackout, 5 = perfect)", d.Module, d.Prompt)
	if len(drills) > 1 {
		text = fmt.Sprintf("%d due. ", len(drills)) + text
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = gradeKeyboard(d)
	_, err = b.api.Send(msg)
	return err
}

func gradeKeyboard(d models.Drill) tgbotapi.InlineKeyboardMarkup {
	grades := make([]MenuButton, 0, 6)
	for g := 0; g <= 5; g++ {
		grades = append(grades, MenuButton{
			Text:         strconv.Itoa(g),
			CallbackData: fmt.Sprintf("%s%s:%d", callbackGradePrefix, d.ID, g),
		})
	}
	rows := [][]MenuButton{grades}
	if d.Answer != "" {
		rows = append(rows, []MenuButton{{Text: "👀 Show answer", CallbackData: callbackAnswerPrefix + d.ID}})
	}
	return createKeyboard(rows)
}

func (b *Bot) handleAdd(ctx context.Context, message *tgbotapi.Message) error {
	parts := strings.Split(message.CommandArguments(), "|")
	nd := progress.NewDrill{Prompt: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		nd.Answer = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		module := models.Module(strings.ToLower(strings.TrimSpace(parts[2])))
		if !validModule(module) {
			return b.reply(message.Chat.ID, "Unknown module. Use one of: listening, reading, writing, speaking, vocabulary.", false)
		}
		nd.Module = module
	}
	if nd.Prompt == "" {
		return b.reply(message.Chat.ID, "Usage: /add prompt | answer | module", false)
	}

	if _, err := b.service.RegisterUser(ctx, message.From.ID, message.From.UserName, message.From.FirstName); err != nil {
		return err
	}
	d, err := b.service.AddDrill(ctx, message.From.ID, nd)
	if err != nil {
		return b.replyError(message.Chat.ID, err)
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("➕ Added a %s drill, due %s.", d.Module, d.Due), false)
}

func (b *Bot) handleListDrills(ctx context.Context, userID, chatID int64) error {
	drills, err := b.service.Drills(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(drills) == 0 {
		return b.reply(chatID, "You have no drills yet. Add one with /add.", true)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 %d %s\n", len(drills), plural(len(drills), "drill", "drills"))
	for i, d := range drills {
		if i == b.config.ListLimit {
			fmt.Fprintf(&sb, "…and %d more", len(drills)-i)
			break
		}
		fmt.Fprintf(&sb, "[%s] %s, due %s\n", d.Module, d.Prompt, d.Due)
	}
	return b.reply(chatID, strings.TrimRight(sb.String(), "\n"), true)
}

func validModule(m models.Module) bool {
	for _, known := range models.Modules {
		if m == known {
			return true
		}
	}
	return false
}

func (b *Bot) handleStreak(ctx context.Context, userID, chatID int64) error {
	view, err := b.service.Streak(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}

	var text string
	switch {
	case view.Display == 0:
		text = "No active streak. Complete a review today to start one!"
	case view.AtRisk:
		text = fmt.Sprintf("🔥 %d-day streak. Study today to keep it going!", view.Display)
	default:
		text = fmt.Sprintf("🔥 %d-day streak. Done for today!", view.Display)
	}
	text += fmt.Sprintf("\n🏆 Longest: %d days", view.LongestStreak)
	return b.reply(chatID, text, true)
}

func (b *Bot) handlePlan(ctx context.Context, userID, chatID int64) error {
	plan, err := b.service.Plan(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 Plan (base %d/day, %d/week)\n", plan.DailyTarget, plan.WeeklyTarget)
	for _, day := range plan.Next7 {
		fmt.Fprintf(&sb, "%s: %d\n", day.Date, day.Target)
	}
	if plan.ETA != nil {
		fmt.Fprintf(&sb, "\n🎯 At your recent pace you reach your goal on %s", *plan.ETA)
		if len(plan.Next7) > 0 {
			if days, err := calendar.DaysBetween(plan.Next7[0].Date, *plan.ETA); err == nil {
				fmt.Fprintf(&sb, " (%d %s away)", days, plural(days, "day", "days"))
			}
		}
		sb.WriteString(".")
	} else {
		sb.WriteString("\n🎯 No recent activity, so no goal date yet.")
	}
	return b.reply(chatID, sb.String(), true)
}

func (b *Bot) handleTimezone(ctx context.Context, message *tgbotapi.Message) error {
	tz := strings.TrimSpace(message.CommandArguments())
	if tz == "" {
		return b.reply(message.Chat.ID, "Usage: /timezone Area/City, for example /timezone Asia/Karachi", false)
	}
	usr, err := b.service.UpdateSettings(ctx, message.From.ID, progress.Settings{Timezone: &tz})
	if err != nil {
		return b.replyError(message.Chat.ID, err)
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("🌍 Timezone set to %s.", usr.Timezone), false)
}

func (b *Bot) handleNumberSetting(ctx context.Context, message *tgbotapi.Message, name string, settings func(int) progress.Settings) error {
	n, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil {
		return b.reply(message.Chat.ID, fmt.Sprintf("Please give the %s as a whole number, e.g. /%s 10", name, message.Command()), false)
	}
	if _, err := b.service.UpdateSettings(ctx, message.From.ID, settings(n)); err != nil {
		return b.replyError(message.Chat.ID, err)
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("✅ %s set to %d.", strings.ToUpper(name[:1])+name[1:], n), false)
}

func (b *Bot) handleNotify(ctx context.Context, message *tgbotapi.Message) error {
	var enabled bool
	switch strings.ToLower(strings.TrimSpace(message.CommandArguments())) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return b.reply(message.Chat.ID, "Usage: /notify on or /notify off", false)
	}
	if _, err := b.service.UpdateSettings(ctx, message.From.ID, progress.Settings{NotificationEnabled: &enabled}); err != nil {
		return b.replyError(message.Chat.ID, err)
	}
	return b.reply(message.Chat.ID, "🔔 Reminders "+boolToEnabledString(enabled)+".", false)
}

// handleRemind is admin only: /remind <userID> sends that user's reminder now.
func (b *Bot) handleRemind(ctx context.Context, message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) || b.reminders == nil {
		return b.reply(message.Chat.ID, "This command is only available for administrators.", false)
	}
	target := message.From.ID
	if arg := strings.TrimSpace(message.CommandArguments()); arg != "" {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return b.reply(message.Chat.ID, "Usage: /remind <user id>", false)
		}
		target = id
	}
	if err := b.reminders.RunManualCheck(ctx, target); err != nil {
		return b.replyError(message.Chat.ID, err)
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("Reminder check done for %d.", target), false)
}

func boolToEnabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.From == nil || callback.Message == nil || callback.Message.Chat == nil {
		return fmt.Errorf("invalid callback: required fields are missing")
	}
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	// Acknowledge the press so the client stops its spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("Error answering callback: %v", err)
	}

	switch data := callback.Data; {
	case data == callbackReview:
		return b.handleReview(ctx, userID, chatID)
	case data == callbackStreak:
		return b.handleStreak(ctx, userID, chatID)
	case data == callbackPlan:
		return b.handlePlan(ctx, userID, chatID)
	case strings.HasPrefix(data, callbackGradePrefix):
		return b.handleGrade(ctx, userID, chatID, strings.TrimPrefix(data, callbackGradePrefix))
	case strings.HasPrefix(data, callbackAnswerPrefix):
		return b.handleShowAnswer(ctx, userID, chatID, strings.TrimPrefix(data, callbackAnswerPrefix))
	default:
		return b.reply(chatID, "This button has expired.", true)
	}
}

// handleGrade takes "<drillID>:<grade>".
func (b *Bot) handleGrade(ctx context.Context, userID, chatID int64, payload string) error {
	idx := strings.LastIndex(payload, ":")
	if idx <= 0 {
		return fmt.Errorf("malformed grade callback %q", payload)
	}
	grade, err := strconv.Atoi(payload[idx+1:])
	if err != nil {
		return fmt.Errorf("malformed grade callback %q: %w", payload, err)
	}

	res, err := b.service.GradeDrill(ctx, userID, payload[:idx], grade)
	if err != nil {
		return b.replyError(chatID, err)
	}

	text := fmt.Sprintf("Next review on %s (in %d %s). 🔥 Streak: %d",
		res.Drill.Due, res.Drill.Interval, plural(res.Drill.Interval, "day", "days"), res.Streak.CurrentStreak)
	if res.Mastered {
		text = "🏅 Mastered! " + text
	}
	if err := b.reply(chatID, text, false); err != nil {
		return err
	}
	return b.handleReview(ctx, userID, chatID)
}

func (b *Bot) handleShowAnswer(ctx context.Context, userID, chatID int64, drillID string) error {
	drills, err := b.service.DueDrills(ctx, userID, 0)
	if err != nil {
		return b.replyError(chatID, err)
	}
	var d *models.Drill
	for i := range drills {
		if drills[i].ID == drillID {
			d = &drills[i]
			break
		}
	}
	if d == nil {
		return b.reply(chatID, "This drill is no longer due.", false)
	}
	msg := tgbotapi.NewMessage(chatID, "💡 "+d.Answer)
	msg.ReplyMarkup = gradeKeyboard(models.Drill{ID: d.ID})
	_, err = b.api.Send(msg)
	return err
}

// replyError turns service errors into user-facing messages.
func (b *Bot) replyError(chatID int64, err error) error {
	var verr *progress.ValidationError
	switch {
	case errors.As(err, &verr):
		var lines []string
		for _, f := range verr.Fields {
			lines = append(lines, fmt.Sprintf("%s: %s", strings.ReplaceAll(f.Field, "_", " "), f.Error))
		}
		if len(lines) == 0 {
			lines = append(lines, verr.Error())
		}
		return b.reply(chatID, "⚠️ "+strings.Join(lines, "\n"), false)
	case errors.Is(err, progress.ErrUnknownDrill):
		return b.reply(chatID, "That drill no longer exists. Use /review for the next one.", false)
	case errors.Is(err, progress.ErrUnknownUser), errors.Is(err, database.ErrNotFound):
		return b.reply(chatID, "I don't know you yet, send /start first.", false)
	default:
		log.Printf("Error serving chat %d: %v", chatID, err)
		return b.reply(chatID, "Something went wrong, please try again.", false)
	}
}
