package bot

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/ieltsprep/internal/progress"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// sender is the part of tgbotapi.BotAPI the bot talks through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ReminderTrigger forces a reminder for one user; scheduler.Scheduler satisfies it.
type ReminderTrigger interface {
	RunManualCheck(ctx context.Context, userID int64) error
}

// Bot represents the Telegram bot application
type Bot struct {
	api          sender
	botAPI       *tgbotapi.BotAPI
	token        string
	service      *progress.Service
	reminders    ReminderTrigger
	adminUserIDs map[int64]bool
	config       *BotConfig
}

// New creates a new bot instance
func New(token string, service *progress.Service, adminIDs []int64) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if service == nil {
		return nil, fmt.Errorf("progress service is required")
	}

	bot := &Bot{
		token:        token,
		service:      service,
		adminUserIDs: make(map[int64]bool),
		config:       DefaultConfig(),
	}
	for _, id := range adminIDs {
		bot.adminUserIDs[id] = true
	}
	return bot, nil
}

// SetReminderTrigger enables the admin /remind command.
func (b *Bot) SetReminderTrigger(t ReminderTrigger) {
	b.reminders = t
}

// Connect authorizes against the Telegram API. Start calls it when needed.
func (b *Bot) Connect() error {
	if b.api != nil {
		return nil
	}
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.botAPI = botAPI
	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)
	return nil
}

// Start receives updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.Connect(); err != nil {
		return err
	}
	if b.botAPI == nil {
		return fmt.Errorf("bot is not connected to Telegram")
	}

	// Set up the update configuration
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout

	updates := b.botAPI.GetUpdatesChan(updateConfig)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop(_ context.Context) error {
	if b.botAPI != nil {
		b.botAPI.StopReceivingUpdates()
	}
	log.Println("Bot stopped")
	return nil
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(userID int64, r progress.Reminder) error {
	// In private chats the Telegram user ID is the chat ID
	chatID := userID

	msg := tgbotapi.NewMessage(chatID, reminderText(r))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🎯 Review now", CallbackData: callbackReview}},
	})
	_, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Error sending reminder to user %d: %v", userID, err)
	} else {
		log.Printf("Successfully sent reminder to user %d for %d drills", userID, r.DueCount)
	}
	return err
}

func reminderText(r progress.Reminder) string {
	text := fmt.Sprintf("📚 You have %d %s due for review.", r.DueCount, plural(r.DueCount, "drill", "drills"))
	if r.TodayTarget > 0 {
		text += fmt.Sprintf("\n🎯 Today's target: %d tasks.", r.TodayTarget)
	}
	if r.AtRisk {
		text += fmt.Sprintf("\n🔥 Keep your %d-day streak alive, study today!", r.Streak)
	}
	return text
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		err = b.reply(update.Message.Chat.ID, "I don't understand. Use /help to see what I can do.", true)
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		log.Printf("Error handling update %d: %v", update.UpdateID, err)
	}
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Review", CallbackData: callbackReview},
			{Text: "🔥 Streak", CallbackData: callbackStreak},
		},
		{
			{Text: "🗓 Plan", CallbackData: callbackPlan},
		},
	}
}

func (b *Bot) reply(chatID int64, text string, withMenu bool) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if withMenu {
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	}
	_, err := b.api.Send(msg)
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
