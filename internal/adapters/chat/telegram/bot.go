package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shelfbot/shelfbot/internal/application"
	"go.uber.org/zap"
)

// Bot runs the long-poll update loop and translates raw updates into
// application events. Updates are processed one at a time, in arrival
// order, so per-chat handling never races with itself.
type Bot struct {
	api         *tgbotapi.BotAPI
	app         *application.App
	log         *zap.Logger
	pollTimeout int
	blocked     map[int64]struct{}
}

func NewBot(api *tgbotapi.BotAPI, app *application.App, pollTimeout int, blockedUsers []int64, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	blocked := make(map[int64]struct{}, len(blockedUsers))
	for _, id := range blockedUsers {
		blocked[id] = struct{}{}
	}
	return &Bot{api: api, app: app, log: log, pollTimeout: pollTimeout, blocked: blocked}
}

// Run blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(config)
	defer b.api.StopReceivingUpdates()

	b.log.Info("update loop started", zap.String("bot", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	if userID, ok := senderID(update); ok {
		if _, isBlocked := b.blocked[userID]; isBlocked {
			b.log.Info("blocked user ignored", zap.Int64("user_id", userID))
			return
		}
	}

	switch {
	case update.CallbackQuery != nil:
		callback := update.CallbackQuery
		if callback.Message == nil {
			b.log.Debug("callback without message", zap.String("data", callback.Data))
			return
		}
		b.app.HandleAction(ctx, application.ActionEvent{
			ChatID:   callback.Message.Chat.ID,
			UserID:   callback.From.ID,
			ActionID: callback.ID,
			Action:   callback.Data,
		})

	case update.Message != nil:
		message := update.Message
		if message.From == nil {
			return
		}
		if message.IsCommand() {
			b.handleCommand(ctx, message)
			return
		}
		if strings.TrimSpace(message.Text) == "" {
			return
		}
		b.app.HandleText(ctx, application.TextEvent{
			ChatID:    message.Chat.ID,
			UserID:    message.From.ID,
			MessageID: message.MessageID,
			Text:      message.Text,
		})
	}
}

func senderID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID, true
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, true
	}
	return 0, false
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start", "menu":
		b.app.Start(ctx, message.Chat.ID, message.From.ID, message.MessageID)
	default:
		b.log.Debug("unknown command", zap.String("command", message.Command()))
	}
}
