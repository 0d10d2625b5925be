// Package telegram binds the application to the Telegram Bot API. It is
// the only package that imports the bot library; the rest of the program
// sees ports.Transport and application events.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shelfbot/shelfbot/internal/ports"
)

// Transport implements ports.Transport on top of the Bot API.
type Transport struct {
	api *tgbotapi.BotAPI
}

var _ ports.Transport = (*Transport)(nil)

func NewTransport(api *tgbotapi.BotAPI) *Transport {
	return &Transport{api: api}
}

func (t *Transport) Send(_ context.Context, chatID int64, text string, view ports.Presentation) (int, error) {
	message := tgbotapi.NewMessage(chatID, text)
	if view.HTML {
		message.ParseMode = tgbotapi.ModeHTML
	}
	message.DisableWebPagePreview = view.DisableLinkPreview
	if markup, ok := keyboard(view); ok {
		message.ReplyMarkup = markup
	}

	sent, err := t.api.Send(message)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

func (t *Transport) Edit(_ context.Context, chatID int64, messageID int, text string, view ports.Presentation) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if view.HTML {
		edit.ParseMode = tgbotapi.ModeHTML
	}
	edit.DisableWebPagePreview = view.DisableLinkPreview
	if markup, ok := keyboard(view); ok {
		edit.ReplyMarkup = &markup
	}

	if _, err := t.api.Send(edit); err != nil {
		return fmt.Errorf("edit message %d: %w", messageID, err)
	}
	return nil
}

func (t *Transport) Delete(_ context.Context, chatID int64, messageID int) error {
	if _, err := t.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

func (t *Transport) Notify(_ context.Context, actionID, text string) error {
	if _, err := t.api.Request(tgbotapi.NewCallback(actionID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func keyboard(view ports.Presentation) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(view.Keyboard) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(view.Keyboard))
	for _, row := range view.Keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Label, button.Action))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}
