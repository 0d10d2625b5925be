package application

import (
	"context"
	"fmt"

	"github.com/shelfbot/shelfbot/internal/ports"
	"go.uber.org/zap"
)

// Dashboard keeps each chat down to exactly one live bot message. Every
// menu and result is rendered into that message, either by replacing it or
// by editing it in place.
type Dashboard struct {
	transport ports.Transport
	settings  ports.SettingsRepository
	log       *zap.Logger
}

func NewDashboard(transport ports.Transport, settings ports.SettingsRepository, log *zap.Logger) *Dashboard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dashboard{transport: transport, settings: settings, log: log}
}

// Refresh deletes the chat's previously recorded live message, sends a new
// one, and records its id. Deleting a message that is already gone (or
// that the bot may not touch) is swallowed; the chat simply gains the new
// message.
func (d *Dashboard) Refresh(ctx context.Context, chatID int64, text string, view ports.Presentation) (int, error) {
	record, err := d.settings.Get(ctx, chatID)
	readFailed := err != nil
	if readFailed {
		// A zeroed record must not be written back: saving it would wipe
		// the chat's ledger link. The new message id goes unrecorded and
		// the next refresh leaves this message behind.
		d.log.Warn("read chat settings before refresh", zap.Int64("chat_id", chatID), zap.Error(err))
		record.ChatID = chatID
	}

	if record.LastMessageID != 0 {
		if err := d.transport.Delete(ctx, chatID, record.LastMessageID); err != nil {
			d.log.Debug("delete previous dashboard message",
				zap.Int64("chat_id", chatID),
				zap.Int("message_id", record.LastMessageID),
				zap.Error(err))
		}
	}

	messageID, err := d.transport.Send(ctx, chatID, text, view)
	if err != nil {
		return 0, fmt.Errorf("send dashboard message: %w", err)
	}

	if !readFailed {
		record.ChatID = chatID
		record.LastMessageID = messageID
		if err := d.settings.Save(ctx, record); err != nil {
			d.log.Warn("record dashboard message id", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}

	return messageID, nil
}

// SmartEdit rewrites the live message in place. Any edit failure (message
// too old, gone, or rejected) falls back to a full Refresh, so pagination
// stays flicker-free but never strands the user without a dashboard.
func (d *Dashboard) SmartEdit(ctx context.Context, chatID int64, text string, view ports.Presentation) error {
	record, err := d.settings.Get(ctx, chatID)
	if err == nil && record.LastMessageID != 0 {
		if err := d.transport.Edit(ctx, chatID, record.LastMessageID, text, view); err == nil {
			return nil
		}
	}

	_, err = d.Refresh(ctx, chatID, text, view)
	return err
}

// CleanUserInput deletes the message that triggered the current flow.
// Failures are swallowed: in some channels the bot cannot delete user
// messages at all.
func (d *Dashboard) CleanUserInput(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := d.transport.Delete(ctx, chatID, messageID); err != nil {
		d.log.Debug("delete user input message",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err))
	}
}

// Close deletes the live message and forgets its id, leaving the chat with
// no dashboard until the next interaction.
func (d *Dashboard) Close(ctx context.Context, chatID int64) error {
	record, err := d.settings.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("read chat settings: %w", err)
	}
	if record.LastMessageID == 0 {
		return nil
	}

	if err := d.transport.Delete(ctx, chatID, record.LastMessageID); err != nil {
		return fmt.Errorf("delete dashboard message: %w", err)
	}

	record.LastMessageID = 0
	if err := d.settings.Save(ctx, record); err != nil {
		return fmt.Errorf("clear dashboard message id: %w", err)
	}
	return nil
}
