package ports

import (
	"context"

	"github.com/shelfbot/shelfbot/internal/domain"
)

// SettingsRepository persists the per-chat record with whole-record
// semantics: Get reads the full record (zero value when the chat is
// unknown) and Save rewrites it completely. Two concurrent read-modify-
// write cycles against the same chat can lose an update; callers must not
// assume atomicity.
type SettingsRepository interface {
	Get(ctx context.Context, chatID int64) (domain.ChatSettings, error)
	Save(ctx context.Context, settings domain.ChatSettings) error
}
