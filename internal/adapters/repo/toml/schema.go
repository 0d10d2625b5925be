package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int          `toml:"version"`
	Chats   []chatSchema `toml:"chats"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported chats schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type chatSchema struct {
	ChatID        int64  `toml:"chat_id"`
	LedgerURL     string `toml:"ledger_url,omitempty"`
	LastMessageID int    `toml:"last_message_id,omitempty"`
}
