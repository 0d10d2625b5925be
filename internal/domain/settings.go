package domain

// ChatSettings is the persistent per-chat record. It is read and rewritten
// as a whole; there is no partial-field update.
type ChatSettings struct {
	ChatID        int64
	LedgerURL     string
	LastMessageID int
}

// Configured reports whether the chat has a ledger endpoint linked.
func (s ChatSettings) Configured() bool {
	return s.LedgerURL != ""
}
