package domain

// SessionState is what a user's next free-text message means in a chat.
type SessionState int

const (
	// StateNone is the resting state; free text is ignored.
	StateNone SessionState = iota
	// StateAwaitingGameLink expects a store link or a title to add.
	StateAwaitingGameLink
	// StateAwaitingLedgerURL expects the ledger web app URL.
	StateAwaitingLedgerURL
	// StateAwaitingFriendData expects "<account id> <name>".
	StateAwaitingFriendData
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingGameLink:
		return "awaiting_game_link"
	case StateAwaitingLedgerURL:
		return "awaiting_ledger_url"
	case StateAwaitingFriendData:
		return "awaiting_friend_data"
	default:
		return "none"
	}
}
