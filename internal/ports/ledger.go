package ports

import (
	"context"

	"github.com/shelfbot/shelfbot/internal/domain"
)

// LedgerSnapshot is the full remote state: every game row plus the linked
// friend accounts.
type LedgerSnapshot struct {
	Games   []domain.GameRecord
	Friends []domain.FriendRecord
}

// AddGameRequest carries a complete new record for the ledger's add action.
type AddGameRequest struct {
	Title  string
	URL    string
	Date   string
	Mirror domain.Badge
	Owners []string
	Price  string
}

// AddOutcome distinguishes a created record from a duplicate. Transport or
// protocol failures are reported as errors, never as an outcome.
type AddOutcome int

const (
	AddCreated AddOutcome = iota
	AddDuplicate
)

// OwnersUpdate patches a single record's owner column.
type OwnersUpdate struct {
	ID     int
	Owners []string
}

// PriceUpdate patches a single record's price column.
type PriceUpdate struct {
	ID    int
	Price string
}

// Ledger is the remote authoritative store of game and friend records.
// Every call targets the chat-configured endpoint URL.
type Ledger interface {
	Fetch(ctx context.Context, url string) (LedgerSnapshot, error)
	AddGame(ctx context.Context, url string, request AddGameRequest) (AddOutcome, error)
	RemoveGame(ctx context.Context, url string, id int) error
	AddFriend(ctx context.Context, url string, friend domain.FriendRecord) error
	UpdateOwners(ctx context.Context, url string, updates []OwnersUpdate) error
	UpdatePrices(ctx context.Context, url string, updates []PriceUpdate) error
}
