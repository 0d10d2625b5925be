package application

import (
	"testing"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSessionStoreSetAndGet(t *testing.T) {
	store := NewSessionStore()

	assert.Equal(t, domain.StateNone, store.Get(1, 10))

	store.Set(1, 10, domain.StateAwaitingGameLink)
	assert.Equal(t, domain.StateAwaitingGameLink, store.Get(1, 10))

	// Same user in another chat is tracked independently.
	assert.Equal(t, domain.StateNone, store.Get(2, 10))
}

func TestSessionStoreSetNoneDeletes(t *testing.T) {
	store := NewSessionStore()

	store.Set(1, 10, domain.StateAwaitingLedgerURL)
	store.Set(1, 10, domain.StateNone)

	assert.Equal(t, domain.StateNone, store.Get(1, 10))
}

func TestSessionStoreClear(t *testing.T) {
	store := NewSessionStore()

	store.Set(1, 10, domain.StateAwaitingFriendData)
	store.Clear(1, 10)

	assert.Equal(t, domain.StateNone, store.Get(1, 10))
}

func TestSessionStoreClearChat(t *testing.T) {
	store := NewSessionStore()

	store.Set(1, 10, domain.StateAwaitingGameLink)
	store.Set(1, 11, domain.StateAwaitingFriendData)
	store.Set(2, 10, domain.StateAwaitingLedgerURL)

	store.ClearChat(1)

	assert.Equal(t, domain.StateNone, store.Get(1, 10))
	assert.Equal(t, domain.StateNone, store.Get(1, 11))
	assert.Equal(t, domain.StateAwaitingLedgerURL, store.Get(2, 10))
}
