package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deletionFixture struct {
	transport *fakeTransport
	settings  *memSettings
	ledger    *fakeLedger
	library   *LibraryService
	service   *DeletionService
}

func newDeletionFixture() *deletionFixture {
	transport := &fakeTransport{}
	settings := newMemSettings()
	settings.put(domain.ChatSettings{ChatID: testChatID, LedgerURL: "https://ledger.example"})
	ledger := &fakeLedger{}
	dashboard := NewDashboard(transport, settings, nil)
	library := NewLibraryService(ledger, &fakeCatalog{}, dashboard, settings, nil)

	return &deletionFixture{
		transport: transport,
		settings:  settings,
		ledger:    ledger,
		library:   library,
		service:   NewDeletionService(ledger, dashboard, settings, library, nil),
	}
}

func deleteActions(view sentMessage) []string {
	var actions []string
	for _, row := range view.view.Keyboard {
		for _, button := range row {
			actions = append(actions, button.Action)
		}
	}
	return actions
}

func TestDeletionViewNewestFirst(t *testing.T) {
	f := newDeletionFixture()
	f.ledger.snapshot.Games = makeGames(7)

	f.service.View(context.Background(), testChatID, 1, false)

	page := f.transport.lastEdit()
	assert.Contains(t, page.text, "page 1/2")

	// Page one carries the newest five records.
	actions := deleteActions(page)
	assert.Equal(t, []string{
		"del_game_7", "del_game_6", "del_game_5", "del_game_4", "del_game_3",
		"del_page_2",
		actionMainMenu,
	}, actions)
}

func TestDeletionPaginationReloadsSilently(t *testing.T) {
	f := newDeletionFixture()
	f.ledger.snapshot.Games = makeGames(3)

	// No snapshot yet, but the request is a pagination turn: reload without
	// the loading placeholder.
	f.service.View(context.Background(), testChatID, 1, true)

	assert.Equal(t, 1, f.ledger.fetchCount())
	for _, sent := range f.transport.sends {
		assert.NotContains(t, sent.text, "Loading")
	}
	assert.Contains(t, f.transport.lastSend().text, "page 1/1")
}

func TestDeletionRemoveGame(t *testing.T) {
	f := newDeletionFixture()
	f.ledger.snapshot.Games = makeGames(3)

	f.service.View(context.Background(), testChatID, 1, false)
	f.library.View(context.Background(), testChatID, 1, false)

	require.NoError(t, f.service.RemoveGame(context.Background(), testChatID, 2))
	assert.Equal(t, []int{2}, f.ledger.removed)

	// The record is gone from the menu without a refetch.
	fetches := f.ledger.fetchCount()
	f.service.View(context.Background(), testChatID, 1, true)
	assert.Equal(t, fetches, f.ledger.fetchCount())
	assert.NotContains(t, deleteActions(f.transport.lastEdit()), "del_game_2")

	// The library cache was dropped: its next open refetches.
	f.library.View(context.Background(), testChatID, 1, true)
	assert.Contains(t, f.transport.lastEdit().text, "out of date")
}

func TestDeletionRemoveGameRemoteFailureStillSplices(t *testing.T) {
	f := newDeletionFixture()
	f.ledger.snapshot.Games = makeGames(3)
	f.ledger.removeErr = errors.New("ledger timeout")

	f.service.View(context.Background(), testChatID, 1, false)

	err := f.service.RemoveGame(context.Background(), testChatID, 2)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotConfigured)

	f.service.View(context.Background(), testChatID, 1, true)
	assert.NotContains(t, deleteActions(f.transport.lastEdit()), "del_game_2")
}

func TestDeletionRemoveGameNotConfigured(t *testing.T) {
	f := newDeletionFixture()
	f.settings.put(domain.ChatSettings{ChatID: testChatID})

	err := f.service.RemoveGame(context.Background(), testChatID, 2)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Empty(t, f.ledger.removed)
}

func TestDeletionLastRecordRemoved(t *testing.T) {
	f := newDeletionFixture()
	f.ledger.snapshot.Games = makeGames(1)

	f.service.View(context.Background(), testChatID, 1, false)
	require.NoError(t, f.service.RemoveGame(context.Background(), testChatID, 1))

	f.service.View(context.Background(), testChatID, 1, true)
	assert.Contains(t, f.transport.lastEdit().text, "empty")
}

func TestDeletionViewEmptyLedger(t *testing.T) {
	f := newDeletionFixture()

	f.service.View(context.Background(), testChatID, 1, false)

	assert.Contains(t, f.transport.lastSend().text, "Nothing to delete")
}

func TestDeletionViewNotConfigured(t *testing.T) {
	f := newDeletionFixture()
	f.settings.put(domain.ChatSettings{ChatID: testChatID})

	f.service.View(context.Background(), testChatID, 1, false)

	assert.Zero(t, f.ledger.fetchCount())
	assert.Contains(t, f.transport.lastSend().text, "No ledger linked")
}
