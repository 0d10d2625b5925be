package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = int64(42)

type acquisitionFixture struct {
	transport *fakeTransport
	settings  *memSettings
	ledger    *fakeLedger
	catalog   *fakeCatalog
	mirror    *fakeMirror
	sessions  *SessionStore
	service   *AcquisitionService
}

func newAcquisitionFixture() *acquisitionFixture {
	transport := &fakeTransport{}
	settings := newMemSettings()
	settings.put(domain.ChatSettings{ChatID: testChatID, LedgerURL: "https://ledger.example"})
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{}
	mirror := &fakeMirror{badge: domain.BadgeNotFound}
	sessions := NewSessionStore()
	dashboard := NewDashboard(transport, settings, nil)

	f := &acquisitionFixture{
		transport: transport,
		settings:  settings,
		ledger:    ledger,
		catalog:   catalog,
		mirror:    mirror,
		sessions:  sessions,
		service: NewAcquisitionService(
			ledger, catalog, mirror, dashboard, sessions, settings, &fakeClock{}, nil,
		),
	}
	f.sessions.Set(testChatID, testUserID, domain.StateAwaitingGameLink)
	return f
}

func TestAcquisitionAddByTitle(t *testing.T) {
	f := newAcquisitionFixture()
	f.catalog.searchResult = ports.CatalogEntry{
		AppID: 440,
		Title: "Team Fortress 2",
		URL:   "https://store.steampowered.com/app/440/",
		Price: "Free",
	}
	f.catalog.owned = map[string][]int{"76561198000000001": {440}}
	f.ledger.snapshot.Friends = []domain.FriendRecord{
		{ExternalID: "76561198000000001", DisplayName: "Alex"},
	}
	f.mirror.badge = domain.BadgeFound

	f.service.AddGame(context.Background(), testChatID, testUserID, "team fortress", 55)

	assert.Equal(t, []string{"team fortress"}, f.catalog.searched)

	// The triggering message was cleaned up.
	assert.Contains(t, f.transport.deletes, deletedMessage{chatID: testChatID, messageID: 55})

	require.Len(t, f.ledger.added, 1)
	added := f.ledger.added[0]
	assert.Equal(t, "Team Fortress 2", added.Title)
	assert.Equal(t, "14.03.2025", added.Date)
	assert.Equal(t, domain.BadgeFound, added.Mirror)
	assert.Equal(t, []string{"Alex"}, added.Owners)
	assert.Equal(t, "Free", added.Price)

	confirmation := f.transport.lastSend()
	assert.Contains(t, confirmation.text, "Added!")
	assert.Contains(t, confirmation.text, "Team Fortress 2")
	assert.Contains(t, confirmation.text, "Alex")
	assert.Contains(t, confirmation.text, "✅")
	assert.True(t, confirmation.view.DisableLinkPreview)

	assert.Equal(t, domain.StateNone, f.sessions.Get(testChatID, testUserID))
}

func TestAcquisitionAddByStoreLink(t *testing.T) {
	f := newAcquisitionFixture()
	f.catalog.entries = map[int]ports.CatalogEntry{
		620: {AppID: 620, Title: "Portal 2", URL: "https://store.steampowered.com/app/620/", Price: "<b>10$</b>"},
	}

	f.service.AddGame(context.Background(), testChatID, testUserID,
		"https://store.steampowered.com/app/620/Portal_2/", 55)

	assert.Equal(t, []int{620}, f.catalog.resolved)
	assert.Empty(t, f.catalog.searched)
	require.Len(t, f.ledger.added, 1)
	assert.Equal(t, "Portal 2", f.ledger.added[0].Title)
}

func TestAcquisitionNotFoundKeepsMessageAndState(t *testing.T) {
	f := newAcquisitionFixture()
	f.catalog.searchErr = domain.ErrNotFound

	f.service.AddGame(context.Background(), testChatID, testUserID, "no such game", 55)

	// The user's message survives so it can be edited and resent.
	assert.Empty(t, f.transport.deletes)
	assert.Empty(t, f.ledger.added)
	assert.Contains(t, f.transport.lastSend().text, "not found")
	assert.Equal(t, domain.StateAwaitingGameLink, f.sessions.Get(testChatID, testUserID))
}

func TestAcquisitionNonAppStoreLinkFallsBackToSearch(t *testing.T) {
	f := newAcquisitionFixture()
	f.catalog.searchResult = ports.CatalogEntry{AppID: 440, Title: "Team Fortress 2", URL: "https://store.steampowered.com/app/440/"}

	f.service.AddGame(context.Background(), testChatID, testUserID,
		"https://store.steampowered.com/news/app-roundup", 55)

	// Only /app/ links resolve by id; any other store URL is searched as text.
	assert.Empty(t, f.catalog.resolved)
	assert.Equal(t, []string{"https://store.steampowered.com/news/app-roundup"}, f.catalog.searched)
	require.Len(t, f.ledger.added, 1)
}

func TestAcquisitionAppLinkWithoutIDNotFound(t *testing.T) {
	f := newAcquisitionFixture()

	f.service.AddGame(context.Background(), testChatID, testUserID,
		"https://store.steampowered.com/app/", 55)

	assert.Empty(t, f.catalog.resolved)
	assert.Empty(t, f.catalog.searched)
	assert.Contains(t, f.transport.lastSend().text, "not found")
}

func TestAcquisitionShowsSearchNotice(t *testing.T) {
	f := newAcquisitionFixture()
	f.catalog.searchErr = domain.ErrNotFound

	f.service.AddGame(context.Background(), testChatID, testUserID, "some game", 55)

	require.NotEmpty(t, f.transport.sends)
	assert.Contains(t, f.transport.sends[0].text, "Searching")
}

func TestAcquisitionDuplicate(t *testing.T) {
	f := newAcquisitionFixture()
	f.catalog.searchResult = ports.CatalogEntry{AppID: 440, Title: "Team Fortress 2", URL: "https://store.steampowered.com/app/440/"}
	f.ledger.addOutcome = ports.AddDuplicate

	f.service.AddGame(context.Background(), testChatID, testUserID, "team fortress", 55)

	assert.Contains(t, f.transport.lastSend().text, "Already on the list")
	assert.Equal(t, domain.StateNone, f.sessions.Get(testChatID, testUserID))
}

func TestAcquisitionLedgerWriteFailureKeepsState(t *testing.T) {
	f := newAcquisitionFixture()
	f.catalog.searchResult = ports.CatalogEntry{AppID: 440, Title: "Team Fortress 2", URL: "https://store.steampowered.com/app/440/"}
	f.ledger.addErr = errors.New("ledger timeout")

	f.service.AddGame(context.Background(), testChatID, testUserID, "team fortress", 55)

	assert.Contains(t, f.transport.lastSend().text, "Couldn't write")
	assert.Equal(t, domain.StateAwaitingGameLink, f.sessions.Get(testChatID, testUserID))
}

func TestAcquisitionBrokenProbeDegradesToUncertain(t *testing.T) {
	f := newAcquisitionFixture()
	f.catalog.searchResult = ports.CatalogEntry{AppID: 440, Title: "Team Fortress 2", URL: "https://store.steampowered.com/app/440/"}
	f.mirror.badge = domain.BadgeUncertain
	f.mirror.err = errors.New("search blocked")

	f.service.AddGame(context.Background(), testChatID, testUserID, "team fortress", 55)

	require.Len(t, f.ledger.added, 1)
	assert.Equal(t, domain.BadgeUncertain, f.ledger.added[0].Mirror)
}

func TestAcquisitionNotConfigured(t *testing.T) {
	f := newAcquisitionFixture()
	f.settings.put(domain.ChatSettings{ChatID: testChatID})

	f.service.AddGame(context.Background(), testChatID, testUserID, "team fortress", 55)

	assert.Empty(t, f.ledger.added)
	assert.Contains(t, f.transport.lastSend().text, "No ledger linked")
	assert.Equal(t, domain.StateNone, f.sessions.Get(testChatID, testUserID))
}
