package application

import (
	"context"
	"sync"
	"time"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
)

type sentMessage struct {
	chatID    int64
	messageID int
	text      string
	view      ports.Presentation
}

type deletedMessage struct {
	chatID    int64
	messageID int
}

// fakeTransport records every outbound call and hands out sequential
// message ids.
type fakeTransport struct {
	mu sync.Mutex

	nextID   int
	sends    []sentMessage
	edits    []sentMessage
	deletes  []deletedMessage
	notifies []string

	sendErr   error
	editErr   error
	deleteErr error
}

var _ ports.Transport = (*fakeTransport)(nil)

func (t *fakeTransport) Send(_ context.Context, chatID int64, text string, view ports.Presentation) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return 0, t.sendErr
	}
	t.nextID++
	t.sends = append(t.sends, sentMessage{chatID: chatID, messageID: t.nextID, text: text, view: view})
	return t.nextID, nil
}

func (t *fakeTransport) Edit(_ context.Context, chatID int64, messageID int, text string, view ports.Presentation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.editErr != nil {
		return t.editErr
	}
	t.edits = append(t.edits, sentMessage{chatID: chatID, messageID: messageID, text: text, view: view})
	return nil
}

func (t *fakeTransport) Delete(_ context.Context, chatID int64, messageID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deleteErr != nil {
		return t.deleteErr
	}
	t.deletes = append(t.deletes, deletedMessage{chatID: chatID, messageID: messageID})
	return nil
}

func (t *fakeTransport) Notify(_ context.Context, _, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifies = append(t.notifies, text)
	return nil
}

func (t *fakeTransport) lastSend() sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sends) == 0 {
		return sentMessage{}
	}
	return t.sends[len(t.sends)-1]
}

func (t *fakeTransport) lastEdit() sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.edits) == 0 {
		return sentMessage{}
	}
	return t.edits[len(t.edits)-1]
}

// memSettings is an in-memory SettingsRepository.
type memSettings struct {
	mu      sync.Mutex
	records map[int64]domain.ChatSettings
	getErr  error
	saveErr error
}

var _ ports.SettingsRepository = (*memSettings)(nil)

func newMemSettings() *memSettings {
	return &memSettings{records: make(map[int64]domain.ChatSettings)}
}

func (m *memSettings) Get(_ context.Context, chatID int64) (domain.ChatSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.ChatSettings{}, m.getErr
	}
	record, ok := m.records[chatID]
	if !ok {
		return domain.ChatSettings{ChatID: chatID}, nil
	}
	return record, nil
}

func (m *memSettings) Save(_ context.Context, record domain.ChatSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[record.ChatID] = record
	return nil
}

func (m *memSettings) put(record domain.ChatSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ChatID] = record
}

// fakeLedger records writes and serves a canned snapshot.
type fakeLedger struct {
	mu sync.Mutex

	snapshot ports.LedgerSnapshot
	fetchErr error
	fetches  int

	added      []ports.AddGameRequest
	addOutcome ports.AddOutcome
	addErr     error

	removed   []int
	removeErr error

	friends      []domain.FriendRecord
	addFriendErr error

	ownersBatches [][]ports.OwnersUpdate
	ownersErr     error

	priceBatches [][]ports.PriceUpdate
	pricesErr    error
}

var _ ports.Ledger = (*fakeLedger)(nil)

func (l *fakeLedger) Fetch(_ context.Context, _ string) (ports.LedgerSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fetches++
	if l.fetchErr != nil {
		return ports.LedgerSnapshot{}, l.fetchErr
	}
	games := append([]domain.GameRecord(nil), l.snapshot.Games...)
	friends := append([]domain.FriendRecord(nil), l.snapshot.Friends...)
	return ports.LedgerSnapshot{Games: games, Friends: friends}, nil
}

func (l *fakeLedger) AddGame(_ context.Context, _ string, request ports.AddGameRequest) (ports.AddOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.addErr != nil {
		return 0, l.addErr
	}
	l.added = append(l.added, request)
	return l.addOutcome, nil
}

func (l *fakeLedger) RemoveGame(_ context.Context, _ string, id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.removeErr != nil {
		return l.removeErr
	}
	l.removed = append(l.removed, id)
	return nil
}

func (l *fakeLedger) AddFriend(_ context.Context, _ string, friend domain.FriendRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.addFriendErr != nil {
		return l.addFriendErr
	}
	l.friends = append(l.friends, friend)
	return nil
}

func (l *fakeLedger) UpdateOwners(_ context.Context, _ string, updates []ports.OwnersUpdate) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ownersErr != nil {
		return l.ownersErr
	}
	l.ownersBatches = append(l.ownersBatches, updates)
	return nil
}

func (l *fakeLedger) UpdatePrices(_ context.Context, _ string, updates []ports.PriceUpdate) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pricesErr != nil {
		return l.pricesErr
	}
	l.priceBatches = append(l.priceBatches, updates)
	return nil
}

func (l *fakeLedger) fetchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetches
}

// fakeCatalog serves canned entries keyed by app id.
type fakeCatalog struct {
	mu sync.Mutex

	entries    map[int]ports.CatalogEntry
	resolveErr error
	resolved   []int

	searchResult ports.CatalogEntry
	searchErr    error
	searched     []string

	owned    map[string][]int
	ownedErr map[string]error
}

var _ ports.Catalog = (*fakeCatalog)(nil)

func (c *fakeCatalog) Resolve(_ context.Context, appID int) (ports.CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved = append(c.resolved, appID)
	if c.resolveErr != nil {
		return ports.CatalogEntry{}, c.resolveErr
	}
	entry, ok := c.entries[appID]
	if !ok {
		return ports.CatalogEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

func (c *fakeCatalog) Search(_ context.Context, query string) (ports.CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searched = append(c.searched, query)
	if c.searchErr != nil {
		return ports.CatalogEntry{}, c.searchErr
	}
	return c.searchResult, nil
}

func (c *fakeCatalog) OwnedApps(_ context.Context, accountID string) ([]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ownedErr[accountID]; err != nil {
		return nil, err
	}
	return c.owned[accountID], nil
}

type fakeMirror struct {
	badge domain.Badge
	err   error
}

var _ ports.Mirror = (*fakeMirror)(nil)

func (m *fakeMirror) Probe(_ context.Context, _ string) (domain.Badge, error) {
	return m.badge, m.err
}

// fakeClock records sleeps instead of waiting.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

var _ ports.Clock = (*fakeClock)(nil)

func (c *fakeClock) Now() time.Time {
	if c.now.IsZero() {
		return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	}
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
}

func (c *fakeClock) sleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}
