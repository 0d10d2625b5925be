package application

import (
	"context"
	"sync"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LibraryService serves the shared library view. A fresh open fetches the
// full remote snapshot, reconciles recorded owners against each friend's
// live catalog library, pushes the diff back asynchronously, and caches
// the snapshot so pagination never refetches.
type LibraryService struct {
	ledger    ports.Ledger
	catalog   ports.Catalog
	dashboard *Dashboard
	settings  ports.SettingsRepository
	log       *zap.Logger

	mu        sync.Mutex
	snapshots map[int64]*domain.LibrarySnapshot

	writeBack sync.WaitGroup
}

func NewLibraryService(ledger ports.Ledger, catalog ports.Catalog, dashboard *Dashboard, settings ports.SettingsRepository, log *zap.Logger) *LibraryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LibraryService{
		ledger:    ledger,
		catalog:   catalog,
		dashboard: dashboard,
		settings:  settings,
		log:       log,
		snapshots: make(map[int64]*domain.LibrarySnapshot),
	}
}

// View renders one page of the library into the chat's dashboard.
// Pagination requests serve from the cached snapshot only; when the
// snapshot is gone the user is told to reopen the view rather than
// triggering a silent refetch.
func (s *LibraryService) View(ctx context.Context, chatID int64, page int, isPagination bool) {
	record, err := s.settings.Get(ctx, chatID)
	if err != nil || !record.Configured() {
		s.refresh(ctx, chatID, "⚠️ No ledger linked yet. Open Settings to link one.", mainMenu())
		return
	}

	if !isPagination {
		s.refresh(ctx, chatID, "⏳ Loading library...", cancelMenu())

		snapshot, err := s.ledger.Fetch(ctx, record.LedgerURL)
		if err != nil {
			s.log.Warn("fetch ledger snapshot", zap.Int64("chat_id", chatID), zap.Error(err))
			s.refresh(ctx, chatID, "❌ Couldn't load the library.", mainMenu())
			return
		}
		if len(snapshot.Games) == 0 {
			s.refresh(ctx, chatID, "📭 The library is empty.", mainMenu())
			return
		}

		owned := s.fetchFriendLibraries(ctx, snapshot.Friends)
		updates := reconcileOwners(snapshot.Games, owned)
		if len(updates) > 0 {
			s.pushOwnersAsync(ctx, record.LedgerURL, updates)
		}

		s.mu.Lock()
		s.snapshots[chatID] = &domain.LibrarySnapshot{Games: snapshot.Games, Friends: snapshot.Friends}
		s.mu.Unlock()
	}

	s.mu.Lock()
	snapshot := s.snapshots[chatID]
	s.mu.Unlock()

	if snapshot == nil {
		s.smartEdit(ctx, chatID, "⚠️ The list is out of date. Open the library again.", mainMenu())
		return
	}

	page, totalPages := domain.ClampPage(page, len(snapshot.Games), pageSize)
	text, view := libraryPageView(snapshot.Games, page, totalPages)
	s.smartEdit(ctx, chatID, text, view)
}

// Invalidate drops the chat's cached snapshot so the next open refetches.
func (s *LibraryService) Invalidate(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, chatID)
}

// Wait blocks until in-flight owner write-backs have finished. Called on
// shutdown so detached writes are not cut off mid-request.
func (s *LibraryService) Wait() {
	s.writeBack.Wait()
}

// fetchFriendLibraries queries every linked friend's owned-app list
// concurrently. A slow or failing friend yields no owned titles for that
// friend; it never aborts the others.
func (s *LibraryService) fetchFriendLibraries(ctx context.Context, friends []domain.FriendRecord) map[string][]int {
	owned := make(map[string][]int, len(friends))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	for _, friend := range friends {
		if friend.ExternalID == "" {
			continue
		}
		friend := friend
		group.Go(func() error {
			apps, err := s.catalog.OwnedApps(groupCtx, friend.ExternalID)
			if err != nil {
				s.log.Warn("fetch friend library",
					zap.String("friend", friend.DisplayName),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			owned[friend.DisplayName] = apps
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return owned
}

// reconcileOwners unions each game's recorded owners with every friend
// whose live library contains the game's app id. Owners are only ever
// added; a name already on the record is never removed here even when the
// live library no longer confirms it. Games whose URL encodes no app id
// are skipped. The games slice is updated in place and the changed rows
// are returned as a patch.
func reconcileOwners(games []domain.GameRecord, owned map[string][]int) []ports.OwnersUpdate {
	ownedSets := make(map[string]map[int]struct{}, len(owned))
	for name, apps := range owned {
		set := make(map[int]struct{}, len(apps))
		for _, app := range apps {
			set[app] = struct{}{}
		}
		ownedSets[name] = set
	}

	var updates []ports.OwnersUpdate
	for i := range games {
		game := &games[i]
		appID, ok := game.AppID()
		if !ok {
			continue
		}

		changed := false
		for name, apps := range ownedSets {
			if _, has := apps[appID]; !has {
				continue
			}
			if game.HasOwner(name) {
				continue
			}
			game.Owners = append(game.Owners, name)
			changed = true
		}
		if changed {
			updates = append(updates, ports.OwnersUpdate{ID: game.ID, Owners: game.Owners})
		}
	}
	return updates
}

// pushOwnersAsync submits the reconciled diff as one batched patch without
// blocking the render path. The detached context keeps the write alive
// after the triggering event finishes; a failure is logged, never shown.
func (s *LibraryService) pushOwnersAsync(ctx context.Context, ledgerURL string, updates []ports.OwnersUpdate) {
	detached := context.WithoutCancel(ctx)
	s.writeBack.Add(1)
	go func() {
		defer s.writeBack.Done()
		if err := s.ledger.UpdateOwners(detached, ledgerURL, updates); err != nil {
			s.log.Warn("push owners batch",
				zap.String("ledger_url", ledgerURL),
				zap.Int("updates", len(updates)),
				zap.Error(err))
		}
	}()
}

func (s *LibraryService) refresh(ctx context.Context, chatID int64, text string, view ports.Presentation) {
	if _, err := s.dashboard.Refresh(ctx, chatID, text, view); err != nil {
		s.log.Warn("refresh dashboard", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *LibraryService) smartEdit(ctx context.Context, chatID int64, text string, view ports.Presentation) {
	if err := s.dashboard.SmartEdit(ctx, chatID, text, view); err != nil {
		s.log.Warn("edit dashboard", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
