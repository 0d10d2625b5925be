package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
	"go.uber.org/zap"
)

// DeletionService is a second, independent view over the remote list used
// only for removing records. Its snapshot is sorted newest-first and
// supports optimistic single-record removal without a refetch.
type DeletionService struct {
	ledger    ports.Ledger
	dashboard *Dashboard
	settings  ports.SettingsRepository
	library   *LibraryService
	log       *zap.Logger

	mu        sync.Mutex
	snapshots map[int64]*domain.DeletionSnapshot
}

func NewDeletionService(ledger ports.Ledger, dashboard *Dashboard, settings ports.SettingsRepository, library *LibraryService, log *zap.Logger) *DeletionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeletionService{
		ledger:    ledger,
		dashboard: dashboard,
		settings:  settings,
		library:   library,
		log:       log,
		snapshots: make(map[int64]*domain.DeletionSnapshot),
	}
}

// View renders one page of the removal menu. Unlike the library view, a
// pagination request with no snapshot reloads silently: the menu is also
// re-rendered right after a removal, and must survive its own cache edits.
func (s *DeletionService) View(ctx context.Context, chatID int64, page int, isPagination bool) {
	record, err := s.settings.Get(ctx, chatID)
	if err != nil || !record.Configured() {
		s.refresh(ctx, chatID, "⚠️ No ledger linked yet. Open Settings to link one.", mainMenu())
		return
	}

	s.mu.Lock()
	snapshot := s.snapshots[chatID]
	s.mu.Unlock()

	if !isPagination || snapshot == nil {
		if !isPagination {
			s.refresh(ctx, chatID, "⏳ Loading list...", cancelMenu())
		}

		remote, err := s.ledger.Fetch(ctx, record.LedgerURL)
		if err != nil {
			s.log.Warn("fetch ledger snapshot", zap.Int64("chat_id", chatID), zap.Error(err))
			s.refresh(ctx, chatID, "❌ Couldn't load the list.", mainMenu())
			return
		}
		if len(remote.Games) == 0 {
			s.refresh(ctx, chatID, "📭 Nothing to delete.", mainMenu())
			return
		}

		snapshot = domain.NewDeletionSnapshot(remote.Games)
		s.mu.Lock()
		s.snapshots[chatID] = snapshot
		s.mu.Unlock()
	}

	s.mu.Lock()
	games := append([]domain.GameRecord(nil), snapshot.Games...)
	s.mu.Unlock()

	if len(games) == 0 {
		s.smartEdit(ctx, chatID, "📭 The library is empty.", mainMenu())
		return
	}

	page, totalPages := domain.ClampPage(page, len(games), pageSize)
	text, view := deletionPageView(games, page, totalPages)
	s.smartEdit(ctx, chatID, text, view)
}

// RemoveGame submits the remove request and splices the record out of the
// local snapshot whether or not the remote call succeeded — the remote is
// assumed to reconcile eventually. The library cache is invalidated either
// way because the authoritative list changed. The returned error signals a
// soft warning only; the removal itself is never rolled back.
func (s *DeletionService) RemoveGame(ctx context.Context, chatID int64, id int) error {
	record, err := s.settings.Get(ctx, chatID)
	if err != nil || !record.Configured() {
		return domain.ErrNotConfigured
	}

	removeErr := s.ledger.RemoveGame(ctx, record.LedgerURL, id)
	if removeErr != nil {
		s.log.Warn("remove game from ledger",
			zap.Int64("chat_id", chatID),
			zap.Int("game_id", id),
			zap.Error(removeErr))
	}

	s.mu.Lock()
	if snapshot := s.snapshots[chatID]; snapshot != nil {
		snapshot.Remove(id)
	}
	s.mu.Unlock()

	s.library.Invalidate(chatID)

	if removeErr != nil {
		return fmt.Errorf("remove game %d: %w", id, removeErr)
	}
	return nil
}

// Invalidate drops the chat's deletion snapshot.
func (s *DeletionService) Invalidate(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, chatID)
}

func (s *DeletionService) refresh(ctx context.Context, chatID int64, text string, view ports.Presentation) {
	if _, err := s.dashboard.Refresh(ctx, chatID, text, view); err != nil {
		s.log.Warn("refresh dashboard", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *DeletionService) smartEdit(ctx context.Context, chatID int64, text string, view ports.Presentation) {
	if err := s.dashboard.SmartEdit(ctx, chatID, text, view); err != nil {
		s.log.Warn("edit dashboard", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
