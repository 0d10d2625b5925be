package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfbot/shelfbot/internal/ports"
	"go.uber.org/zap"
)

// catalogCallDelay paces the serial price walk. The catalog throttles
// rapid sequential access, so the refresh deliberately does not fan out.
const catalogCallDelay = 700 * time.Millisecond

// progressEvery is how many records pass between dashboard progress edits.
const progressEvery = 5

// PriceService re-resolves every record's price against the catalog and
// writes the results back as one batch.
type PriceService struct {
	ledger    ports.Ledger
	catalog   ports.Catalog
	dashboard *Dashboard
	settings  ports.SettingsRepository
	clock     ports.Clock
	log       *zap.Logger
}

func NewPriceService(ledger ports.Ledger, catalog ports.Catalog, dashboard *Dashboard, settings ports.SettingsRepository, clock ports.Clock, log *zap.Logger) *PriceService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PriceService{
		ledger:    ledger,
		catalog:   catalog,
		dashboard: dashboard,
		settings:  settings,
		clock:     clock,
		log:       log,
	}
}

// RefreshAll walks the ledger's records serially, resolving each one's
// current price with a fixed delay between catalog calls, then submits a
// single update_price_batch. Records that fail to resolve keep their old
// price.
func (s *PriceService) RefreshAll(ctx context.Context, chatID int64) {
	record, err := s.settings.Get(ctx, chatID)
	if err != nil || !record.Configured() {
		s.refresh(ctx, chatID, "⚠️ No ledger linked yet. Open Settings to link one.", mainMenu())
		return
	}

	s.refresh(ctx, chatID, "🔄 <b>Updating prices...</b>\nReading the game list...", ports.Presentation{HTML: true})

	snapshot, err := s.ledger.Fetch(ctx, record.LedgerURL)
	if err != nil {
		s.log.Warn("fetch ledger snapshot", zap.Int64("chat_id", chatID), zap.Error(err))
		s.refresh(ctx, chatID, "❌ Price update failed.\nThe ledger may be unreachable.", mainMenu())
		return
	}
	if len(snapshot.Games) == 0 {
		s.refresh(ctx, chatID, "📭 The ledger has no games.", mainMenu())
		return
	}

	var updates []ports.PriceUpdate
	for i, game := range snapshot.Games {
		if count := i + 1; count%progressEvery == 0 {
			s.smartEdit(ctx, chatID,
				fmt.Sprintf("🔄 Processed: %d/%d", count, len(snapshot.Games)),
				ports.Presentation{})
		}

		appID, ok := game.AppID()
		if !ok {
			continue
		}

		entry, err := s.catalog.Resolve(ctx, appID)
		s.clock.Sleep(ctx, catalogCallDelay)
		if err != nil {
			s.log.Warn("refresh price",
				zap.Int("game_id", game.ID),
				zap.String("title", game.Title),
				zap.Error(err))
			continue
		}
		updates = append(updates, ports.PriceUpdate{ID: game.ID, Price: entry.Price})
	}

	s.refresh(ctx, chatID, "💾 <b>Saving new prices to the ledger...</b>", ports.Presentation{HTML: true})

	if err := s.ledger.UpdatePrices(ctx, record.LedgerURL, updates); err != nil {
		s.log.Warn("push price batch", zap.Int64("chat_id", chatID), zap.Error(err))
		s.refresh(ctx, chatID, "❌ Price update failed.\nThe ledger may be unreachable.", mainMenu())
		return
	}

	s.refresh(ctx, chatID, fmt.Sprintf("✅ <b>Done!</b>\nGames updated: %d", len(updates)), mainMenu())
}

// Configured reports whether the chat can run a price refresh at all,
// letting the router reject the action with a toast instead of a render.
func (s *PriceService) Configured(ctx context.Context, chatID int64) bool {
	record, err := s.settings.Get(ctx, chatID)
	return err == nil && record.Configured()
}

func (s *PriceService) refresh(ctx context.Context, chatID int64, text string, view ports.Presentation) {
	if _, err := s.dashboard.Refresh(ctx, chatID, text, view); err != nil {
		s.log.Warn("refresh dashboard", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *PriceService) smartEdit(ctx context.Context, chatID int64, text string, view ports.Presentation) {
	if err := s.dashboard.SmartEdit(ctx, chatID, text, view); err != nil {
		s.log.Warn("edit dashboard", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
