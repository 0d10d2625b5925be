package application

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// storeLinkMarker classifies input as a direct app link. Other store URLs
// (bundles, news) fall through to title search.
const storeLinkMarker = "store.steampowered.com/app/"

// dateLayout is the record date stamped on new ledger rows.
const dateLayout = "02.01.2006"

// AcquisitionService turns a free-text title or a store link into a new
// ledger record: resolve against the catalog, probe the mirror, compute
// current owners, and commit.
type AcquisitionService struct {
	ledger    ports.Ledger
	catalog   ports.Catalog
	mirror    ports.Mirror
	dashboard *Dashboard
	sessions  *SessionStore
	settings  ports.SettingsRepository
	clock     ports.Clock
	log       *zap.Logger
}

func NewAcquisitionService(
	ledger ports.Ledger,
	catalog ports.Catalog,
	mirror ports.Mirror,
	dashboard *Dashboard,
	sessions *SessionStore,
	settings ports.SettingsRepository,
	clock ports.Clock,
	log *zap.Logger,
) *AcquisitionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AcquisitionService{
		ledger:    ledger,
		catalog:   catalog,
		mirror:    mirror,
		dashboard: dashboard,
		sessions:  sessions,
		settings:  settings,
		clock:     clock,
		log:       log,
	}
}

// AddGame handles the text a user submits while in the awaiting-game-link
// state. messageID is the user's own message: it is deleted once the title
// resolves, but left in place on a miss so the user can edit and resend.
func (s *AcquisitionService) AddGame(ctx context.Context, chatID, userID int64, rawText string, messageID int) {
	record, err := s.settings.Get(ctx, chatID)
	if err != nil || !record.Configured() {
		s.sessions.Clear(chatID, userID)
		s.refresh(ctx, chatID, "⚠️ No ledger linked yet. Open Settings to link one.", mainMenu())
		return
	}

	text := strings.TrimSpace(rawText)
	s.refresh(ctx, chatID, "⏳ Searching for the game...", ports.Presentation{})

	entry, err := s.resolve(ctx, text)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("resolve catalog entry", zap.String("input", text), zap.Error(err))
		}
		s.refresh(ctx, chatID,
			"❌ <b>Game not found!</b>\nCheck the link or the title.\nYour message was kept so you can edit it.",
			cancelMenu())
		return
	}

	s.dashboard.CleanUserInput(ctx, chatID, messageID)
	s.refresh(ctx, chatID, "🔎 Found: <b>"+entry.Title+"</b>\nChecking the mirror and owners...", ports.Presentation{HTML: true})

	badge, owners := s.probeAndComputeOwners(ctx, record.LedgerURL, entry)

	outcome, err := s.ledger.AddGame(ctx, record.LedgerURL, ports.AddGameRequest{
		Title:  entry.Title,
		URL:    entry.URL,
		Date:   s.clock.Now().Format(dateLayout),
		Mirror: badge,
		Owners: owners,
		Price:  entry.Price,
	})
	if err != nil {
		s.log.Warn("add game to ledger", zap.Int64("chat_id", chatID), zap.String("title", entry.Title), zap.Error(err))
		s.refresh(ctx, chatID, "❌ Couldn't write to the ledger.", mainMenu())
		return
	}

	s.sessions.Clear(chatID, userID)

	switch outcome {
	case ports.AddDuplicate:
		s.refresh(ctx, chatID, acquisitionDuplicateView(entry), linkFreeMainMenu())
	default:
		s.refresh(ctx, chatID, acquisitionCreatedView(entry, owners, badge), linkFreeMainMenu())
	}
}

// resolve classifies the input: a recognizable store link resolves
// directly by id, anything else is searched as a title.
func (s *AcquisitionService) resolve(ctx context.Context, text string) (ports.CatalogEntry, error) {
	if strings.Contains(text, storeLinkMarker) {
		appID, ok := domain.ExtractAppID(text)
		if !ok {
			return ports.CatalogEntry{}, domain.ErrNotFound
		}
		return s.catalog.Resolve(ctx, appID)
	}
	return s.catalog.Search(ctx, text)
}

// probeAndComputeOwners runs the mirror probe and the owner computation
// together. Both degrade rather than fail: a broken probe yields an
// uncertain badge, an unreachable ledger or friend yields fewer owners.
func (s *AcquisitionService) probeAndComputeOwners(ctx context.Context, ledgerURL string, entry ports.CatalogEntry) (domain.Badge, []string) {
	badge := domain.BadgeUncertain
	var owners []string

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		probed, err := s.mirror.Probe(groupCtx, entry.Title)
		if err != nil {
			s.log.Warn("probe mirror", zap.String("title", entry.Title), zap.Error(err))
		}
		badge = probed
		return nil
	})
	group.Go(func() error {
		owners = s.computeOwners(groupCtx, ledgerURL, entry.AppID)
		return nil
	})
	_ = group.Wait()

	return badge, owners
}

// computeOwners queries every linked friend's catalog library and keeps
// the names whose library contains the resolved app id. Failures per
// friend are tolerated; a failed ledger read just means no owners.
func (s *AcquisitionService) computeOwners(ctx context.Context, ledgerURL string, appID int) []string {
	snapshot, err := s.ledger.Fetch(ctx, ledgerURL)
	if err != nil {
		s.log.Warn("fetch friends for owner check", zap.Error(err))
		return nil
	}

	var (
		mu     sync.Mutex
		owners []string
	)
	group, groupCtx := errgroup.WithContext(ctx)
	for _, friend := range snapshot.Friends {
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
			for _, app := range apps {
				if app == appID {
					mu.Lock()
					owners = append(owners, friend.DisplayName)
					mu.Unlock()
					break
				}
			}
			return nil
		})
	}
	_ = group.Wait()

	return owners
}

func (s *AcquisitionService) refresh(ctx context.Context, chatID int64, text string, view ports.Presentation) {
	if _, err := s.dashboard.Refresh(ctx, chatID, text, view); err != nil {
		s.log.Warn("refresh dashboard", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// linkFreeMainMenu is the main menu without a link preview, used under
// confirmation texts that embed a clickable title.
func linkFreeMainMenu() ports.Presentation {
	view := mainMenu()
	view.DisableLinkPreview = true
	return view
}
