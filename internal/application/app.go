package application

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
	"go.uber.org/zap"
)

// TextEvent is an inbound free-text message.
type TextEvent struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
}

// ActionEvent is an inline keyboard press.
type ActionEvent struct {
	ChatID   int64
	UserID   int64
	ActionID string
	Action   string
}

// textHandler owns one session state. It processes a message only when the
// sender's current state matches; otherwise the event passes to the next
// handler in registration order.
type textHandler struct {
	state  domain.SessionState
	handle func(ctx context.Context, event TextEvent)
}

// actionRoute binds a button action pattern to a handler. Routes are
// evaluated in registration order and the first match wins.
type actionRoute struct {
	pattern *regexp.Regexp
	handle  func(ctx context.Context, event ActionEvent, args []string)
}

// App wires the session, dashboard, and cache engines behind the explicit
// dispatch tables the chat adapter feeds events into.
type App struct {
	sessions    *SessionStore
	dashboard   *Dashboard
	library     *LibraryService
	deletion    *DeletionService
	acquisition *AcquisitionService
	prices      *PriceService
	settings    ports.SettingsRepository
	ledger      ports.Ledger
	transport   ports.Transport
	log         *zap.Logger

	textHandlers []textHandler
	actionRoutes []actionRoute
}

func NewApp(
	sessions *SessionStore,
	dashboard *Dashboard,
	library *LibraryService,
	deletion *DeletionService,
	acquisition *AcquisitionService,
	prices *PriceService,
	settings ports.SettingsRepository,
	ledger ports.Ledger,
	transport ports.Transport,
	log *zap.Logger,
) *App {
	if log == nil {
		log = zap.NewNop()
	}
	app := &App{
		sessions:    sessions,
		dashboard:   dashboard,
		library:     library,
		deletion:    deletion,
		acquisition: acquisition,
		prices:      prices,
		settings:    settings,
		ledger:      ledger,
		transport:   transport,
		log:         log,
	}
	app.registerTextHandlers()
	app.registerActionRoutes()
	return app
}

// Start handles the /start command: a clean slate and a fresh dashboard.
func (a *App) Start(ctx context.Context, chatID, userID int64, messageID int) {
	a.dashboard.CleanUserInput(ctx, chatID, messageID)
	a.sessions.ClearChat(chatID)
	a.refresh(ctx, chatID, "👋 <b>Shared game shelf</b>", mainMenu())
}

// HandleText runs the ordered state-owned handler chain. A message whose
// sender is in no matching state falls through to a no-op.
func (a *App) HandleText(ctx context.Context, event TextEvent) {
	state := a.sessions.Get(event.ChatID, event.UserID)
	for _, handler := range a.textHandlers {
		if handler.state == state {
			handler.handle(ctx, event)
			return
		}
	}
}

// HandleAction dispatches a button press. Returning to the main menu drops
// both caches and all of the chat's session states before any route runs —
// a cross-cutting reset that precedes menu-specific handling.
func (a *App) HandleAction(ctx context.Context, event ActionEvent) {
	if event.Action == actionMainMenu {
		a.library.Invalidate(event.ChatID)
		a.deletion.Invalidate(event.ChatID)
		a.sessions.ClearChat(event.ChatID)
	}

	for _, route := range a.actionRoutes {
		if match := route.pattern.FindStringSubmatch(event.Action); match != nil {
			route.handle(ctx, event, match[1:])
			return
		}
	}

	a.log.Debug("unrouted action", zap.String("action", event.Action))
	a.notify(ctx, event.ActionID, "")
}

func (a *App) registerTextHandlers() {
	a.textHandlers = []textHandler{
		{state: domain.StateAwaitingGameLink, handle: a.handleGameInput},
		{state: domain.StateAwaitingLedgerURL, handle: a.handleLedgerURLInput},
		{state: domain.StateAwaitingFriendData, handle: a.handleFriendInput},
	}
}

func (a *App) registerActionRoutes() {
	exact := func(action string) *regexp.Regexp {
		return regexp.MustCompile("^" + regexp.QuoteMeta(action) + "$")
	}
	page := func(prefix string) *regexp.Regexp {
		return regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `(\d+)$`)
	}

	a.actionRoutes = []actionRoute{
		{exact(actionMainMenu), a.openMainMenu},
		{exact(actionLibrary), a.openLibrary},
		{page(libraryPagePrefix), a.turnLibraryPage},
		{exact(actionDeleteMenu), a.openDeletionMenu},
		{page(deletionPagePrefix), a.turnDeletionPage},
		{page(deleteGamePrefix), a.removeGame},
		{exact(actionAddGame), a.beginAddGame},
		{exact(actionSettings), a.openSettings},
		{exact(actionLinkLedger), a.beginLinkLedger},
		{exact(actionAddFriend), a.beginAddFriend},
		{exact(actionUpdatePrices), a.updatePrices},
		{exact(actionCancel), a.cancel},
		{exact(actionClose), a.close},
	}
}

func (a *App) openMainMenu(ctx context.Context, event ActionEvent, _ []string) {
	a.notify(ctx, event.ActionID, "")
	a.refresh(ctx, event.ChatID, "🏠 <b>Main menu</b>", mainMenu())
}

func (a *App) openLibrary(ctx context.Context, event ActionEvent, _ []string) {
	a.notify(ctx, event.ActionID, "")
	a.library.View(ctx, event.ChatID, 1, false)
}

func (a *App) turnLibraryPage(ctx context.Context, event ActionEvent, args []string) {
	a.notify(ctx, event.ActionID, "")
	a.library.View(ctx, event.ChatID, mustAtoi(args[0]), true)
}

func (a *App) openDeletionMenu(ctx context.Context, event ActionEvent, _ []string) {
	a.notify(ctx, event.ActionID, "")
	a.deletion.View(ctx, event.ChatID, 1, false)
}

func (a *App) turnDeletionPage(ctx context.Context, event ActionEvent, args []string) {
	a.notify(ctx, event.ActionID, "")
	a.deletion.View(ctx, event.ChatID, mustAtoi(args[0]), true)
}

func (a *App) removeGame(ctx context.Context, event ActionEvent, args []string) {
	err := a.deletion.RemoveGame(ctx, event.ChatID, mustAtoi(args[0]))
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		a.notify(ctx, event.ActionID, "❌ No ledger linked")
		return
	case err != nil:
		a.notify(ctx, event.ActionID, "⚠️ Request sent, no confirmation received.")
	default:
		a.notify(ctx, event.ActionID, "✅ Game removed")
	}
	a.deletion.View(ctx, event.ChatID, 1, true)
}

func (a *App) beginAddGame(ctx context.Context, event ActionEvent, _ []string) {
	a.notify(ctx, event.ActionID, "")
	a.sessions.Set(event.ChatID, event.UserID, domain.StateAwaitingGameLink)
	a.refresh(ctx, event.ChatID,
		"🎮 <b>Add a game</b>\nSend a store link <b>or</b> just the title.",
		cancelMenu())
}

func (a *App) openSettings(ctx context.Context, event ActionEvent, _ []string) {
	a.notify(ctx, event.ActionID, "")
	a.sessions.ClearChat(event.ChatID)
	a.refresh(ctx, event.ChatID, "⚙️ <b>Settings</b>", settingsMenu())
}

func (a *App) beginLinkLedger(ctx context.Context, event ActionEvent, _ []string) {
	a.notify(ctx, event.ActionID, "")
	a.sessions.Set(event.ChatID, event.UserID, domain.StateAwaitingLedgerURL)
	a.refresh(ctx, event.ChatID,
		"🔗 <b>Link the ledger</b>\nSend the ledger web app URL.",
		cancelMenu())
}

func (a *App) beginAddFriend(ctx context.Context, event ActionEvent, _ []string) {
	a.notify(ctx, event.ActionID, "")
	a.sessions.Set(event.ChatID, event.UserID, domain.StateAwaitingFriendData)
	a.refresh(ctx, event.ChatID,
		"👤 <b>Add a friend</b>\nSend: account id (17 digits) and a name.",
		cancelMenu())
}

func (a *App) updatePrices(ctx context.Context, event ActionEvent, _ []string) {
	if !a.prices.Configured(ctx, event.ChatID) {
		a.notify(ctx, event.ActionID, "❌ No ledger linked")
		return
	}
	a.notify(ctx, event.ActionID, "Starting the update...")
	a.prices.RefreshAll(ctx, event.ChatID)
}

func (a *App) cancel(ctx context.Context, event ActionEvent, _ []string) {
	a.notify(ctx, event.ActionID, "")
	a.sessions.Clear(event.ChatID, event.UserID)
	a.refresh(ctx, event.ChatID, "🚫 Action cancelled.", mainMenu())
}

func (a *App) close(ctx context.Context, event ActionEvent, _ []string) {
	if err := a.dashboard.Close(ctx, event.ChatID); err != nil {
		a.log.Debug("close dashboard", zap.Int64("chat_id", event.ChatID), zap.Error(err))
		a.notify(ctx, event.ActionID, "Couldn't close")
		return
	}
	a.notify(ctx, event.ActionID, "")
}

func (a *App) handleGameInput(ctx context.Context, event TextEvent) {
	a.acquisition.AddGame(ctx, event.ChatID, event.UserID, event.Text, event.MessageID)
}

// handleLedgerURLInput stores the chat's ledger endpoint. A malformed link
// re-enters the awaiting state so the user can resubmit.
func (a *App) handleLedgerURLInput(ctx context.Context, event TextEvent) {
	a.dashboard.CleanUserInput(ctx, event.ChatID, event.MessageID)

	text := strings.TrimSpace(event.Text)
	if !strings.HasPrefix(text, "http") {
		a.refresh(ctx, event.ChatID, "❌ <b>Error!</b>\nThat doesn't look like a URL.", cancelMenu())
		return
	}

	record, err := a.settings.Get(ctx, event.ChatID)
	if err != nil {
		a.log.Warn("read chat settings", zap.Int64("chat_id", event.ChatID), zap.Error(err))
		record.ChatID = event.ChatID
	}
	record.ChatID = event.ChatID
	record.LedgerURL = text
	if err := a.settings.Save(ctx, record); err != nil {
		a.log.Warn("save ledger url", zap.Int64("chat_id", event.ChatID), zap.Error(err))
		a.refresh(ctx, event.ChatID, "❌ Couldn't save the settings.", cancelMenu())
		return
	}

	a.sessions.Clear(event.ChatID, event.UserID)
	a.refresh(ctx, event.ChatID, "✅ Ledger linked!", mainMenu())
}

// handleFriendInput validates and submits a new friend record. A format
// error re-enters the awaiting state; a ledger failure keeps it too, so
// the same line can be resent.
func (a *App) handleFriendInput(ctx context.Context, event TextEvent) {
	a.dashboard.CleanUserInput(ctx, event.ChatID, event.MessageID)

	friend, err := domain.ParseFriendInput(event.Text)
	if err != nil {
		a.refresh(ctx, event.ChatID,
			"❌ <b>Format error!</b>\nAccount id (17 digits) followed by a name.",
			cancelMenu())
		return
	}

	record, err := a.settings.Get(ctx, event.ChatID)
	if err != nil || !record.Configured() {
		a.sessions.Clear(event.ChatID, event.UserID)
		a.refresh(ctx, event.ChatID, "⚠️ No ledger linked yet. Open Settings to link one.", mainMenu())
		return
	}

	if err := a.ledger.AddFriend(ctx, record.LedgerURL, friend); err != nil {
		a.log.Warn("add friend to ledger", zap.Int64("chat_id", event.ChatID), zap.Error(err))
		a.refresh(ctx, event.ChatID, "❌ Ledger error.", mainMenu())
		return
	}

	a.sessions.Clear(event.ChatID, event.UserID)
	a.refresh(ctx, event.ChatID, "✅ Friend added!", mainMenu())
}

func (a *App) refresh(ctx context.Context, chatID int64, text string, view ports.Presentation) {
	if _, err := a.dashboard.Refresh(ctx, chatID, text, view); err != nil {
		a.log.Warn("refresh dashboard", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (a *App) notify(ctx context.Context, actionID, text string) {
	if actionID == "" {
		return
	}
	if err := a.transport.Notify(ctx, actionID, text); err != nil {
		a.log.Debug("answer action", zap.Error(err))
	}
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
