package application

import (
	"fmt"
	"strings"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
)

// Action ids carried in inline keyboard buttons.
const (
	actionMainMenu     = "menu_main"
	actionLibrary      = "menu_library"
	actionAddGame      = "menu_add_game"
	actionSettings     = "menu_settings"
	actionDeleteMenu   = "menu_delete"
	actionLinkLedger   = "set_link_ledger"
	actionAddFriend    = "set_add_friend"
	actionUpdatePrices = "action_update_prices"
	actionCancel       = "action_cancel"
	actionClose        = "action_close"

	libraryPagePrefix  = "lib_page_"
	deletionPagePrefix = "del_page_"
	deleteGamePrefix   = "del_game_"
)

const pageSize = 5

func mainMenu() ports.Presentation {
	return ports.Presentation{
		HTML: true,
		Keyboard: [][]ports.Button{
			{
				{Label: "📚 Library", Action: actionLibrary},
				{Label: "➕ Add game", Action: actionAddGame},
			},
			{
				{Label: "⚙️ Settings", Action: actionSettings},
				{Label: "🗑 Delete game", Action: actionDeleteMenu},
			},
			{
				{Label: "✖️ Close", Action: actionClose},
			},
		},
	}
}

func settingsMenu() ports.Presentation {
	return ports.Presentation{
		HTML: true,
		Keyboard: [][]ports.Button{
			{{Label: "🔗 Link ledger", Action: actionLinkLedger}},
			{{Label: "👤 Add friend", Action: actionAddFriend}},
			{{Label: "🔄 Update prices", Action: actionUpdatePrices}},
			{{Label: "🔙 Back", Action: actionMainMenu}},
		},
	}
}

func cancelMenu() ports.Presentation {
	return ports.Presentation{
		HTML: true,
		Keyboard: [][]ports.Button{
			{{Label: "🔙 Cancel", Action: actionCancel}},
		},
	}
}

// libraryPageView renders one page of the shared library: a compact block
// per record plus prev/next navigation where more pages exist.
func libraryPageView(games []domain.GameRecord, page, totalPages int) (string, ports.Presentation) {
	var b strings.Builder
	fmt.Fprintf(&b, "📚 <b>Library (page %d/%d)</b>\n\n", page, totalPages)
	for _, game := range domain.PageSlice(games, page, pageSize) {
		fmt.Fprintf(&b, "🆔 <b>%d</b> | <a href=\"%s\">%s</a>\n", game.ID, game.URL, game.Title)
		if game.Price != "" {
			fmt.Fprintf(&b, "💰 %s | ", game.Price)
		}
		fmt.Fprintf(&b, "🏴‍☠️ %s\n", game.Mirror.Symbol())
		fmt.Fprintf(&b, "👥 %s\n\n", domain.OwnersLabel(game.Owners))
	}

	var rows [][]ports.Button
	if nav := pageNav(page, totalPages, libraryPagePrefix); len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []ports.Button{{Label: "🔙 Main menu", Action: actionMainMenu}})

	return b.String(), ports.Presentation{HTML: true, DisableLinkPreview: true, Keyboard: rows}
}

// deletionPageView renders the removal menu: one button per record, each
// deleting immediately and optimistically.
func deletionPageView(games []domain.GameRecord, page, totalPages int) (string, ports.Presentation) {
	text := fmt.Sprintf("🗑 <b>Delete (page %d/%d)</b>\nTap a game to remove it. It disappears from the list immediately.", page, totalPages)

	var rows [][]ports.Button
	for _, game := range domain.PageSlice(games, page, pageSize) {
		rows = append(rows, []ports.Button{{
			Label:  "❌ " + game.Title,
			Action: fmt.Sprintf("%s%d", deleteGamePrefix, game.ID),
		}})
	}
	if nav := pageNav(page, totalPages, deletionPagePrefix); len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []ports.Button{{Label: "🔙 Main menu", Action: actionMainMenu}})

	return text, ports.Presentation{HTML: true, Keyboard: rows}
}

func pageNav(page, totalPages int, prefix string) []ports.Button {
	var nav []ports.Button
	if page > 1 {
		nav = append(nav, ports.Button{Label: "⬅️", Action: fmt.Sprintf("%s%d", prefix, page-1)})
	}
	if page < totalPages {
		nav = append(nav, ports.Button{Label: "➡️", Action: fmt.Sprintf("%s%d", prefix, page+1)})
	}
	return nav
}

func acquisitionCreatedView(entry ports.CatalogEntry, owners []string, badge domain.Badge) string {
	return fmt.Sprintf(
		"✅ <b>Added!</b>\n🎮 <a href=\"%s\">%s</a>\n💰 %s\n👤 %s\n🏴‍☠️ Mirror: %s",
		entry.URL, entry.Title, entry.Price, domain.OwnersLabel(owners), badge.Symbol(),
	)
}

func acquisitionDuplicateView(entry ports.CatalogEntry) string {
	return fmt.Sprintf("✋ Already on the list.\n🎮 <a href=\"%s\">%s</a>", entry.URL, entry.Title)
}
