package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Badge marks whether a title was located on the mirror.
type Badge string

const (
	BadgeFound     Badge = "found"
	BadgeNotFound  Badge = "not_found"
	BadgeUncertain Badge = "uncertain"
)

// Symbol returns the single-rune form stored in the ledger and shown in chat.
func (b Badge) Symbol() string {
	switch b {
	case BadgeFound:
		return "✅"
	case BadgeNotFound:
		return "❌"
	default:
		return "❓"
	}
}

// ParseBadge maps a stored symbol back to a Badge. Unknown values read as
// uncertain rather than failing, since the ledger column is free-form.
func ParseBadge(symbol string) Badge {
	switch strings.TrimSpace(symbol) {
	case "✅":
		return BadgeFound
	case "❌":
		return BadgeNotFound
	default:
		return BadgeUncertain
	}
}

// GameRecord is one row of the shared library as the ledger stores it.
type GameRecord struct {
	ID     int
	Title  string
	URL    string
	Price  string
	Mirror Badge
	Owners []string
}

var appURLPattern = regexp.MustCompile(`/app/(\d+)`)

// AppID extracts the catalog application id encoded in the record's URL.
// Records whose URL carries no recognizable id return ok=false.
func (g GameRecord) AppID() (int, bool) {
	return ExtractAppID(g.URL)
}

// ExtractAppID pulls a catalog app id out of a store URL.
func ExtractAppID(url string) (int, bool) {
	match := appURLPattern.FindStringSubmatch(url)
	if match == nil {
		return 0, false
	}
	id, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// HasOwner reports whether name is already recorded on the game.
func (g GameRecord) HasOwner(name string) bool {
	for _, owner := range g.Owners {
		if owner == name {
			return true
		}
	}
	return false
}

// OwnersLabel renders the owner set for chat and ledger boundaries.
// An empty set renders as "-", matching the ledger's placeholder.
func OwnersLabel(owners []string) string {
	if len(owners) == 0 {
		return "-"
	}
	return strings.Join(owners, ", ")
}

// SplitOwners parses the ledger's comma-joined owner column.
func SplitOwners(label string) []string {
	label = strings.TrimSpace(label)
	if label == "" || label == "-" {
		return nil
	}
	parts := strings.Split(label, ",")
	owners := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			owners = append(owners, trimmed)
		}
	}
	return owners
}
