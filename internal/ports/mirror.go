package ports

import (
	"context"

	"github.com/shelfbot/shelfbot/internal/domain"
)

// Mirror probes whether a title is available on the mirror site. Probes
// that fail still return a usable badge (uncertain) alongside the error.
type Mirror interface {
	Probe(ctx context.Context, title string) (domain.Badge, error)
}
