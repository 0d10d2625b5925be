package ports

import "context"

// CatalogEntry is a resolved store title with its canonical URL and the
// price already formatted for display.
type CatalogEntry struct {
	AppID int
	Title string
	URL   string
	Price string
}

// Catalog resolves titles and ids against the store and lists the app ids
// an account owns. Resolve and Search report domain.ErrNotFound when the
// store yields nothing usable.
type Catalog interface {
	Resolve(ctx context.Context, appID int) (CatalogEntry, error)
	Search(ctx context.Context, query string) (CatalogEntry, error)
	OwnedApps(ctx context.Context, accountID string) ([]int, error)
}
