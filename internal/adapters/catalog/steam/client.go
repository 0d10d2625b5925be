// Package steam resolves titles, prices, and per-account owned lists
// against the Steam store and web API.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
)

const maxResponseBytes = 4 << 20

const (
	defaultStoreBaseURL = "https://store.steampowered.com"
	defaultAPIBaseURL   = "https://api.steampowered.com"
)

type Config struct {
	// APIKey authorizes owned-list queries. Without one, every account
	// reads as owning nothing.
	APIKey string
	// StoreBaseURL and APIBaseURL default to the public endpoints.
	StoreBaseURL string
	APIBaseURL   string
	// Country and Language select the store region for prices and names.
	Country  string
	Language string

	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

type Client struct {
	config Config
}

var _ ports.Catalog = (*Client)(nil)

func NewClient(config Config) *Client {
	if config.StoreBaseURL == "" {
		config.StoreBaseURL = defaultStoreBaseURL
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
	}
	if config.Country == "" {
		config.Country = "us"
	}
	if config.Language == "" {
		config.Language = "english"
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	return &Client{config: config}
}

type appDetailsEntry struct {
	Success bool `json:"success"`
	Data    struct {
		Type          string         `json:"type"`
		Name          string         `json:"name"`
		IsFree        bool           `json:"is_free"`
		PriceOverview *priceOverview `json:"price_overview"`
	} `json:"data"`
}

type storeSearchResponse struct {
	Items []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
}

type ownedGamesResponse struct {
	Response struct {
		Games []struct {
			AppID int `json:"appid"`
		} `json:"games"`
	} `json:"response"`
}

// Resolve fetches full details for an app id. Non-game entries (bundles,
// soundtracks) and unknown ids report domain.ErrNotFound.
func (c *Client) Resolve(ctx context.Context, appID int) (ports.CatalogEntry, error) {
	endpoint := fmt.Sprintf("%s/api/appdetails?appids=%d&l=%s&cc=%s",
		c.config.StoreBaseURL, appID, url.QueryEscape(c.config.Language), url.QueryEscape(c.config.Country))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return ports.CatalogEntry{}, fmt.Errorf("fetch app details: %w", err)
	}

	var details map[string]appDetailsEntry
	if err := json.Unmarshal(body, &details); err != nil {
		return ports.CatalogEntry{}, fmt.Errorf("decode app details: %w", err)
	}

	entry, ok := details[strconv.Itoa(appID)]
	if !ok || !entry.Success {
		return ports.CatalogEntry{}, domain.ErrNotFound
	}
	if entry.Data.Type != "game" && entry.Data.Type != "dlc" {
		return ports.CatalogEntry{}, domain.ErrNotFound
	}

	return ports.CatalogEntry{
		AppID: appID,
		Title: entry.Data.Name,
		URL:   fmt.Sprintf("%s/app/%d/", c.config.StoreBaseURL, appID),
		Price: FormatPrice(entry.Data.IsFree, entry.Data.PriceOverview),
	}, nil
}

// Search runs a store text search and resolves the first hit to full
// details, so the caller gets the same formatted price as a direct link.
func (c *Client) Search(ctx context.Context, query string) (ports.CatalogEntry, error) {
	endpoint := fmt.Sprintf("%s/api/storesearch/?term=%s&l=%s&cc=%s",
		c.config.StoreBaseURL, url.QueryEscape(query), url.QueryEscape(c.config.Language), url.QueryEscape(c.config.Country))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return ports.CatalogEntry{}, fmt.Errorf("store search: %w", err)
	}

	var results storeSearchResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return ports.CatalogEntry{}, fmt.Errorf("decode search response: %w", err)
	}
	if len(results.Items) == 0 {
		return ports.CatalogEntry{}, domain.ErrNotFound
	}

	return c.Resolve(ctx, results.Items[0].ID)
}

// OwnedApps lists the app ids an account owns. Without an API key the
// query cannot run and every account reads as owning nothing.
func (c *Client) OwnedApps(ctx context.Context, accountID string) ([]int, error) {
	if c.config.APIKey == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/IPlayerService/GetOwnedGames/v0001/?key=%s&steamid=%s&format=json",
		c.config.APIBaseURL, url.QueryEscape(c.config.APIKey), url.QueryEscape(accountID))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch owned games: %w", err)
	}

	var owned ownedGamesResponse
	if err := json.Unmarshal(body, &owned); err != nil {
		return nil, fmt.Errorf("decode owned games: %w", err)
	}

	apps := make([]int, 0, len(owned.Response.Games))
	for _, game := range owned.Response.Games {
		apps = append(apps, game.AppID)
	}
	return apps, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	response, err := c.config.HTTPClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", response.StatusCode)
	}
	return body, nil
}
