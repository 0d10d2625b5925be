// Package webapp talks to the ledger: a web-app endpoint that serves the
// whole record set on GET and accepts JSON action envelopes on POST.
package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
)

const maxResponseBytes = 4 << 20

const (
	actionAdd               = "add"
	actionRemoveGame        = "remove_game"
	actionAddUser           = "add_user"
	actionUpdateOwnersBatch = "update_owners_batch"
	actionUpdatePriceBatch  = "update_price_batch"

	statusSuccess = "success"
)

type Client struct {
	httpClient     *http.Client
	requestTimeout time.Duration
}

var _ ports.Ledger = (*Client)(nil)

func NewClient(httpClient *http.Client, requestTimeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, requestTimeout: requestTimeout}
}

type gameSchema struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Price  string `json:"price"`
	Freetp string `json:"freetp"`
	Owners string `json:"owners"`
}

type userSchema struct {
	SteamID string `json:"steamId"`
	Name    string `json:"name"`
}

type snapshotSchema struct {
	Games []gameSchema `json:"games"`
	Users []userSchema `json:"users"`
}

type addResponse struct {
	Status string `json:"status"`
}

// Fetch reads the complete remote state.
func (c *Client) Fetch(ctx context.Context, url string) (ports.LedgerSnapshot, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return ports.LedgerSnapshot{}, fmt.Errorf("fetch ledger: %w", err)
	}

	var snapshot snapshotSchema
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return ports.LedgerSnapshot{}, fmt.Errorf("decode ledger snapshot: %w", err)
	}

	result := ports.LedgerSnapshot{
		Games:   make([]domain.GameRecord, 0, len(snapshot.Games)),
		Friends: make([]domain.FriendRecord, 0, len(snapshot.Users)),
	}
	for _, game := range snapshot.Games {
		result.Games = append(result.Games, domain.GameRecord{
			ID:     game.ID,
			Title:  game.Name,
			URL:    game.URL,
			Price:  game.Price,
			Mirror: domain.ParseBadge(game.Freetp),
			Owners: domain.SplitOwners(game.Owners),
		})
	}
	for _, user := range snapshot.Users {
		result.Friends = append(result.Friends, domain.FriendRecord{
			ExternalID:  user.SteamID,
			DisplayName: user.Name,
		})
	}
	return result, nil
}

// AddGame submits a complete new record. The ledger answers with a status
// distinguishing a created row from an already-present title.
func (c *Client) AddGame(ctx context.Context, url string, request ports.AddGameRequest) (ports.AddOutcome, error) {
	body, err := c.post(ctx, url, map[string]any{
		"action": actionAdd,
		"title":  request.Title,
		"url":    request.URL,
		"date":   request.Date,
		"freetp": request.Mirror.Symbol(),
		"owners": domain.OwnersLabel(request.Owners),
		"price":  request.Price,
	})
	if err != nil {
		return 0, fmt.Errorf("add game: %w", err)
	}

	var response addResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return 0, fmt.Errorf("decode add response: %w", err)
	}
	if response.Status == statusSuccess {
		return ports.AddCreated, nil
	}
	return ports.AddDuplicate, nil
}

func (c *Client) RemoveGame(ctx context.Context, url string, id int) error {
	if _, err := c.post(ctx, url, map[string]any{
		"action": actionRemoveGame,
		"id":     id,
	}); err != nil {
		return fmt.Errorf("remove game: %w", err)
	}
	return nil
}

func (c *Client) AddFriend(ctx context.Context, url string, friend domain.FriendRecord) error {
	if _, err := c.post(ctx, url, map[string]any{
		"action":  actionAddUser,
		"steamId": friend.ExternalID,
		"name":    friend.DisplayName,
	}); err != nil {
		return fmt.Errorf("add friend: %w", err)
	}
	return nil
}

func (c *Client) UpdateOwners(ctx context.Context, url string, updates []ports.OwnersUpdate) error {
	payload := make([]map[string]any, 0, len(updates))
	for _, update := range updates {
		payload = append(payload, map[string]any{
			"id":     update.ID,
			"owners": domain.OwnersLabel(update.Owners),
		})
	}
	if _, err := c.post(ctx, url, map[string]any{
		"action":  actionUpdateOwnersBatch,
		"updates": payload,
	}); err != nil {
		return fmt.Errorf("update owners batch: %w", err)
	}
	return nil
}

func (c *Client) UpdatePrices(ctx context.Context, url string, updates []ports.PriceUpdate) error {
	payload := make([]map[string]any, 0, len(updates))
	for _, update := range updates {
		payload = append(payload, map[string]any{
			"id":    update.ID,
			"price": update.Price,
		})
	}
	if _, err := c.post(ctx, url, map[string]any{
		"action":  actionUpdatePriceBatch,
		"updates": payload,
	}); err != nil {
		return fmt.Errorf("update price batch: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("ledger url is empty")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	return c.do(request)
}

func (c *Client) post(ctx context.Context, url string, payload map[string]any) ([]byte, error) {
	if url == "" {
		return nil, errors.New("ledger url is empty")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	return c.do(request)
}

func (c *Client) do(request *http.Request) ([]byte, error) {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", response.StatusCode)
	}
	return body, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}
