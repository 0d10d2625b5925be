// Package freetp answers whether a title has a freetp.org page. The site
// has no search API, so the probe runs a scoped web search and checks the
// first hit's URL against the title's words.
package freetp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shelfbot/shelfbot/internal/domain"
	"github.com/shelfbot/shelfbot/internal/ports"
)

const maxResponseBytes = 4 << 20

const defaultSearchBaseURL = "https://www.google.com/search"

// defaultUserAgent keeps the search engine serving the plain HTML result
// page the link pattern below is written for.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var (
	resultLinkPattern = regexp.MustCompile(`<a href="/url\?q=(https://freetp\.org/[^"&]+)`)
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
)

type Config struct {
	SearchBaseURL  string
	UserAgent      string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

type Prober struct {
	config Config
}

var _ ports.Mirror = (*Prober)(nil)

func NewProber(config Config) *Prober {
	if config.SearchBaseURL == "" {
		config.SearchBaseURL = defaultSearchBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	return &Prober{config: config}
}

// Probe reports found when the first mirror link's URL shares a
// significant word with the title, uncertain when a link exists but looks
// unrelated (or the search itself failed), and not-found when the search
// yields no mirror link at all.
func (p *Prober) Probe(ctx context.Context, title string) (domain.Badge, error) {
	cleaned := strings.TrimSpace(nonWordPattern.ReplaceAllString(title, ""))
	query := url.QueryEscape("site:freetp.org " + cleaned)

	if p.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.RequestTimeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.SearchBaseURL+"?q="+query, nil)
	if err != nil {
		return domain.BadgeUncertain, fmt.Errorf("build search request: %w", err)
	}
	request.Header.Set("User-Agent", p.config.UserAgent)

	response, err := p.config.HTTPClient.Do(request)
	if err != nil {
		return domain.BadgeUncertain, fmt.Errorf("search mirror: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return domain.BadgeUncertain, fmt.Errorf("read search response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return domain.BadgeUncertain, fmt.Errorf("unexpected status %d", response.StatusCode)
	}

	match := resultLinkPattern.FindStringSubmatch(string(body))
	if match == nil {
		return domain.BadgeNotFound, nil
	}

	if titleMatchesURL(cleaned, match[1]) {
		return domain.BadgeFound, nil
	}
	return domain.BadgeUncertain, nil
}

// titleMatchesURL accepts the hit when any significant title word (three
// or more characters) appears in the link. "Sea of Thieves" matches on
// "sea" or "thieves" but never on "of".
func titleMatchesURL(cleanedTitle, link string) bool {
	link = strings.ToLower(link)
	for _, word := range strings.Fields(strings.ToLower(cleanedTitle)) {
		if len(word) > 2 && strings.Contains(link, word) {
			return true
		}
	}
	return false
}
