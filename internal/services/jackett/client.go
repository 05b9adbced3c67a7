// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jackett

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/buildinfo"
	"github.com/autobrr/seederbot/internal/torznab"
	"github.com/autobrr/seederbot/pkg/httphelpers"
	"github.com/autobrr/seederbot/pkg/redact"
)

const (
	maxTorrentDownloadBytes int64 = 16 << 20 // 16 MiB safety limit for torrent blobs
	maxFeedBytes            int64 = 32 << 20
	maxErrorBodyBytes             = 512

	defaultIndexer        = "all"
	defaultTimeout        = 30 * time.Second
	defaultRetryAfter     = 60 * time.Second
	defaultRateLimitBurst = 5
)

// Observer receives the outcome of every request the client makes.
type Observer interface {
	ObserveIndexerRequest(operation, outcome string, duration time.Duration)
}

// Config describes how to reach a Jackett instance.
type Config struct {
	BaseURL    string
	APIKey     string
	Indexer    string
	Categories string
	Timeout    time.Duration

	RateLimit    float64
	RateBurst    int
	RateMaxWait  time.Duration
	HTTPClient   *http.Client
	Observer     Observer
	DisableLimit bool
}

// Client talks to the Jackett aggregate Torznab endpoint and its management API.
type Client struct {
	baseURL    string
	apiKey     string
	indexer    string
	categories string
	httpClient *http.Client
	limiter    *RateLimiter
	observer   Observer
}

// StatusError is returned when Jackett answers with a non-2xx status.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jackett %s returned status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("jackett %s returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// NewClient creates a client for the given Jackett instance.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	indexer := strings.TrimSpace(cfg.Indexer)
	if indexer == "" {
		indexer = defaultIndexer
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateLimitBurst
	}
	limit := cfg.RateLimit
	if cfg.DisableLimit {
		limit = 0
	}

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     cfg.APIKey,
		indexer:    indexer,
		categories: normalizeCategories(cfg.Categories),
		httpClient: httpClient,
		limiter:    NewRateLimiter(limit, burst, cfg.RateMaxWait),
		observer:   cfg.Observer,
	}
}

// BaseURL returns the configured Jackett root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RateLimiter exposes the limiter shared by search and download requests.
func (c *Client) RateLimiter() *RateLimiter {
	return c.limiter
}

// Search runs a free-text search across the configured indexer and returns the raw feed.
func (c *Client) Search(ctx context.Context, query string) ([]byte, error) {
	params := url.Values{}
	params.Set("t", "search")
	params.Set("q", query)
	if c.categories != "" {
		params.Set("cat", c.categories)
	}

	endpoint := fmt.Sprintf("%s/api/v2.0/indexers/%s/results/torznab", c.baseURL, url.PathEscape(c.indexer))

	body, err := c.get(ctx, "search", endpoint, params, "application/rss+xml, application/xml, text/xml", maxFeedBytes)
	if err != nil {
		return nil, err
	}

	if apiErr := torznab.CheckError(body); apiErr != nil {
		return nil, apiErr
	}

	log.Debug().
		Str("query", query).
		Str("indexer", c.indexer).
		Int("bytes", len(body)).
		Msg("Jackett search returned feed")

	return body, nil
}

// Download retrieves the raw torrent bytes for the provided download URL.
func (c *Client) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	if strings.TrimSpace(downloadURL) == "" {
		return nil, fmt.Errorf("download URL is required")
	}

	// Normalise relative URLs
	if !strings.HasPrefix(downloadURL, "http://") && !strings.HasPrefix(downloadURL, "https://") {
		downloadURL = c.baseURL + "/" + strings.TrimLeft(downloadURL, "/")
	}

	target, err := url.Parse(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("invalid download URL: %w", err)
	}

	// Jackett proxy links need the API key; never send it to a foreign host.
	params := url.Values{}
	if c.apiKey != "" && c.sameHost(target) && !target.Query().Has("apikey") && !target.Query().Has("jackett_apikey") {
		params.Set("apikey", c.apiKey)
	}

	return c.getRaw(ctx, "download", target, params, "application/x-bittorrent, application/octet-stream", maxTorrentDownloadBytes)
}

// ServerConfig is the subset of /api/v2.0/server/config the health check reports.
type ServerConfig struct {
	AppVersion     string `json:"app_version"`
	Port           int    `json:"port"`
	External       bool   `json:"external"`
	UpdateDisabled bool   `json:"updatedisabled"`
}

// ServerConfig fetches Jackett's server configuration. It doubles as a connectivity probe.
func (c *Client) ServerConfig(ctx context.Context) (*ServerConfig, error) {
	body, err := c.get(ctx, "server_config", c.baseURL+"/api/v2.0/server/config", url.Values{}, "application/json", maxFeedBytes)
	if err != nil {
		return nil, err
	}

	var cfg ServerConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("decode jackett server config: %w", err)
	}
	return &cfg, nil
}

// Indexer is an entry of Jackett's indexer list.
type Indexer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Configured bool   `json:"configured"`
	Language   string `json:"language"`
}

// Indexers lists every indexer Jackett knows about, configured or not.
func (c *Client) Indexers(ctx context.Context) ([]Indexer, error) {
	body, err := c.get(ctx, "indexers", c.baseURL+"/api/v2.0/indexers", url.Values{}, "application/json", maxFeedBytes)
	if err != nil {
		return nil, err
	}

	var indexers []Indexer
	if err := json.Unmarshal(body, &indexers); err != nil {
		return nil, fmt.Errorf("decode jackett indexers: %w", err)
	}
	return indexers, nil
}

// FetchCaps returns the Torznab capabilities of the configured indexer.
func (c *Client) FetchCaps(ctx context.Context) (*Caps, error) {
	params := url.Values{}
	params.Set("t", "caps")

	endpoint := fmt.Sprintf("%s/api/v2.0/indexers/%s/results/torznab/api", c.baseURL, url.PathEscape(c.indexer))
	body, err := c.get(ctx, "caps", endpoint, params, "application/xml, text/xml", maxFeedBytes)
	if err != nil {
		return nil, err
	}

	if apiErr := torznab.CheckError(body); apiErr != nil {
		return nil, apiErr
	}

	return parseTorznabCaps(bytes.NewReader(body))
}

func (c *Client) get(ctx context.Context, operation, endpoint string, params url.Values, accept string, limit int64) ([]byte, error) {
	target, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid jackett url: %w", err)
	}
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	return c.getRaw(ctx, operation, target, params, accept, limit)
}

func (c *Client) getRaw(ctx context.Context, operation string, target *url.URL, params url.Values, accept string, limit int64) (body []byte, err error) {
	start := time.Now()
	defer func() {
		c.observe(operation, err, time.Since(start))
	}()

	if err := c.limiter.BeforeRequest(ctx); err != nil {
		return nil, err
	}

	if len(params) > 0 {
		query := target.Query()
		for key, values := range params {
			for _, v := range values {
				query.Set(key, v)
			}
		}
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", operation, redact.URLError(err))
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jackett %s request failed: %w", operation, redact.URLError(err))
	}
	defer httphelpers.DrainAndClose(resp)

	if resp.StatusCode == http.StatusTooManyRequests {
		until := time.Now().Add(parseRetryAfter(resp.Header.Get("Retry-After")))
		c.limiter.SetCooldown(until)
		log.Warn().Str("operation", operation).Time("until", until).Msg("Jackett rate limited us, cooling down")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       httphelpers.Snippet(resp, maxErrorBodyBytes),
		}
	}

	data, err := httphelpers.ReadLimited(resp.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("read jackett %s body: %w", operation, err)
	}

	return data, nil
}

func (c *Client) observe(operation string, err error, d time.Duration) {
	if c.observer == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.observer.ObserveIndexerRequest(operation, outcome, d)
}

func (c *Client) sameHost(target *url.URL) bool {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(base.Host, target.Host)
}

func normalizeCategories(raw string) string {
	parts := strings.Split(raw, ",")
	cats := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cats = append(cats, part)
	}
	return strings.Join(cats, ",")
}

// ParseCategories validates a comma separated category list such as "2000,2010".
func ParseCategories(raw string) ([]int, error) {
	var cats []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid category %q", part)
		}
		cats = append(cats, id)
	}
	return cats, nil
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return defaultRetryAfter
}
