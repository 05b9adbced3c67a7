// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package radarr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/pkg/httphelpers"
	"github.com/autobrr/seederbot/pkg/redact"
)

const (
	defaultTimeout          = 30 * time.Second
	defaultRetryAttempts    = 3
	defaultRetryDelay       = 500 * time.Millisecond
	defaultQualityProfileID = 4
	defaultRootFolder       = "/movies"
	maxErrorBodyBytes       = 4 << 10
)

// ErrMovieNotFound is returned by GrabMovie when the lookup has no results.
var ErrMovieNotFound = errors.New("no movies found")

// Config holds the options for constructing a Client.
type Config struct {
	Host             string
	APIKey           string
	Timeout          int
	HTTPClient       *http.Client
	UserAgent        string
	QualityProfileID int
	RootFolder       string
	RetryAttempts    uint
	RetryDelay       time.Duration
}

// Client is a minimal Radarr v3 API wrapper covering lookup, add and status.
type Client struct {
	host             string
	apiKey           string
	httpClient       *http.Client
	userAgent        string
	qualityProfileID int
	rootFolder       string
	retryAttempts    uint
	retryDelay       time.Duration
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("radarr %s returned status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("radarr %s returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the same request could succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// Image is a poster/fanart reference carried from lookup into add.
type Image struct {
	CoverType string `json:"coverType"`
	URL       string `json:"url,omitempty"`
	RemoteURL string `json:"remoteUrl,omitempty"`
}

// Movie is the subset of Radarr's movie resource the relay reads or forwards.
type Movie struct {
	ID        int      `json:"id,omitempty"`
	Title     string   `json:"title"`
	Year      int      `json:"year,omitempty"`
	TMDBID    int      `json:"tmdbId,omitempty"`
	IMDBID    string   `json:"imdbId,omitempty"`
	TitleSlug string   `json:"titleSlug,omitempty"`
	Images    []Image  `json:"images"`
	Genres    []string `json:"genres"`
	Runtime   int      `json:"runtime,omitempty"`
	Overview  string   `json:"overview,omitempty"`
	Monitored bool     `json:"monitored,omitempty"`
}

// AddOptions controls what Radarr does right after adding a movie.
type AddOptions struct {
	SearchForMovie bool `json:"searchForMovie"`
}

// AddMovieRequest is the POST /api/v3/movie payload.
type AddMovieRequest struct {
	Title               string     `json:"title"`
	QualityProfileID    int        `json:"qualityProfileId"`
	RootFolderPath      string     `json:"rootFolderPath"`
	Monitored           bool       `json:"monitored"`
	MinimumAvailability string     `json:"minimumAvailability"`
	TMDBID              int        `json:"tmdbId,omitempty"`
	IMDBID              string     `json:"imdbId,omitempty"`
	Year                int        `json:"year,omitempty"`
	TitleSlug           string     `json:"titleSlug,omitempty"`
	Images              []Image    `json:"images"`
	Genres              []string   `json:"genres"`
	Runtime             int        `json:"runtime,omitempty"`
	Overview            string     `json:"overview,omitempty"`
	AddOptions          AddOptions `json:"addOptions"`
}

// SystemStatus is the subset of /api/v3/system/status used by health checks.
type SystemStatus struct {
	AppName     string `json:"appName"`
	Version     string `json:"version"`
	StartupPath string `json:"startupPath"`
	IsDebug     bool   `json:"isDebug"`
}

// GrabResult describes a successful GrabMovie call.
type GrabResult struct {
	Movie           Movie
	Added           Movie
	SearchTriggered bool
}

// NewClient constructs a new Client using the provided configuration.
func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = "seederbot"
	}

	profile := cfg.QualityProfileID
	if profile <= 0 {
		profile = defaultQualityProfileID
	}

	root := strings.TrimSpace(cfg.RootFolder)
	if root == "" {
		root = defaultRootFolder
	}

	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = defaultRetryAttempts
	}

	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	return &Client{
		host:             strings.TrimRight(cfg.Host, "/"),
		apiKey:           cfg.APIKey,
		httpClient:       client,
		userAgent:        ua,
		qualityProfileID: profile,
		rootFolder:       root,
		retryAttempts:    attempts,
		retryDelay:       delay,
	}
}

func (c *Client) Host() string {
	return c.host
}

// LookupMovie searches Radarr's metadata source for term.
func (c *Client) LookupMovie(ctx context.Context, term string) ([]Movie, error) {
	query := url.Values{}
	query.Set("term", term)

	var movies []Movie
	if err := c.getJSON(ctx, "lookup", []string{"api", "v3", "movie", "lookup"}, query, &movies); err != nil {
		return nil, err
	}

	log.Debug().Str("term", term).Int("results", len(movies)).Msg("radarr lookup")
	return movies, nil
}

// SystemStatus fetches the instance status, used for health and version checks.
func (c *Client) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	var status SystemStatus
	if err := c.getJSON(ctx, "system status", []string{"api", "v3", "system", "status"}, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// NewAddMovieRequest builds the add payload for a lookup result. The movie is
// monitored and Radarr is told to search for it immediately.
func (c *Client) NewAddMovieRequest(movie Movie) AddMovieRequest {
	images := movie.Images
	if images == nil {
		images = []Image{}
	}
	genres := movie.Genres
	if genres == nil {
		genres = []string{}
	}

	return AddMovieRequest{
		Title:               movie.Title,
		QualityProfileID:    c.qualityProfileID,
		RootFolderPath:      c.rootFolder,
		Monitored:           true,
		MinimumAvailability: "released",
		TMDBID:              movie.TMDBID,
		IMDBID:              movie.IMDBID,
		Year:                movie.Year,
		TitleSlug:           movie.TitleSlug,
		Images:              images,
		Genres:              genres,
		Runtime:             movie.Runtime,
		Overview:            movie.Overview,
		AddOptions:          AddOptions{SearchForMovie: true},
	}
}

// AddMovie adds movie to Radarr. It is not retried since a repeated POST could
// race an earlier one that actually landed.
func (c *Client) AddMovie(ctx context.Context, movie Movie) (*Movie, error) {
	payload, err := json.Marshal(c.NewAddMovieRequest(movie))
	if err != nil {
		return nil, fmt.Errorf("failed to encode radarr add request: %w", err)
	}

	endpoint, err := c.endpoint("api", "v3", "movie")
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build radarr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("radarr add request failed: %w", redact.URLError(err))
	}
	defer httphelpers.DrainAndClose(resp)

	if err := checkStatus("add movie", resp); err != nil {
		log.Error().Err(err).Str("title", movie.Title).Msg("radarr rejected movie")
		return nil, err
	}

	var added Movie
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return nil, fmt.Errorf("failed to decode radarr add response: %w", err)
	}

	log.Info().Str("title", movie.Title).Int("id", added.ID).Msg("added movie to radarr")
	return &added, nil
}

// GrabMovie looks up title, prefers the first result whose year matches, and adds
// it with search enabled.
func (c *Client) GrabMovie(ctx context.Context, title string, year int) (*GrabResult, error) {
	term := strings.TrimSpace(title)
	if year > 0 {
		term = term + " " + strconv.Itoa(year)
	}

	movies, err := c.LookupMovie(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, fmt.Errorf("%w for '%s'", ErrMovieNotFound, title)
	}

	selected := PickMovie(movies, year)

	log.Info().Str("title", selected.Title).Int("year", selected.Year).Msg("selected radarr movie")

	added, err := c.AddMovie(ctx, selected)
	if err != nil {
		return nil, err
	}

	return &GrabResult{Movie: selected, Added: *added, SearchTriggered: true}, nil
}

// PickMovie returns the first movie matching year, else the first movie.
// movies must not be empty.
func PickMovie(movies []Movie, year int) Movie {
	if year > 0 {
		for _, m := range movies {
			if m.Year == year {
				return m
			}
		}
	}
	return movies[0]
}

func (c *Client) getJSON(ctx context.Context, operation string, path []string, query url.Values, out any) error {
	endpoint, err := c.endpoint(path...)
	if err != nil {
		return err
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to build radarr request: %w", err))
			}
			if len(query) > 0 {
				req.URL.RawQuery = query.Encode()
			}
			c.setHeaders(req)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("radarr %s request failed: %w", operation, redact.URLError(err))
			}
			defer httphelpers.DrainAndClose(resp)

			if err := checkStatus(operation, resp); err != nil {
				return err
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to decode radarr %s response: %w", operation, err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retryAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Uint("attempt", n+1).Str("operation", operation).Msg("retrying radarr request")
		}),
	)
}

func (c *Client) endpoint(parts ...string) (string, error) {
	if c.host == "" {
		return "", errors.New("radarr host is not configured")
	}
	endpoint, err := url.JoinPath(c.host, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to build radarr endpoint: %w", err)
	}
	return endpoint, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

func checkStatus(operation string, resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	return &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: httphelpers.Snippet(resp, maxErrorBodyBytes)}
}

func isRetryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
