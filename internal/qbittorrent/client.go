// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package qbittorrent

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/models"
)

const ServiceName = "qbittorrent"

// WebAPI 2.11.0 (qBittorrent 5.0) renamed the add option "paused" to "stopped".
var stoppedOptionMinVersion = semver.MustParse("2.11.0")

var ErrNoDownloadURL = errors.New("candidate has no download url")

// API is the part of go-qbittorrent the relay uses.
type API interface {
	LoginCtx(ctx context.Context) error
	GetWebAPIVersionCtx(ctx context.Context) (string, error)
	AddTorrentFromUrlCtx(ctx context.Context, url string, options map[string]string) error
}

type Config struct {
	Host          string
	Username      string
	Password      string
	BasicUsername string
	BasicPassword string
	Category      string
	Tags          []string
	SavePath      string
	StartPaused   bool
	Timeout       int
}

type Client struct {
	api             API
	cfg             Config
	webAPIVersion   string
	useStopped      bool
	lastHealthCheck time.Time
	isHealthy       bool
	mu              sync.RWMutex
}

// filteredWriter wraps stderr to filter out HTTP "unsolicited response" errors.
//
// qBittorrent occasionally sends extra HTTP responses after the main request completes,
// which makes net/http log "Unsolicited response received on idle HTTP channel" to
// stderr. go-qbittorrent does not expose its HTTP client, so the message is dropped here.
type filteredWriter struct {
	writer io.Writer
}

func (fw *filteredWriter) Write(p []byte) (n int, err error) {
	if strings.Contains(string(p), "Unsolicited response received on idle HTTP channel") {
		return len(p), nil
	}
	return fw.writer.Write(p)
}

func init() {
	stdlog.SetOutput(&filteredWriter{writer: os.Stderr})
}

// NewClient logs in and records the WebAPI version.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}

	qcfg := qbt.Config{
		Host:     cfg.Host,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  timeout,
	}
	if cfg.BasicUsername != "" {
		qcfg.BasicUser = cfg.BasicUsername
		qcfg.BasicPass = cfg.BasicPassword
	}

	return newClient(ctx, qbt.NewClient(qcfg), cfg)
}

func newClient(ctx context.Context, api API, cfg Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := api.LoginCtx(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to qBittorrent: %w", err)
	}

	webAPIVersion, err := api.GetWebAPIVersionCtx(ctx)
	if err != nil {
		webAPIVersion = ""
	}

	client := &Client{
		api:             api,
		cfg:             cfg,
		webAPIVersion:   webAPIVersion,
		useStopped:      supportsStoppedOption(webAPIVersion),
		lastHealthCheck: time.Now(),
		isHealthy:       true,
	}

	log.Debug().
		Str("host", cfg.Host).
		Str("webAPIVersion", webAPIVersion).
		Bool("useStopped", client.useStopped).
		Msg("qBittorrent client created successfully")

	return client, nil
}

func supportsStoppedOption(webAPIVersion string) bool {
	if webAPIVersion == "" {
		return false
	}
	v, err := semver.NewVersion(webAPIVersion)
	if err != nil {
		return false
	}
	return !v.LessThan(stoppedOptionMinVersion)
}

func (c *Client) Name() string {
	return ServiceName
}

// AddAndSearch adds the candidate's download URL to qBittorrent. The client fetches
// the .torrent itself, so nothing is downloaded locally.
func (c *Client) AddAndSearch(ctx context.Context, req models.MediaRequest, candidate models.Candidate) (*models.RemoteReceipt, error) {
	downloadURL := strings.TrimSpace(candidate.DownloadURL)
	if downloadURL == "" {
		return nil, ErrNoDownloadURL
	}

	options := c.addOptions()

	err := c.api.AddTorrentFromUrlCtx(ctx, downloadURL, options)
	if err != nil {
		// Sessions expire; log in once more before giving up.
		if loginErr := c.api.LoginCtx(ctx); loginErr != nil {
			c.markHealth(false)
			return nil, fmt.Errorf("add torrent failed: %w", err)
		}
		if err = c.api.AddTorrentFromUrlCtx(ctx, downloadURL, options); err != nil {
			return nil, fmt.Errorf("add torrent failed after re-login: %w", err)
		}
	}

	c.markHealth(true)

	log.Info().
		Str("title", candidate.Title).
		Str("category", c.cfg.Category).
		Msg("added torrent to qBittorrent")

	return &models.RemoteReceipt{
		Service: ServiceName,
		Title:   candidate.Title,
		Year:    req.Year,
	}, nil
}

func (c *Client) addOptions() map[string]string {
	options := map[string]string{}

	if c.cfg.Category != "" {
		options["category"] = c.cfg.Category
	}
	if len(c.cfg.Tags) > 0 {
		options["tags"] = strings.Join(c.cfg.Tags, ",")
	}
	if c.cfg.SavePath != "" {
		options["autoTMM"] = "false"
		options["savepath"] = c.cfg.SavePath
	}
	if c.cfg.StartPaused {
		c.mu.RLock()
		useStopped := c.useStopped
		c.mu.RUnlock()

		if useStopped {
			options["stopped"] = "true"
		} else {
			options["paused"] = "true"
		}
	}

	return options
}

func (c *Client) markHealth(healthy bool) {
	c.mu.Lock()
	c.isHealthy = healthy
	c.lastHealthCheck = time.Now()
	c.mu.Unlock()
}

func (c *Client) GetLastHealthCheck() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastHealthCheck
}

func (c *Client) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isHealthy
}

// HealthCheck queries the WebAPI version, logging in again if the session expired.
func (c *Client) HealthCheck(ctx context.Context) (string, error) {
	version, err := c.api.GetWebAPIVersionCtx(ctx)
	if err != nil {
		if loginErr := c.api.LoginCtx(ctx); loginErr != nil {
			c.markHealth(false)
			return "", fmt.Errorf("health check failed: login error: %w", loginErr)
		}
		if version, err = c.api.GetWebAPIVersionCtx(ctx); err != nil {
			c.markHealth(false)
			return "", fmt.Errorf("health check failed: api error: %w", err)
		}
	}

	c.mu.Lock()
	c.isHealthy = true
	c.lastHealthCheck = time.Now()
	c.webAPIVersion = version
	c.useStopped = supportsStoppedOption(version)
	c.mu.Unlock()

	return version, nil
}

func (c *Client) GetWebAPIVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.webAPIVersion
}
