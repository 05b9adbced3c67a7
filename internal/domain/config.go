// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/jackett"
	"github.com/autobrr/seederbot/internal/services/selection"
)

// MinAppTokenLength is the shortest token accepted for the webhook API.
const MinAppTokenLength = 32

// Config represents the application configuration
type Config struct {
	Version  string `toml:"-" mapstructure:"-"`
	Mode     string `toml:"mode" mapstructure:"mode"`
	Host     string `toml:"host" mapstructure:"host"`
	Port     int    `toml:"port" mapstructure:"port"`
	BaseURL  string `toml:"baseUrl" mapstructure:"baseUrl"`
	AppToken string `toml:"appToken" mapstructure:"appToken"`

	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogFormat     string `toml:"logFormat" mapstructure:"logFormat"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`

	MaxConcurrentRequests int           `toml:"maxConcurrentRequests" mapstructure:"maxConcurrentRequests"`
	RequestTimeout        time.Duration `toml:"requestTimeout" mapstructure:"requestTimeout"`
	CacheTTL              time.Duration `toml:"cacheTTL" mapstructure:"cacheTTL"`
	RateLimitPerSecond    float64       `toml:"rateLimitPerSecond" mapstructure:"rateLimitPerSecond"`
	RateLimitBurst        int           `toml:"rateLimitBurst" mapstructure:"rateLimitBurst"`
	RetryAttempts         int           `toml:"retryAttempts" mapstructure:"retryAttempts"`
	RetryDelay            time.Duration `toml:"retryDelay" mapstructure:"retryDelay"`

	CORSAllowedOrigins []string `toml:"corsAllowedOrigins" mapstructure:"corsAllowedOrigins"`

	RadarrURL        string `toml:"radarrUrl" mapstructure:"radarrUrl"`
	RadarrAPIKey     string `toml:"radarrApiKey" mapstructure:"radarrApiKey"`
	RootFolder       string `toml:"rootFolder" mapstructure:"rootFolder"`
	QualityProfileID int    `toml:"qualityProfileId" mapstructure:"qualityProfileId"`

	JackettURL     string `toml:"jackettUrl" mapstructure:"jackettUrl"`
	JackettAPIKey  string `toml:"jackettApiKey" mapstructure:"jackettApiKey"`
	JackettIndexer string `toml:"jackettIndexer" mapstructure:"jackettIndexer"`
	Categories     string `toml:"categories" mapstructure:"categories"`

	MinSeeders   int     `toml:"minSeeders" mapstructure:"minSeeders"`
	QualityRegex string  `toml:"qualityRegex" mapstructure:"qualityRegex"`
	ExcludeRegex string  `toml:"excludeRegex" mapstructure:"excludeRegex"`
	MinSizeGB    float64 `toml:"minSizeGb" mapstructure:"minSizeGb"`
	MaxSizeGB    float64 `toml:"maxSizeGb" mapstructure:"maxSizeGb"`

	WatchDir string `toml:"watchDir" mapstructure:"watchDir"`

	QbitHost          string   `toml:"qbitHost" mapstructure:"qbitHost"`
	QbitUsername      string   `toml:"qbitUsername" mapstructure:"qbitUsername"`
	QbitPassword      string   `toml:"qbitPassword" mapstructure:"qbitPassword"`
	QbitBasicUsername string   `toml:"qbitBasicUsername" mapstructure:"qbitBasicUsername"`
	QbitBasicPassword string   `toml:"qbitBasicPassword" mapstructure:"qbitBasicPassword"`
	QbitCategory      string   `toml:"qbitCategory" mapstructure:"qbitCategory"`
	QbitTags          []string `toml:"qbitTags" mapstructure:"qbitTags"`
	QbitSavePath      string   `toml:"qbitSavePath" mapstructure:"qbitSavePath"`
	QbitStartPaused   bool     `toml:"qbitStartPaused" mapstructure:"qbitStartPaused"`

	// WatchlistRetryInterval controls how often pending watchlist items are retried.
	// Zero disables the background retry loop.
	WatchlistRetryInterval time.Duration `toml:"watchlistRetryInterval" mapstructure:"watchlistRetryInterval"`
	WatchlistMaxAttempts   int           `toml:"watchlistMaxAttempts" mapstructure:"watchlistMaxAttempts"`

	MetricsEnabled        bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost           string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort           int    `toml:"metricsPort" mapstructure:"metricsPort"`
	MetricsBasicAuthUsers string `toml:"metricsBasicAuthUsers" mapstructure:"metricsBasicAuthUsers"`
}

// ServiceMode returns the normalised operating mode.
func (c *Config) ServiceMode() models.ServiceMode {
	return models.ServiceMode(strings.ToLower(strings.TrimSpace(c.Mode)))
}

// FilterOptions returns the candidate filter settings in their textual form.
func (c *Config) FilterOptions() selection.FilterOptions {
	return selection.FilterOptions{
		MinSeeders:   c.MinSeeders,
		MinSizeGB:    c.MinSizeGB,
		MaxSizeGB:    c.MaxSizeGB,
		QualityRegex: c.QualityRegex,
		ExcludeRegex: c.ExcludeRegex,
	}
}

// FilterConfig compiles the candidate filter. It fails on an inverted size
// window, negative thresholds or a pattern that does not compile.
func (c *Config) FilterConfig() (selection.FilterConfig, error) {
	return selection.NewFilterConfig(c.FilterOptions())
}

// Validate checks the settings every mode depends on and the ones the selected
// mode requires. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	mode := c.ServiceMode()
	if !mode.Valid() {
		errs = append(errs, fmt.Errorf("invalid mode %q: expected radarr, qbittorrent or blackhole", c.Mode))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}

	if len(c.AppToken) < MinAppTokenLength {
		errs = append(errs, fmt.Errorf("appToken must be at least %d characters", MinAppTokenLength))
	}

	if c.MaxConcurrentRequests <= 0 {
		errs = append(errs, fmt.Errorf("maxConcurrentRequests must be positive, got %d", c.MaxConcurrentRequests))
	}

	if c.RateLimitPerSecond < 0 {
		errs = append(errs, fmt.Errorf("rateLimitPerSecond must not be negative"))
	}

	if _, err := jackett.ParseCategories(c.Categories); err != nil {
		errs = append(errs, fmt.Errorf("invalid categories: %w", err))
	}

	if _, err := c.FilterConfig(); err != nil {
		errs = append(errs, err)
	}

	switch mode {
	case models.ServiceModeRadarr:
		errs = append(errs, requireURL("radarrUrl", c.RadarrURL))
		if c.RadarrAPIKey == "" {
			errs = append(errs, errors.New("radarrApiKey is required in radarr mode"))
		}
	case models.ServiceModeQbittorrent:
		errs = append(errs, c.validateJackett())
		errs = append(errs, requireURL("qbitHost", c.QbitHost))
	case models.ServiceModeBlackhole:
		errs = append(errs, c.validateJackett())
		if strings.TrimSpace(c.WatchDir) == "" {
			errs = append(errs, errors.New("watchDir is required in blackhole mode"))
		}
	}

	if c.MetricsEnabled && (c.MetricsPort <= 0 || c.MetricsPort > 65535) {
		errs = append(errs, fmt.Errorf("invalid metricsPort %d", c.MetricsPort))
	}

	return errors.Join(errs...)
}

func (c *Config) validateJackett() error {
	var errs []error
	errs = append(errs, requireURL("jackettUrl", c.JackettURL))
	if c.JackettAPIKey == "" {
		errs = append(errs, fmt.Errorf("jackettApiKey is required in %s mode", c.ServiceMode()))
	}
	return errors.Join(errs...)
}

func requireURL(name, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
	}
	return nil
}
