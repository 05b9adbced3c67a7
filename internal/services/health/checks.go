// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package health

import (
	"context"
	"fmt"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/jackett"
	"github.com/autobrr/seederbot/pkg/radarr"
)

const (
	minAppTokenLength = 32
	maxIndexerNames   = 5
)

var minRadarrVersion = goversion.Must(goversion.NewVersion("3.0.0"))

// ConfigInfo is the subset of configuration the config check inspects.
type ConfigInfo struct {
	Mode          models.ServiceMode
	RadarrURL     string
	RadarrAPIKey  string
	JackettURL    string
	JackettAPIKey string
	QbitHost      string
	WatchDir      string
	AppToken      string
}

func (c ConfigInfo) radarrConfigured() bool {
	return c.RadarrURL != "" && c.RadarrAPIKey != ""
}

func (c ConfigInfo) jackettConfigured() bool {
	return c.JackettURL != "" && c.JackettAPIKey != ""
}

type RadarrStatusSource interface {
	SystemStatus(ctx context.Context) (*radarr.SystemStatus, error)
}

type JackettSource interface {
	ServerConfig(ctx context.Context) (*jackett.ServerConfig, error)
	Indexers(ctx context.Context) ([]jackett.Indexer, error)
}

type WatchDirSource interface {
	Path() string
	Probe() error
}

type QbittorrentSource interface {
	HealthCheck(ctx context.Context) (string, error)
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

func skipped(reason string) CheckResult {
	return CheckResult{Status: StatusSkipped, Reason: reason}
}

func checkConfiguration(cfg ConfigInfo) CheckResult {
	start := time.Now()
	issues := []string{}

	switch cfg.Mode {
	case models.ServiceModeRadarr:
		if cfg.RadarrURL == "" {
			issues = append(issues, "radarr url not configured")
		}
		if cfg.RadarrAPIKey == "" {
			issues = append(issues, "radarr api key not configured")
		}
	case models.ServiceModeBlackhole, models.ServiceModeQbittorrent:
		if cfg.JackettURL == "" {
			issues = append(issues, "jackett url not configured")
		}
		if cfg.JackettAPIKey == "" {
			issues = append(issues, "jackett api key not configured")
		}
		if cfg.Mode == models.ServiceModeBlackhole && cfg.WatchDir == "" {
			issues = append(issues, "watch dir not configured")
		}
		if cfg.Mode == models.ServiceModeQbittorrent && cfg.QbitHost == "" {
			issues = append(issues, "qbittorrent host not configured")
		}
	default:
		issues = append(issues, fmt.Sprintf("unknown mode %q", cfg.Mode))
	}

	if len(cfg.AppToken) < minAppTokenLength {
		issues = append(issues, fmt.Sprintf("app token too weak (should be %d+ characters)", minAppTokenLength))
	}

	status := StatusHealthy
	if len(issues) > 0 {
		status = StatusUnhealthy
	}

	return CheckResult{
		Status:     status,
		DurationMS: elapsedMS(start),
		Details: map[string]any{
			"mode":               string(cfg.Mode),
			"issues":             issues,
			"radarr_configured":  cfg.radarrConfigured(),
			"jackett_configured": cfg.jackettConfigured(),
		},
	}
}

func checkRadarr(ctx context.Context, source RadarrStatusSource) CheckResult {
	start := time.Now()

	status, err := source.SystemStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Radarr health check failed")
		return CheckResult{Status: StatusUnhealthy, DurationMS: elapsedMS(start), Error: err.Error()}
	}

	result := CheckResult{
		Status:     StatusHealthy,
		DurationMS: elapsedMS(start),
		Details: map[string]any{
			"version":      status.Version,
			"startup_path": status.StartupPath,
			"is_debug":     status.IsDebug,
		},
	}

	v, err := goversion.NewVersion(status.Version)
	switch {
	case err != nil:
		result.Status = StatusDegraded
		result.Error = fmt.Sprintf("could not parse radarr version %q", status.Version)
	case v.LessThan(minRadarrVersion):
		result.Status = StatusDegraded
		result.Error = fmt.Sprintf("radarr %s is older than the minimum supported %s", v, minRadarrVersion)
	}

	return result
}

func checkJackett(ctx context.Context, source JackettSource) CheckResult {
	start := time.Now()

	serverCfg, err := source.ServerConfig(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Jackett health check failed")
		return CheckResult{Status: StatusUnhealthy, DurationMS: elapsedMS(start), Error: err.Error()}
	}

	indexers, err := source.Indexers(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not list jackett indexers")
		indexers = nil
	}

	names := []string{}
	active := 0
	for _, idx := range indexers {
		if !idx.Configured {
			continue
		}
		active++
		if len(names) < maxIndexerNames {
			names = append(names, idx.Name)
		}
	}

	status := StatusHealthy
	if active == 0 {
		status = StatusDegraded
	}

	return CheckResult{
		Status:     status,
		DurationMS: elapsedMS(start),
		Details: map[string]any{
			"version":         serverCfg.AppVersion,
			"total_indexers":  len(indexers),
			"active_indexers": active,
			"indexer_names":   names,
		},
	}
}

func checkFilesystem(source WatchDirSource) CheckResult {
	start := time.Now()

	if err := source.Probe(); err != nil {
		return CheckResult{Status: StatusUnhealthy, DurationMS: elapsedMS(start), Error: err.Error()}
	}

	return CheckResult{
		Status:     StatusHealthy,
		DurationMS: elapsedMS(start),
		Details: map[string]any{
			"watch_dir": source.Path(),
			"writable":  true,
			"exists":    true,
		},
	}
}

func checkQbittorrent(ctx context.Context, source QbittorrentSource) CheckResult {
	start := time.Now()

	version, err := source.HealthCheck(ctx)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, DurationMS: elapsedMS(start), Error: err.Error()}
	}

	return CheckResult{
		Status:     StatusHealthy,
		DurationMS: elapsedMS(start),
		Details:    map[string]any{"webapi_version": version},
	}
}
