// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/seederbot/internal/buildinfo"
	"github.com/autobrr/seederbot/internal/models"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusSkipped   Status = "skipped"
	StatusError     Status = "error"
)

const defaultCheckTimeout = 5 * time.Second

type CheckResult struct {
	Status     Status         `json:"status"`
	DurationMS float64        `json:"duration_ms"`
	Details    map[string]any `json:"details,omitempty"`
	Error      string         `json:"error,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

type Report struct {
	Status        Status                 `json:"status"`
	Timestamp     float64                `json:"timestamp"`
	Version       string                 `json:"version"`
	Mode          string                 `json:"mode"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Checks        map[string]CheckResult `json:"checks"`
	DurationMS    float64                `json:"duration_ms"`
}

// Dependencies are optional; a nil source skips its check.
type Dependencies struct {
	Config      ConfigInfo
	Radarr      RadarrStatusSource
	Jackett     JackettSource
	WatchDir    WatchDirSource
	Qbittorrent QbittorrentSource
}

type Service struct {
	deps      Dependencies
	timeout   time.Duration
	startedAt time.Time
}

func NewService(deps Dependencies) *Service {
	return &Service{
		deps:      deps,
		timeout:   defaultCheckTimeout,
		startedAt: time.Now(),
	}
}

type namedCheck struct {
	name string
	run  func(ctx context.Context) CheckResult
}

func (s *Service) checks() []namedCheck {
	mode := s.deps.Config.Mode

	checks := []namedCheck{
		{name: "config", run: func(context.Context) CheckResult { return checkConfiguration(s.deps.Config) }},
	}

	switch {
	case mode != models.ServiceModeRadarr:
		checks = append(checks, namedCheck{name: "radarr", run: func(context.Context) CheckResult { return skipped("Not in radarr mode") }})
	case s.deps.Radarr == nil:
		checks = append(checks, namedCheck{name: "radarr", run: func(context.Context) CheckResult { return skipped("Radarr not configured") }})
	default:
		checks = append(checks, namedCheck{name: "radarr", run: func(ctx context.Context) CheckResult { return checkRadarr(ctx, s.deps.Radarr) }})
	}

	if s.deps.Jackett == nil {
		checks = append(checks, namedCheck{name: "jackett", run: func(context.Context) CheckResult { return skipped("Jackett not configured") }})
	} else {
		checks = append(checks, namedCheck{name: "jackett", run: func(ctx context.Context) CheckResult { return checkJackett(ctx, s.deps.Jackett) }})
	}

	switch {
	case mode != models.ServiceModeBlackhole:
		checks = append(checks, namedCheck{name: "filesystem", run: func(context.Context) CheckResult { return skipped("Not in blackhole mode") }})
	case s.deps.WatchDir == nil:
		checks = append(checks, namedCheck{name: "filesystem", run: func(context.Context) CheckResult { return skipped("Watch directory not configured") }})
	default:
		checks = append(checks, namedCheck{name: "filesystem", run: func(context.Context) CheckResult { return checkFilesystem(s.deps.WatchDir) }})
	}

	if mode == models.ServiceModeQbittorrent {
		if s.deps.Qbittorrent == nil {
			checks = append(checks, namedCheck{name: "qbittorrent", run: func(context.Context) CheckResult { return skipped("qBittorrent not configured") }})
		} else {
			checks = append(checks, namedCheck{name: "qbittorrent", run: func(ctx context.Context) CheckResult { return checkQbittorrent(ctx, s.deps.Qbittorrent) }})
		}
	}

	return checks
}

// Check runs every component check concurrently and folds them into one report.
// Each non-healthy result moves the overall status one step down
// (healthy, degraded, unhealthy); an errored check makes it unhealthy. Skipped
// checks do not count.
func (s *Service) Check(ctx context.Context) Report {
	start := time.Now()
	checks := s.checks()
	results := make([]CheckResult, len(checks))

	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = s.runCheck(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:        StatusHealthy,
		Timestamp:     float64(time.Now().UnixMilli()) / 1000,
		Version:       buildinfo.Version,
		Mode:          string(s.deps.Config.Mode),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Checks:        make(map[string]CheckResult, len(checks)),
	}

	for i, c := range checks {
		result := results[i]
		report.Checks[c.name] = result
		report.Status = fold(report.Status, result.Status)
	}

	report.DurationMS = elapsedMS(start)

	log.Info().
		Str("overallStatus", string(report.Status)).
		Float64("durationMs", report.DurationMS).
		Int("checks", len(report.Checks)).
		Msg("Health check completed")

	return report
}

func fold(overall, result Status) Status {
	switch result {
	case StatusHealthy, StatusSkipped:
		return overall
	case StatusError:
		return StatusUnhealthy
	}
	if overall == StatusHealthy {
		return StatusDegraded
	}
	return StatusUnhealthy
}

func (s *Service) runCheck(ctx context.Context, c namedCheck) (result CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("check", c.name).Interface("panic", r).Msg("Health check panicked")
			result = CheckResult{Status: StatusError, Error: fmt.Sprint(r)}
		}
	}()

	return c.run(ctx)
}
