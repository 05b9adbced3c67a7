// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/api"
	"github.com/autobrr/seederbot/internal/buildinfo"
	"github.com/autobrr/seederbot/internal/config"
	"github.com/autobrr/seederbot/internal/metrics"
	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/qbittorrent"
	"github.com/autobrr/seederbot/internal/services/acquisition"
	"github.com/autobrr/seederbot/internal/services/grab"
	"github.com/autobrr/seederbot/internal/services/health"
	"github.com/autobrr/seederbot/internal/services/jackett"
	"github.com/autobrr/seederbot/internal/services/selection"
	"github.com/autobrr/seederbot/internal/services/watchlist"
	"github.com/autobrr/seederbot/pkg/radarr"
	"github.com/autobrr/seederbot/pkg/releases"
)

// application is the fully wired service graph for one mode.
type application struct {
	config    *config.AppConfig
	metrics   *metrics.Manager
	jackett   *jackett.Client
	searcher  jackett.Searcher
	selector  *selection.Selector
	radarr    *radarr.Client
	qbit      *qbittorrent.Client
	watchDir  *acquisition.WatchDir
	grab      *grab.Service
	watchlist *watchlist.Service
	health    *health.Service
	releases  *releases.Parser
}

func newJackettClient(cfg *config.AppConfig, observer jackett.Observer) *jackett.Client {
	c := cfg.Get()
	if c.JackettURL == "" {
		return nil
	}
	return jackett.NewClient(jackett.Config{
		BaseURL:    c.JackettURL,
		APIKey:     c.JackettAPIKey,
		Indexer:    c.JackettIndexer,
		Categories: c.Categories,
		Timeout:    c.RequestTimeout,
		RateLimit:  c.RateLimitPerSecond,
		RateBurst:  c.RateLimitBurst,
		Observer:   observer,
	})
}

// newApplication builds every service the configured mode needs. qBittorrent
// is contacted immediately; other upstreams are only reached per request.
func newApplication(ctx context.Context, cfg *config.AppConfig) (*application, error) {
	c := cfg.Get()
	mode := c.ServiceMode()

	app := &application{
		config:   cfg,
		metrics:  metrics.NewManager(),
		releases: releases.NewParser(c.CacheTTL),
	}

	app.jackett = newJackettClient(cfg, app.metrics.Grab)
	if app.jackett != nil {
		app.searcher = jackett.NewCachedSearcher(app.jackett, c.CacheTTL)
	}

	if mode.UsesSelector() {
		if app.searcher == nil {
			return nil, errors.Errorf("mode %s requires jackettUrl", mode)
		}
		filter, err := c.FilterConfig()
		if err != nil {
			return nil, errors.Wrap(err, "invalid candidate filter")
		}
		app.selector = selection.NewSelector(app.searcher, filter, selection.WithSearchObserver(app.metrics.Grab))
	}

	var opts []acquisition.Option
	switch mode {
	case models.ServiceModeRadarr:
		app.radarr = radarr.NewClient(radarr.Config{
			Host:             c.RadarrURL,
			APIKey:           c.RadarrAPIKey,
			Timeout:          int(c.RequestTimeout.Seconds()),
			UserAgent:        buildinfo.UserAgent,
			QualityProfileID: c.QualityProfileID,
			RootFolder:       c.RootFolder,
			RetryAttempts:    uint(max(c.RetryAttempts, 1)),
			RetryDelay:       c.RetryDelay,
		})
		opts = append(opts, acquisition.WithRemote(grab.NewRadarrRemote(app.radarr)))

	case models.ServiceModeQbittorrent:
		qbit, err := qbittorrent.NewClient(ctx, qbittorrent.Config{
			Host:          c.QbitHost,
			Username:      c.QbitUsername,
			Password:      c.QbitPassword,
			BasicUsername: c.QbitBasicUsername,
			BasicPassword: c.QbitBasicPassword,
			Category:      c.QbitCategory,
			Tags:          c.QbitTags,
			SavePath:      c.QbitSavePath,
			StartPaused:   c.QbitStartPaused,
			Timeout:       int(c.RequestTimeout.Seconds()),
		})
		if err != nil {
			return nil, err
		}
		app.qbit = qbit
		opts = append(opts, acquisition.WithRemote(qbit))

	case models.ServiceModeBlackhole:
		app.watchDir = acquisition.NewWatchDir(c.WatchDir)
		opts = append(opts, acquisition.WithFileDrop(app.jackett, app.watchDir))
	}

	dispatcher := acquisition.NewDispatcher(opts...)

	var selector grab.Selector
	if app.selector != nil {
		selector = app.selector
	}

	grabService, err := grab.NewService(grab.Config{
		Mode:          mode,
		RetryAttempts: uint(max(c.RetryAttempts, 1)),
		RetryDelay:    c.RetryDelay,
		MaxConcurrent: int64(c.MaxConcurrentRequests),
	}, selector, dispatcher, app.metrics.Grab)
	if err != nil {
		return nil, err
	}
	app.grab = grabService

	app.watchlist = watchlist.NewService(watchlist.Config{
		RetryInterval: c.WatchlistRetryInterval,
		MaxAttempts:   c.WatchlistMaxAttempts,
	}, app.grab, app.metrics.Grab)

	app.health = health.NewService(app.healthDependencies())

	sources := metrics.Sources{Watchlist: app.watchlist}
	if cached, ok := app.searcher.(*jackett.CachedSearcher); ok {
		sources.Cache = cached
	}
	if app.jackett != nil {
		sources.Cooldown = app.jackett.RateLimiter()
	}
	app.metrics.RegisterSources(sources)

	log.Info().
		Str("mode", string(mode)).
		Bool("jackett", app.jackett != nil).
		Str("remote", dispatcher.RemoteName()).
		Msg("Services initialized")

	return app, nil
}

// healthDependencies only sets sources that exist, so the health service sees
// untyped nils for the rest.
func (a *application) healthDependencies() health.Dependencies {
	c := a.config.Get()

	deps := health.Dependencies{
		Config: health.ConfigInfo{
			Mode:          c.ServiceMode(),
			RadarrURL:     c.RadarrURL,
			RadarrAPIKey:  c.RadarrAPIKey,
			JackettURL:    c.JackettURL,
			JackettAPIKey: c.JackettAPIKey,
			QbitHost:      c.QbitHost,
			WatchDir:      c.WatchDir,
			AppToken:      c.AppToken,
		},
	}
	if a.radarr != nil {
		deps.Radarr = a.radarr
	}
	if a.jackett != nil {
		deps.Jackett = a.jackett
	}
	if a.watchDir != nil {
		deps.WatchDir = a.watchDir
	}
	if a.qbit != nil {
		deps.Qbittorrent = a.qbit
	}
	return deps
}

func (a *application) apiDependencies() *api.Dependencies {
	deps := &api.Dependencies{
		Config:    a.config,
		Grabber:   a.grab,
		Health:    a.health,
		Watchlist: a.watchlist,
		Releases:  a.releases,
	}
	if a.selector != nil {
		deps.Ranker = a.selector
	}
	if a.watchDir != nil {
		deps.WatchDir = a.watchDir
	}
	return deps
}
