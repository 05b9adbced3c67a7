// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/autobrr/seederbot/internal/models"
)

// CacheStatsSource is satisfied by the caching indexer decorator.
type CacheStatsSource interface {
	Stats() (hits, misses uint64)
}

type WatchlistStatsSource interface {
	Stats() models.WatchlistStats
}

// CooldownSource is satisfied by the indexer rate limiter.
type CooldownSource interface {
	IsInCooldown() (bool, time.Time)
}

// Sources are read on every scrape. Any of them may be nil.
type Sources struct {
	Cache     CacheStatsSource
	Watchlist WatchlistStatsSource
	Cooldown  CooldownSource
}

// ServiceCollector exports state owned by other services at scrape time.
type ServiceCollector struct {
	sources Sources

	cacheHitsDesc       *prometheus.Desc
	cacheMissesDesc     *prometheus.Desc
	watchlistItemsDesc  *prometheus.Desc
	indexerCooldownDesc *prometheus.Desc
}

func NewServiceCollector(sources Sources) *ServiceCollector {
	return &ServiceCollector{
		sources: sources,

		cacheHitsDesc: prometheus.NewDesc(
			"seederbot_search_cache_hits_total",
			"Number of indexer searches served from cache",
			nil,
			nil,
		),
		cacheMissesDesc: prometheus.NewDesc(
			"seederbot_search_cache_misses_total",
			"Number of indexer searches that went upstream",
			nil,
			nil,
		),
		watchlistItemsDesc: prometheus.NewDesc(
			"seederbot_watchlist_items",
			"Number of watchlist items by status",
			[]string{"status"},
			nil,
		),
		indexerCooldownDesc: prometheus.NewDesc(
			"seederbot_indexer_cooldown",
			"Whether the indexer is in a rate limit cooldown (1) or not (0)",
			nil,
			nil,
		),
	}
}

func (c *ServiceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cacheHitsDesc
	ch <- c.cacheMissesDesc
	ch <- c.watchlistItemsDesc
	ch <- c.indexerCooldownDesc
}

func (c *ServiceCollector) Collect(ch chan<- prometheus.Metric) {
	if c.sources.Cache != nil {
		hits, misses := c.sources.Cache.Stats()
		ch <- prometheus.MustNewConstMetric(c.cacheHitsDesc, prometheus.CounterValue, float64(hits))
		ch <- prometheus.MustNewConstMetric(c.cacheMissesDesc, prometheus.CounterValue, float64(misses))
	}

	if c.sources.Watchlist != nil {
		stats := c.sources.Watchlist.Stats()
		ch <- prometheus.MustNewConstMetric(c.watchlistItemsDesc, prometheus.GaugeValue, float64(stats.Pending), string(models.WatchlistStatusPending))
		ch <- prometheus.MustNewConstMetric(c.watchlistItemsDesc, prometheus.GaugeValue, float64(stats.Available), string(models.WatchlistStatusAvailable))
		ch <- prometheus.MustNewConstMetric(c.watchlistItemsDesc, prometheus.GaugeValue, float64(stats.Watched), string(models.WatchlistStatusWatched))
	}

	if c.sources.Cooldown != nil {
		value := 0.0
		if inCooldown, _ := c.sources.Cooldown.IsInCooldown(); inCooldown {
			value = 1
		}
		ch <- prometheus.MustNewConstMetric(c.indexerCooldownDesc, prometheus.GaugeValue, value)
	}
}
