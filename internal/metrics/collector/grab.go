// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type GrabCollector struct {
	GrabTotal              *prometheus.CounterVec
	SearchTotal            *prometheus.CounterVec
	SearchCandidates       *prometheus.HistogramVec
	IndexerRequestDuration *prometheus.HistogramVec
	WatchlistRetryTotal    *prometheus.CounterVec
}

func NewGrabCollector(r prometheus.Registerer) *GrabCollector {
	m := &GrabCollector{
		GrabTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seederbot",
			Subsystem: "grab",
			Name:      "total",
			Help:      "Total number of grab requests by acquisition mode and outcome",
		}, []string{"mode", "outcome"}),
		SearchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seederbot",
			Subsystem: "search",
			Name:      "total",
			Help:      "Total number of candidate searches by outcome",
		}, []string{"outcome"}),
		SearchCandidates: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seederbot",
			Subsystem: "search",
			Name:      "candidates",
			Help:      "Number of candidates per search, before and after filtering",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}, []string{"stage"}),
		IndexerRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seederbot",
			Subsystem: "indexer",
			Name:      "request_duration_seconds",
			Help:      "Latency of indexer requests by operation and outcome",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		WatchlistRetryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seederbot",
			Subsystem: "watchlist",
			Name:      "retry_total",
			Help:      "Total number of background acquisition retries for pending watchlist items",
		}, []string{"outcome"}),
	}

	r.MustRegister(m.GrabTotal)
	r.MustRegister(m.SearchTotal)
	r.MustRegister(m.SearchCandidates)
	r.MustRegister(m.IndexerRequestDuration)
	r.MustRegister(m.WatchlistRetryTotal)
	return m
}

// ObserveIndexerRequest satisfies the indexer client's observer hook.
func (m *GrabCollector) ObserveIndexerRequest(operation, outcome string, duration time.Duration) {
	m.IndexerRequestDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

func (m *GrabCollector) ObserveGrab(mode, outcome string) {
	m.GrabTotal.WithLabelValues(mode, outcome).Inc()
}

func (m *GrabCollector) ObserveSearch(outcome string, parsed, accepted int) {
	m.SearchTotal.WithLabelValues(outcome).Inc()
	m.SearchCandidates.WithLabelValues("parsed").Observe(float64(parsed))
	m.SearchCandidates.WithLabelValues("accepted").Observe(float64(accepted))
}

func (m *GrabCollector) ObserveWatchlistRetry(outcome string) {
	m.WatchlistRetryTotal.WithLabelValues(outcome).Inc()
}
