// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/metrics/collector"
)

type Manager struct {
	registry         *prometheus.Registry
	serviceCollector *ServiceCollector
	Grab             *collector.GrabCollector
}

func NewManager() *Manager {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		Grab:     collector.NewGrabCollector(registry),
	}

	log.Debug().Msg("Metrics manager initialized")

	return m
}

// RegisterSources adds scrape-time metrics for services created after the manager.
// Only the first call registers; later calls are ignored.
func (m *Manager) RegisterSources(sources Sources) {
	if m.serviceCollector != nil {
		return
	}
	m.serviceCollector = NewServiceCollector(sources)
	m.registry.MustRegister(m.serviceCollector)
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}
