// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/autobrr/seederbot/internal/buildinfo"
	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/health"
)

type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

type HealthHandler struct {
	mode    models.ServiceMode
	checker HealthChecker
}

// NewHealthHandler returns a handler for the health endpoints. A nil checker
// reports the detailed and readiness endpoints as healthy without running checks.
func NewHealthHandler(mode models.ServiceMode, checker HealthChecker) *HealthHandler {
	return &HealthHandler{mode: mode, checker: checker}
}

func (h *HealthHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleHealth)
	r.Get("/detailed", h.HandleDetailed)
	r.Get("/liveness", h.HandleLiveness)
	r.Get("/readiness", h.HandleReady)
}

// HandleHealth is the cheap probe for load balancers. It never calls upstream services.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"mode":    string(h.mode),
		"version": buildinfo.Version,
	})
}

// HandleDetailed runs every component check. The report carries the verdict;
// the status code is always 200.
func (h *HealthHandler) HandleDetailed(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.report(r.Context()))
}

func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReady answers 503 only when the checks report the service unhealthy.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.report(r.Context()).Status == health.StatusUnhealthy {
		RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) report(ctx context.Context) health.Report {
	if h.checker == nil {
		return health.Report{
			Status:  health.StatusHealthy,
			Version: buildinfo.Version,
			Mode:    string(h.mode),
			Checks:  map[string]health.CheckResult{},
		}
	}
	return h.checker.Check(ctx)
}
