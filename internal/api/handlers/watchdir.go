// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/autobrr/seederbot/internal/services/acquisition"
)

type WatchDirStatusSource interface {
	Status() acquisition.WatchDirStatus
}

type WatchDirHandler struct {
	source WatchDirStatusSource
}

// NewWatchDirHandler returns the status handler. source is nil outside blackhole mode.
func NewWatchDirHandler(source WatchDirStatusSource) *WatchDirHandler {
	return &WatchDirHandler{source: source}
}

func (h *WatchDirHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		RespondError(w, http.StatusConflict, "Watch directory is only used in blackhole mode")
		return
	}
	RespondJSON(w, http.StatusOK, h.source.Status())
}
