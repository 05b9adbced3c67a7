// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/buildinfo"
)

func HandleVersion(w http.ResponseWriter, r *http.Request) {
	body, err := buildinfo.JSON()
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode build info")
		RespondError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
