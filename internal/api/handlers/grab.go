// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/api/ctxkeys"
	"github.com/autobrr/seederbot/internal/api/middleware"
	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/grab"
)

type Grabber interface {
	Grab(ctx context.Context, req models.MediaRequest) (grab.Response, error)
}

type GrabHandler struct {
	grabber Grabber
	now     func() time.Time
}

func NewGrabHandler(grabber Grabber) *GrabHandler {
	return &GrabHandler{grabber: grabber, now: time.Now}
}

// HandleGrab accepts the webhook body and runs the grab synchronously.
// Not-found and acquisition failures are reported with status "error" and 200.
func (h *GrabHandler) HandleGrab(w http.ResponseWriter, r *http.Request) {
	var body GrabRequest
	if errs := decodeBody(w, r, &body); len(errs) > 0 {
		RespondValidation(w, r, errs)
		return
	}
	if errs := body.Validate(h.now()); len(errs) > 0 {
		RespondValidation(w, r, errs)
		return
	}

	req := body.MediaRequest()
	log.Info().
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("title", req.Title).
		Str("type", body.Type).
		Str("auth", ctxkeys.AuthMethod(r.Context())).
		Msg("Grab request received")

	resp, err := h.grabber.Grab(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Grab request could not be processed")
		RespondError(w, http.StatusServiceUnavailable, "Service is busy, try again later")
		return
	}

	RespondJSON(w, http.StatusOK, resp)
}
