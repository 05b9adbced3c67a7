// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/watchlist"
)

const (
	maxNotesLength     = 500
	maxWatchlistLimit  = 500
	watchlistIDDisplay = "Watchlist ID"
)

type WatchlistService interface {
	Add(ctx context.Context, req watchlist.AddRequest) (models.WatchlistItem, bool, error)
	List(limit int, query string) []models.WatchlistItem
	Get(id string) (models.WatchlistItem, bool)
	Remove(id string) bool
	MarkWatched(id string) (models.WatchlistItem, bool)
	Stats() models.WatchlistStats
}

type WatchlistHandler struct {
	service WatchlistService
	now     func() time.Time
}

func NewWatchlistHandler(service WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{service: service, now: time.Now}
}

func (h *WatchlistHandler) Routes(r chi.Router) {
	r.Post("/", h.Add)
	r.Get("/", h.List)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Remove)
	r.Post("/{id}/watched", h.MarkWatched)
}

type watchlistAddRequest struct {
	Title    *string                  `json:"title"`
	Year     *int                     `json:"year"`
	Priority models.WatchlistPriority `json:"priority"`
	Notes    string                   `json:"notes"`
}

func (req *watchlistAddRequest) validate(now time.Time) ValidationErrors {
	var errs ValidationErrors

	if req.Title == nil {
		errs.add("title", "Field required", "missing")
	} else {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
		validateTitle(&errs, "body", title)
	}

	validateYear(&errs, "body", req.Year, now)

	req.Priority = models.WatchlistPriority(strings.ToLower(strings.TrimSpace(string(req.Priority))))
	if !req.Priority.Valid() {
		errs.add("priority", "Input should be 'low', 'normal' or 'high'", "enum")
	}

	if utf8.RuneCountInString(req.Notes) > maxNotesLength {
		errs.add("notes", fmt.Sprintf("Notes must be at most %d characters", maxNotesLength), "value_error")
	}

	return errs
}

type watchlistAddResponse struct {
	ID       string               `json:"id"`
	Acquired bool                 `json:"acquired"`
	Item     models.WatchlistItem `json:"item"`
}

// Add records the item and triggers acquisition before answering. A failed
// acquisition still returns 201 with acquired false; the item stays pending.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body watchlistAddRequest
	if errs := decodeBody(w, r, &body); len(errs) > 0 {
		RespondValidation(w, r, errs)
		return
	}
	if errs := body.validate(h.now()); len(errs) > 0 {
		RespondValidation(w, r, errs)
		return
	}

	item, acquired, err := h.service.Add(r.Context(), watchlist.AddRequest{
		Title:    *body.Title,
		Year:     body.Year,
		Priority: body.Priority,
		Notes:    body.Notes,
	})
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	RespondJSON(w, http.StatusCreated, watchlistAddResponse{ID: item.ID, Acquired: acquired, Item: item})
}

// List returns items newest first. ?q fuzzy matches titles, ?limit caps the result.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseLimit(r, maxWatchlistLimit)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	items := h.service.List(limit, query)
	if items == nil {
		items = []models.WatchlistItem{}
	}
	RespondJSON(w, http.StatusOK, items)
}

func (h *WatchlistHandler) Stats(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.service.Stats())
}

func (h *WatchlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", watchlistIDDisplay)
	if !ok {
		return
	}

	item, found := h.service.Get(id)
	if !found {
		RespondError(w, http.StatusNotFound, "Watchlist item not found")
		return
	}
	RespondJSON(w, http.StatusOK, item)
}

func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", watchlistIDDisplay)
	if !ok {
		return
	}

	if !h.service.Remove(id) {
		RespondError(w, http.StatusNotFound, "Watchlist item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WatchlistHandler) MarkWatched(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", watchlistIDDisplay)
	if !ok {
		return
	}

	item, found := h.service.MarkWatched(id)
	if !found {
		RespondError(w, http.StatusNotFound, "Watchlist item not found")
		return
	}
	RespondJSON(w, http.StatusOK, item)
}
