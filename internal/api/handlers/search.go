// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/selection"
	"github.com/autobrr/seederbot/pkg/releases"
)

const maxSearchResults = 100

type Ranker interface {
	Rank(ctx context.Context, req models.MediaRequest) ([]models.ScoredCandidate, error)
}

type ReleaseDescriber interface {
	Describe(name string) releases.Info
}

type SearchHandler struct {
	ranker   Ranker
	releases ReleaseDescriber
	now      func() time.Time
}

// NewSearchHandler returns a preview handler. A nil ranker means the current
// mode does not search indexers, and the endpoint answers 409.
func NewSearchHandler(ranker Ranker, describer ReleaseDescriber) *SearchHandler {
	return &SearchHandler{ranker: ranker, releases: describer, now: time.Now}
}

type SearchResult struct {
	Title       string        `json:"title"`
	Score       float64       `json:"score"`
	Seeders     int           `json:"seeders"`
	Peers       int           `json:"peers"`
	Grabs       int           `json:"grabs"`
	SizeGB      float64       `json:"size_gb"`
	Indexer     string        `json:"indexer,omitempty"`
	Freeleech   bool          `json:"freeleech"`
	PublishDate string        `json:"publish_date,omitempty"`
	Release     releases.Info `json:"release"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}

// HandleSearch runs the selector without acquiring anything and returns every
// surviving candidate best first.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if h.ranker == nil {
		RespondError(w, http.StatusConflict, "Search preview is not available in this mode")
		return
	}

	req, errs := h.parseQuery(r)
	if len(errs) > 0 {
		RespondValidation(w, r, errs)
		return
	}

	resp := SearchResponse{Query: req.Query(), Results: []SearchResult{}}

	ranked, err := h.ranker.Rank(r.Context(), req)
	switch {
	case errors.Is(err, selection.ErrNotFound):
		RespondJSON(w, http.StatusOK, resp)
		return
	case err != nil:
		log.Error().Err(err).Str("query", resp.Query).Msg("Search preview failed")
		RespondError(w, http.StatusServiceUnavailable, "Indexer search failed")
		return
	}

	limit := ParseLimit(r, maxSearchResults)
	if limit == 0 {
		limit = maxSearchResults
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	for _, c := range ranked {
		result := SearchResult{
			Title:       c.Title,
			Score:       c.Score,
			Seeders:     c.Seeders,
			Peers:       c.Peers,
			Grabs:       c.Grabs,
			SizeGB:      math.Round(c.SizeGiB()*100) / 100,
			Indexer:     c.Indexer,
			Freeleech:   c.IsFreeleech(),
			PublishDate: c.PublishDate,
		}
		if h.releases != nil {
			result.Release = h.releases.Describe(c.Title)
		}
		resp.Results = append(resp.Results, result)
	}
	resp.Count = len(resp.Results)

	RespondJSON(w, http.StatusOK, resp)
}

func (h *SearchHandler) parseQuery(r *http.Request) (models.MediaRequest, ValidationErrors) {
	var errs ValidationErrors
	values := r.URL.Query()

	title := strings.TrimSpace(values.Get("title"))
	validateTitle(&errs, "query", title)

	var year *int
	if raw := strings.TrimSpace(values.Get("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			errs.addAt("query", "year", "Input should be a valid integer", "int_parsing")
		} else {
			year = &parsed
		}
	}
	validateYear(&errs, "query", year, h.now())

	req := models.MediaRequest{Title: title}
	if year != nil {
		req.Year = *year
	}
	return req, errs
}
