// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package selection

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/torznab"
)

// ErrNotFound means the search ran but nothing usable came back or survived filtering.
var ErrNotFound = errors.New("no suitable candidates found")

// Gateway returns the raw feed payload an indexer produced for a query.
type Gateway interface {
	Search(ctx context.Context, query string) ([]byte, error)
}

// GatewayError wraps any failure reaching the indexer, including timeouts and cancellation.
type GatewayError struct {
	Query string
	Err   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("indexer search for %q failed: %v", e.Query, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Selector composes parse, filter and score for a single query. It holds no mutable state.
type Selector struct {
	gateway  Gateway
	cfg      FilterConfig
	observer SearchObserver
}

// SearchObserver is told how each search ended and how many candidates it saw.
type SearchObserver interface {
	ObserveSearch(outcome string, parsed, accepted int)
}

type SelectorOption func(*Selector)

func WithSearchObserver(o SearchObserver) SelectorOption {
	return func(s *Selector) {
		s.observer = o
	}
}

func NewSelector(gateway Gateway, cfg FilterConfig, opts ...SelectorOption) *Selector {
	s := &Selector{
		gateway: gateway,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Selector) observe(outcome string, parsed, accepted int) {
	if s.observer != nil {
		s.observer.ObserveSearch(outcome, parsed, accepted)
	}
}

// Config returns the filter configuration the selector was built with.
func (s *Selector) Config() FilterConfig {
	return s.cfg
}

// SelectBest returns the highest scoring candidate for the request.
func (s *Selector) SelectBest(ctx context.Context, req models.MediaRequest) (models.Candidate, error) {
	ranked, err := s.Rank(ctx, req)
	if err != nil {
		return models.Candidate{}, err
	}
	return ranked[0].Candidate, nil
}

// Rank returns every candidate that passed the filter, best first. It returns
// ErrNotFound rather than an empty slice.
func (s *Selector) Rank(ctx context.Context, req models.MediaRequest) ([]models.ScoredCandidate, error) {
	query := req.Query()

	payload, err := s.gateway.Search(ctx, query)
	if err != nil {
		s.observe("error", 0, 0)
		return nil, &GatewayError{Query: query, Err: err}
	}

	candidates, dropped, err := torznab.ParseWithStats(payload)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Could not parse indexer response, treating as empty")
		candidates = nil
	}

	log.Info().
		Str("query", query).
		Int("results", len(candidates)).
		Int("dropped", dropped).
		Msg("Indexer search completed")

	if len(candidates) == 0 {
		s.observe("not_found", 0, 0)
		return nil, ErrNotFound
	}

	filtered := Filter(candidates, s.cfg)
	log.Info().
		Str("query", query).
		Int("kept", len(filtered)).
		Int("rejected", len(candidates)-len(filtered)).
		Msg("Filtered candidates")

	if len(filtered) == 0 {
		log.Warn().Str("query", query).Msg("No candidates matched quality criteria")
		s.observe("not_found", len(candidates), 0)
		return nil, ErrNotFound
	}

	ranked := Rank(filtered)
	s.observe("found", len(candidates), len(ranked))

	best := ranked[0]
	log.Info().
		Str("query", query).
		Str("title", best.Title).
		Float64("score", best.Score).
		Int("seeders", best.Seeders).
		Float64("sizeGiB", best.SizeGiB()).
		Bool("freeleech", best.IsFreeleech()).
		Msg("Selected candidate")

	return ranked, nil
}

func sortByScore(scored []models.ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
}
