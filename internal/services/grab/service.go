// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package grab

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/acquisition"
	"github.com/autobrr/seederbot/internal/services/selection"
	"github.com/autobrr/seederbot/pkg/radarr"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	outcomeSuccess  = "success"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

type Selector interface {
	SelectBest(ctx context.Context, req models.MediaRequest) (models.Candidate, error)
}

type Acquirer interface {
	Acquire(ctx context.Context, req models.MediaRequest, candidate models.Candidate, mode models.AcquisitionMode) models.AcquisitionResult
}

type Observer interface {
	ObserveGrab(mode, outcome string)
}

type Config struct {
	Mode          models.ServiceMode
	RetryAttempts uint
	RetryDelay    time.Duration
	MaxConcurrent int64
}

// Response is returned to webhook callers. Not-found and acquisition failures
// are reported here with StatusError rather than as transport errors.
type Response struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (r Response) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Service runs one grab request end to end in the configured mode.
type Service struct {
	cfg        Config
	selector   Selector
	dispatcher Acquirer
	observer   Observer
	sem        *semaphore.Weighted
}

func NewService(cfg Config, selector Selector, dispatcher Acquirer, observer Observer) (*Service, error) {
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("unknown mode: %q", cfg.Mode)
	}
	if cfg.Mode.UsesSelector() && selector == nil {
		return nil, fmt.Errorf("mode %s requires an indexer", cfg.Mode)
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}

	return &Service{
		cfg:        cfg,
		selector:   selector,
		dispatcher: dispatcher,
		observer:   observer,
		sem:        semaphore.NewWeighted(cfg.MaxConcurrent),
	}, nil
}

func (s *Service) Mode() models.ServiceMode {
	return s.cfg.Mode
}

// Grab selects and acquires req. It always returns a Response; the error is
// non-nil only when the request could not be attempted at all.
func (s *Service) Grab(ctx context.Context, req models.MediaRequest) (Response, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Response{}, fmt.Errorf("waiting for a grab slot: %w", err)
	}
	defer s.sem.Release(1)

	start := time.Now()
	log.Info().
		Str("mode", string(s.cfg.Mode)).
		Str("title", req.Title).
		Int("year", req.Year).
		Msg("Grab request")

	var (
		resp    Response
		outcome string
	)

	if s.cfg.Mode.UsesSelector() {
		resp, outcome = s.grabViaIndexer(ctx, req)
	} else {
		resp, outcome = s.grabViaRadarr(ctx, req)
	}

	if s.observer != nil {
		s.observer.ObserveGrab(string(s.cfg.Mode), outcome)
	}

	log.Info().
		Str("mode", string(s.cfg.Mode)).
		Str("title", req.Title).
		Str("status", resp.Status).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Msg("Grab request finished")

	return resp, nil
}

func (s *Service) grabViaRadarr(ctx context.Context, req models.MediaRequest) (Response, string) {
	mode := string(s.cfg.Mode)
	result := s.dispatcher.Acquire(ctx, req, models.Candidate{}, models.AcquisitionModeRemote)

	if result.Err != nil {
		if errors.Is(result.Err, radarr.ErrMovieNotFound) {
			return Response{
				Status:  StatusError,
				Message: fmt.Sprintf("No movies found for '%s'", req.Title),
				Details: map[string]any{"mode": mode, "title": req.Title, "year": req.YearPtr()},
			}, outcomeNotFound
		}
		return Response{
			Status:  StatusError,
			Message: "Failed to add movie to Radarr",
			Details: map[string]any{"mode": mode, "title": req.Title, "error": result.Error},
		}, outcomeError
	}

	details := map[string]any{
		"mode":             mode,
		"title":            req.Title,
		"year":             req.YearPtr(),
		"search_triggered": false,
	}
	if result.Remote != nil {
		details["movie_id"] = result.Remote.MovieID
		details["tmdb_id"] = result.Remote.TMDBID
		details["search_triggered"] = result.Remote.SearchTriggered
	}

	return Response{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Successfully added '%s' to Radarr with auto-search", req.Title),
		Details: details,
	}, outcomeSuccess
}

func (s *Service) grabViaIndexer(ctx context.Context, req models.MediaRequest) (Response, string) {
	mode := string(s.cfg.Mode)

	candidate, err := s.selectWithRetry(ctx, req)
	if err != nil {
		if errors.Is(err, selection.ErrNotFound) {
			return Response{
				Status:  StatusError,
				Message: fmt.Sprintf("No suitable torrents found for '%s'", req.Title),
				Details: map[string]any{"mode": mode, "title": req.Title, "year": req.YearPtr()},
			}, outcomeNotFound
		}
		log.Error().Err(err).Str("title", req.Title).Msg("Indexer search failed")
		return Response{
			Status:  StatusError,
			Message: s.failureMessage(),
			Details: map[string]any{"mode": mode, "title": req.Title, "error": err.Error()},
		}, outcomeError
	}

	result := s.acquireWithRetry(ctx, req, candidate)
	if result.Err != nil {
		return Response{
			Status:  StatusError,
			Message: s.failureMessage(),
			Details: map[string]any{"mode": mode, "title": req.Title, "torrent_title": candidate.Title, "error": result.Error},
		}, outcomeError
	}

	details := map[string]any{
		"mode":          mode,
		"title":         req.Title,
		"year":          req.YearPtr(),
		"torrent_title": candidate.Title,
		"seeders":       candidate.Seeders,
		"size_gb":       math.Round(candidate.SizeGiB()*100) / 100,
	}
	if result.ArtifactPath != "" {
		details["filename"] = filepath.Base(result.ArtifactPath)
		details["watch_dir"] = filepath.Dir(result.ArtifactPath)
	}
	if result.InfoHash != "" {
		details["info_hash"] = result.InfoHash
	}

	return Response{
		Status:  StatusSuccess,
		Message: s.successMessage(req.Title),
		Details: details,
	}, outcomeSuccess
}

func (s *Service) successMessage(title string) string {
	if s.cfg.Mode == models.ServiceModeQbittorrent {
		return fmt.Sprintf("Successfully added torrent for '%s' to qBittorrent", title)
	}
	return fmt.Sprintf("Successfully downloaded torrent for '%s' to blackhole", title)
}

func (s *Service) failureMessage() string {
	if s.cfg.Mode == models.ServiceModeQbittorrent {
		return "Failed to add torrent to qBittorrent"
	}
	return "Failed to download torrent via blackhole"
}

func (s *Service) selectWithRetry(ctx context.Context, req models.MediaRequest) (models.Candidate, error) {
	var candidate models.Candidate

	err := retry.Do(
		func() error {
			var err error
			candidate, err = s.selector.SelectBest(ctx, req)
			return err
		},
		s.retryOptions(ctx, "search", isGatewayError)...,
	)

	return candidate, err
}

func (s *Service) acquireWithRetry(ctx context.Context, req models.MediaRequest, candidate models.Candidate) models.AcquisitionResult {
	var result models.AcquisitionResult

	err := retry.Do(
		func() error {
			result = s.dispatcher.Acquire(ctx, req, candidate, s.cfg.Mode.AcquisitionMode())
			return result.Err
		},
		s.retryOptions(ctx, "acquire", isTransportError)...,
	)

	// retry.Do returns without calling Acquire when ctx is already done.
	if err != nil && result.Err == nil {
		result = models.AcquisitionResult{
			Candidate: candidate,
			Mode:      s.cfg.Mode.AcquisitionMode(),
			Err:       err,
			Error:     err.Error(),
		}
	}

	return result
}

func (s *Service) retryOptions(ctx context.Context, stage string, retryIf func(error) bool) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(s.cfg.RetryAttempts),
		retry.Delay(s.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryIf),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Str("stage", stage).Msg("Retrying grab stage")
		}),
	}
}

func isGatewayError(err error) bool {
	if isContextError(err) {
		return false
	}
	var gwErr *selection.GatewayError
	return errors.As(err, &gwErr)
}

func isTransportError(err error) bool {
	if isContextError(err) {
		return false
	}
	var transportErr *acquisition.TransportError
	return errors.As(err, &transportErr)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
