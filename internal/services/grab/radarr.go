// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package grab

import (
	"context"

	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/pkg/radarr"
)

// MovieGrabber is the part of the Radarr client used for acquisition.
type MovieGrabber interface {
	GrabMovie(ctx context.Context, title string, year int) (*radarr.GrabResult, error)
}

// RadarrRemote lets Radarr act as the dispatcher's remote service. Radarr runs
// its own indexer search, so the candidate is ignored.
type RadarrRemote struct {
	client MovieGrabber
}

func NewRadarrRemote(client MovieGrabber) *RadarrRemote {
	return &RadarrRemote{client: client}
}

func (r *RadarrRemote) Name() string {
	return "radarr"
}

func (r *RadarrRemote) AddAndSearch(ctx context.Context, req models.MediaRequest, _ models.Candidate) (*models.RemoteReceipt, error) {
	result, err := r.client.GrabMovie(ctx, req.Title, req.Year)
	if err != nil {
		return nil, err
	}

	return &models.RemoteReceipt{
		Service:         r.Name(),
		MovieID:         result.Added.ID,
		TMDBID:          result.Movie.TMDBID,
		Title:           result.Movie.Title,
		Year:            result.Movie.Year,
		SearchTriggered: result.SearchTriggered,
	}, nil
}
