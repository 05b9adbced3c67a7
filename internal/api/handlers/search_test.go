// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/acquisition"
	"github.com/autobrr/seederbot/internal/services/selection"
	"github.com/autobrr/seederbot/pkg/releases"
)

type fakeRanker struct {
	ranked []models.ScoredCandidate
	err    error
	got    []models.MediaRequest
}

func (f *fakeRanker) Rank(_ context.Context, req models.MediaRequest) ([]models.ScoredCandidate, error) {
	f.got = append(f.got, req)
	return f.ranked, f.err
}

func searchRequest(h *SearchHandler, query string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.HandleSearch(rec, httptest.NewRequest(http.MethodGet, "/api/search?"+query, nil))
	return rec
}

func TestSearchHandler_RankedResults(t *testing.T) {
	t.Parallel()

	ranker := &fakeRanker{ranked: []models.ScoredCandidate{
		{
			Candidate: models.Candidate{
				Title:                "Dune.Part.Two.2024.1080p.WEB-DL.DDP5.1.H.264-FLUX",
				Seeders:              120,
				Size:                 5 << 30,
				Indexer:              "tracker-a",
				DownloadVolumeFactor: 0,
			},
			Score: 9012,
		},
		{
			Candidate: models.Candidate{
				Title:                "Dune.Part.Two.2024.1080p.BluRay.x264-GROUP",
				Seeders:              300,
				Size:                 4 << 30,
				DownloadVolumeFactor: 1,
			},
			Score: 312,
		},
	}}
	h := NewSearchHandler(ranker, releases.NewDefaultParser())

	rec := searchRequest(h, "title=Dune+Part+Two&year=2024")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Dune Part Two 2024", resp.Query)
	require.Equal(t, 2, resp.Count)
	require.Len(t, resp.Results, 2)

	first := resp.Results[0]
	assert.True(t, first.Freeleech)
	assert.InDelta(t, 5.0, first.SizeGB, 0.001)
	assert.Equal(t, "tracker-a", first.Indexer)
	assert.Equal(t, 2024, first.Release.Year)
	assert.Equal(t, "1080p", first.Release.Resolution)
	assert.Equal(t, "movie", first.Release.ContentType)
	assert.False(t, resp.Results[1].Freeleech)

	require.Len(t, ranker.got, 1)
	assert.Equal(t, models.MediaRequest{Title: "Dune Part Two", Year: 2024}, ranker.got[0])
}

func TestSearchHandler_Limit(t *testing.T) {
	t.Parallel()

	ranked := make([]models.ScoredCandidate, 3)
	for i := range ranked {
		ranked[i] = models.ScoredCandidate{Candidate: models.Candidate{Title: "Heat.1995.1080p.BluRay"}, Score: float64(10 - i)}
	}
	h := NewSearchHandler(&fakeRanker{ranked: ranked}, nil)

	rec := searchRequest(h, "title=Heat&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count)
	assert.InDelta(t, 10.0, resp.Results[0].Score, 0.001)
}

func TestSearchHandler_NotFoundIsEmpty(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&fakeRanker{err: selection.ErrNotFound}, nil)

	rec := searchRequest(h, "title=Nothing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"query":"Nothing","count":0,"results":[]}`, rec.Body.String())
}

func TestSearchHandler_GatewayError(t *testing.T) {
	t.Parallel()

	err := &selection.GatewayError{Query: "Heat", Err: errors.New("connection refused")}
	h := NewSearchHandler(&fakeRanker{err: err}, nil)

	rec := searchRequest(h, "title=Heat")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestSearchHandler_Validation(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&fakeRanker{}, nil)
	h.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		query     string
		wantField string
	}{
		{query: "", wantField: "query.title"},
		{query: "title=Heat&year=soon", wantField: "query.year"},
		{query: "title=Heat&year=1200", wantField: "query.year"},
		{query: "title=%3Cb%3E", wantField: "query.title"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := searchRequest(h, tt.query)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantField)
		})
	}
}

func TestSearchHandler_UnavailableInRadarrMode(t *testing.T) {
	t.Parallel()

	rec := searchRequest(NewSearchHandler(nil, nil), "title=Heat")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWatchDirHandler(t *testing.T) {
	t.Parallel()

	t.Run("status", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Heat.1995.torrent"), []byte("d8:announce4:infoe"), 0o644))

		rec := httptest.NewRecorder()
		NewWatchDirHandler(acquisition.NewWatchDir(dir)).HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/watch-dir", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var status acquisition.WatchDirStatus
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
		assert.True(t, status.Exists)
		assert.True(t, status.Writable)
		assert.Equal(t, 1, status.TorrentCount)
		require.Len(t, status.RecentFiles, 1)
		assert.Equal(t, "Heat.1995.torrent", status.RecentFiles[0].Name)
	})

	t.Run("not blackhole", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewWatchDirHandler(nil).HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/watch-dir", nil))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandleVersion(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	HandleVersion(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp, "version")
}
