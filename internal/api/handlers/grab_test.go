// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/grab"
)

type fakeGrabber struct {
	resp grab.Response
	err  error
	got  []models.MediaRequest
}

func (f *fakeGrabber) Grab(_ context.Context, req models.MediaRequest) (grab.Response, error) {
	f.got = append(f.got, req)
	return f.resp, f.err
}

func newGrabHandler(g Grabber) *GrabHandler {
	h := NewGrabHandler(g)
	h.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return h
}

func postGrab(h *GrabHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/grab", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleGrab(rec, req)
	return rec
}

func TestGrabHandler_Success(t *testing.T) {
	t.Parallel()

	g := &fakeGrabber{resp: grab.Response{
		Status:  grab.StatusSuccess,
		Message: "Successfully downloaded torrent for 'The Matrix' to blackhole",
		Details: map[string]any{"mode": "blackhole", "torrent_title": "The.Matrix.1999.1080p.BluRay"},
	}}
	h := newGrabHandler(g)

	rec := postGrab(h, `{"title":"  The Matrix ","type":"movie","year":1999}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, g.got, 1)
	assert.Equal(t, models.MediaRequest{Title: "The Matrix", Year: 1999}, g.got[0])

	var resp grab.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, grab.StatusSuccess, resp.Status)
	assert.Equal(t, "blackhole", resp.Details["mode"])
}

func TestGrabHandler_NotFoundIsOK(t *testing.T) {
	t.Parallel()

	g := &fakeGrabber{resp: grab.Response{Status: grab.StatusError, Message: "No suitable torrents found for 'Nope'"}}
	h := newGrabHandler(g)

	rec := postGrab(h, `{"title":"Nope"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
	require.Len(t, g.got, 1)
	assert.Zero(t, g.got[0].Year)
}

func TestGrabHandler_Busy(t *testing.T) {
	t.Parallel()

	h := newGrabHandler(&fakeGrabber{err: context.Canceled})

	rec := postGrab(h, `{"title":"The Matrix"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "ExternalServiceError", resp.Type)
}

func TestGrabHandler_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantField string
		wantType  string
	}{
		{name: "missing title", body: `{"type":"movie"}`, wantField: "body.title", wantType: "missing"},
		{name: "blank title", body: `{"title":"   "}`, wantField: "body.title", wantType: "value_error"},
		{name: "too long", body: `{"title":"` + strings.Repeat("x", 201) + `"}`, wantField: "body.title", wantType: "value_error"},
		{name: "markup", body: `{"title":"<script>"}`, wantField: "body.title", wantType: "value_error"},
		{name: "ampersand", body: `{"title":"Fast & Furious"}`, wantField: "body.title", wantType: "value_error"},
		{name: "series type", body: `{"title":"Dark","type":"series"}`, wantField: "body.type", wantType: "literal_error"},
		{name: "year too old", body: `{"title":"Metropolis","year":1899}`, wantField: "body.year", wantType: "value_error"},
		{name: "year too far ahead", body: `{"title":"Future","year":2031}`, wantField: "body.year", wantType: "value_error"},
		{name: "year as string", body: `{"title":"Heat","year":"1995"}`, wantField: "body.year", wantType: "type_error"},
		{name: "broken json", body: `{"title":`, wantField: "body", wantType: "json_invalid"},
		{name: "empty body", body: ``, wantField: "body", wantType: "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := &fakeGrabber{}
			rec := postGrab(newGrabHandler(g), tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Empty(t, g.got)

			var resp struct {
				Status  string `json:"status"`
				Message string `json:"message"`
				Type    string `json:"type"`
				Details struct {
					ValidationErrors []ValidationError `json:"validation_errors"`
				} `json:"details"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, "Request validation failed", resp.Message)
			assert.Equal(t, "ValidationError", resp.Type)
			require.NotEmpty(t, resp.Details.ValidationErrors)
			assert.Equal(t, tt.wantField, resp.Details.ValidationErrors[0].Field)
			assert.Equal(t, tt.wantType, resp.Details.ValidationErrors[0].Type)
		})
	}
}

func TestGrabRequest_ValidateYearWindow(t *testing.T) {
	t.Parallel()

	year := func(v int) *int { return &v }
	title := func(v string) *string { return &v }

	// Early in the decade the upper bound is now+5, later it is capped at 2030.
	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Empty(t, (&GrabRequest{Title: title("A"), Year: year(2025)}).Validate(early))
	assert.NotEmpty(t, (&GrabRequest{Title: title("A"), Year: year(2026)}).Validate(early))
	assert.Empty(t, (&GrabRequest{Title: title("A"), Year: year(2030)}).Validate(late))
	assert.NotEmpty(t, (&GrabRequest{Title: title("A"), Year: year(2031)}).Validate(late))
	assert.Empty(t, (&GrabRequest{Title: title("A"), Year: year(1900)}).Validate(late))
}

func TestGrabRequest_ReportsAllFields(t *testing.T) {
	t.Parallel()

	year := 1500
	req := &GrabRequest{Type: "tv", Year: &year}

	errs := req.Validate(time.Now())

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"body.title", "body.type", "body.year"}, fields)
}

func TestGrabRequest_DefaultsType(t *testing.T) {
	t.Parallel()

	title := "Alien"
	req := &GrabRequest{Title: &title}

	require.Empty(t, req.Validate(time.Now()))
	assert.Equal(t, "movie", req.Type)
	assert.Equal(t, models.MediaRequest{Title: "Alien"}, req.MediaRequest())
}
