// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/seederbot/internal/api/ctxkeys"
)

const testToken = "0123456789abcdef0123456789abcdef"

func TestRequireToken(t *testing.T) {
	var gotMethod string
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = ctxkeys.AuthMethod(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := RequireToken(func() string { return testToken })(okHandler)

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantMethod string
	}{
		{name: "bearer token", headers: map[string]string{"Authorization": "Bearer " + testToken}, wantStatus: http.StatusOK, wantMethod: "bearer"},
		{name: "lowercase scheme", headers: map[string]string{"Authorization": "bearer " + testToken}, wantStatus: http.StatusOK, wantMethod: "bearer"},
		{name: "api key header", headers: map[string]string{"X-API-Key": testToken}, wantStatus: http.StatusOK, wantMethod: "apikey"},
		{name: "missing credentials", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", headers: map[string]string{"Authorization": "Bearer nope"}, wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", headers: map[string]string{"Authorization": "Basic " + testToken}, wantStatus: http.StatusUnauthorized},
		{
			name:       "bad bearer does not fall back to api key",
			headers:    map[string]string{"Authorization": "Bearer nope", "X-API-Key": testToken},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMethod = ""
			req := httptest.NewRequest(http.MethodPost, "/grab", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"status":"error","message":"Invalid authentication token","type":"HTTPException"}`, rec.Body.String())
				return
			}
			assert.Equal(t, tt.wantMethod, gotMethod)
		})
	}
}

func TestRequireTokenRejectsWhenUnset(t *testing.T) {
	handler := RequireToken(func() string { return "" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/watchlist", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
