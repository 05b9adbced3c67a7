// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/api/ctxkeys"
)

// TokenSource returns the currently configured app token.
type TokenSource func() string

// RequireToken accepts "Authorization: Bearer <token>" or "X-API-Key: <token>"
// and rejects everything else with 401.
func RequireToken(token TokenSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expected := token()

			presented, method := credentials(r)
			if expected == "" || presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
				log.Warn().
					Str("request_id", GetRequestID(r.Context())).
					Str("path", r.URL.Path).
					Bool("credentials_present", presented != "").
					Msg("Rejected request with invalid authentication token")
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxkeys.WithAuthMethod(r.Context(), method)))
		})
	}
}

func credentials(r *http.Request) (string, string) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value), "bearer"
		}
		return "", ""
	}
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey, "apikey"
	}
	return "", ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": "Invalid authentication token",
		"type":    "HTTPException",
	})
}
