// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/autobrr/seederbot/internal/api/ctxkeys"
)

// RequestIDHeader carries the request id back to the caller.
const RequestIDHeader = "X-Request-ID"

var (
	Recoverer       = middleware.Recoverer
	RealIP          = middleware.RealIP
	ThrottleBacklog = middleware.ThrottleBacklog
)

// RequestID assigns every request a UUID, or keeps a well-formed one supplied
// by the caller, and echoes it in the X-Request-ID response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := ctxkeys.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the id assigned by RequestID, or "unknown".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctxkeys.RequestID(ctx); ok {
		return id
	}
	return "unknown"
}

// Logger writes one access log line per request and recovers panics into a 500.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			l := logger.With().
				Str("request_id", GetRequestID(r.Context())).
				Str("client_ip", r.RemoteAddr).
				Logger()

			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					l.Error().
						Str("type", "error").
						Str("method", r.Method).
						Str("url", r.URL.RequestURI()).
						Interface("recover_info", rec).
						Bytes("debug_stack", debug.Stack()).
						Msg("Request panicked")

					if ww.Status() == 0 {
						internalError(ww, GetRequestID(r.Context()))
					}
					return
				}

				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				event := l.Info()
				switch {
				case status >= 500:
					event = l.Error()
				case status >= 400:
					event = l.Warn()
				case r.URL.Path == "/health":
					event = l.Trace()
				}

				event.
					Str("type", "access").
					Str("method", r.Method).
					Str("url", r.URL.RequestURI()).
					Int("status", status).
					Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0).
					Int64("bytes_in", r.ContentLength).
					Int("bytes_out", ww.BytesWritten()).
					Str("user_agent", r.UserAgent()).
					Msg(fmt.Sprintf("%s %s", r.Method, r.URL.Path))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func internalError(w http.ResponseWriter, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":     "error",
		"message":    "An unexpected error occurred",
		"type":       "InternalServerError",
		"request_id": requestID,
	})
}
