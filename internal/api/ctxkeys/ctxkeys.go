// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package ctxkeys holds request-scoped values shared by middleware and handlers.
package ctxkeys

import "context"

type key int

const (
	requestIDKey key = iota
	authMethodKey
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id stored by WithRequestID, if any.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// WithAuthMethod records how the caller authenticated, "bearer" or "apikey".
func WithAuthMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, authMethodKey, method)
}

// AuthMethod returns the method stored by WithAuthMethod, or "" for
// unauthenticated routes.
func AuthMethod(ctx context.Context) string {
	method, _ := ctx.Value(authMethodKey).(string)
	return method
}
