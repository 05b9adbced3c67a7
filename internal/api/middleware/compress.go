// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"net/http"

	"github.com/CAFxX/httpcompression"
)

const defaultCompressMinSize = 1024

// Compress negotiates gzip, brotli or zstd for responses of at least minSize bytes.
func Compress(minSize int) (func(http.Handler) http.Handler, error) {
	if minSize <= 0 {
		minSize = defaultCompressMinSize
	}
	return httpcompression.DefaultAdapter(httpcompression.MinSize(minSize))
}
