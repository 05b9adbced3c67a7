// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package selection

import (
	"fmt"
	"regexp"
	"strings"
)

const bytesPerGiB = 1 << 30

// FilterConfig is built once at startup and only read afterwards.
type FilterConfig struct {
	MinSeeders     int
	MinSizeBytes   int64
	MaxSizeBytes   int64
	QualityPattern *regexp.Regexp
	ExcludePattern *regexp.Regexp
}

// FilterOptions is the textual form of FilterConfig as it appears in configuration.
type FilterOptions struct {
	MinSeeders   int
	MinSizeGB    float64
	MaxSizeGB    float64
	QualityRegex string
	ExcludeRegex string
}

// NewFilterConfig validates opts and compiles both patterns case-insensitively.
// An empty pattern disables that check.
func NewFilterConfig(opts FilterOptions) (FilterConfig, error) {
	if opts.MinSeeders < 0 {
		return FilterConfig{}, fmt.Errorf("minSeeders must not be negative, got %d", opts.MinSeeders)
	}
	if opts.MinSizeGB < 0 || opts.MaxSizeGB < 0 {
		return FilterConfig{}, fmt.Errorf("size limits must not be negative")
	}
	if opts.MinSizeGB > opts.MaxSizeGB {
		return FilterConfig{}, fmt.Errorf("minSizeGb (%.2f) must not exceed maxSizeGb (%.2f)", opts.MinSizeGB, opts.MaxSizeGB)
	}

	cfg := FilterConfig{
		MinSeeders:   opts.MinSeeders,
		MinSizeBytes: int64(opts.MinSizeGB * bytesPerGiB),
		MaxSizeBytes: int64(opts.MaxSizeGB * bytesPerGiB),
	}

	var err error
	if cfg.QualityPattern, err = compileInsensitive(opts.QualityRegex); err != nil {
		return FilterConfig{}, fmt.Errorf("invalid qualityRegex: %w", err)
	}
	if cfg.ExcludePattern, err = compileInsensitive(opts.ExcludeRegex); err != nil {
		return FilterConfig{}, fmt.Errorf("invalid excludeRegex: %w", err)
	}

	return cfg, nil
}

func compileInsensitive(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	return regexp.Compile("(?i)" + pattern)
}
