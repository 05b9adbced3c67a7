// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package selection

import (
	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/models"
)

// RejectReason names the first check a candidate failed.
type RejectReason string

const (
	RejectNone           RejectReason = ""
	RejectSeeders        RejectReason = "insufficient_seeders"
	RejectSize           RejectReason = "size_out_of_range"
	RejectQuality        RejectReason = "quality_mismatch"
	RejectExcludePattern RejectReason = "excluded"
)

// Check evaluates a single candidate. Checks run in a fixed order and the first
// failure is reported. A title matching both patterns is rejected as excluded.
func Check(c models.Candidate, cfg FilterConfig) RejectReason {
	if c.Seeders < cfg.MinSeeders {
		return RejectSeeders
	}
	if c.Size < cfg.MinSizeBytes || c.Size > cfg.MaxSizeBytes {
		return RejectSize
	}
	if cfg.QualityPattern != nil && !cfg.QualityPattern.MatchString(c.Title) {
		return RejectQuality
	}
	if cfg.ExcludePattern != nil && cfg.ExcludePattern.MatchString(c.Title) {
		return RejectExcludePattern
	}
	return RejectNone
}

// Filter returns the candidates that pass every check, in their original order.
func Filter(candidates []models.Candidate, cfg FilterConfig) []models.Candidate {
	kept := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		reason := Check(c, cfg)
		if reason != RejectNone {
			log.Debug().
				Str("title", c.Title).
				Str("reason", string(reason)).
				Int("seeders", c.Seeders).
				Float64("sizeGiB", c.SizeGiB()).
				Msg("Skipping candidate")
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
