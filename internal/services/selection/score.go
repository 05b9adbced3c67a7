// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package selection

import (
	"math"
	"strings"

	"github.com/autobrr/seederbot/internal/models"
)

const (
	maxSeederPoints  = 10.0
	seedersPerPoint  = 10.0
	idealSizeGiB     = 4.0
	maxSizePoints    = 5.0
	freeleechBonus   = 15.0
	webDLPoints      = 10.0
	blurayPoints     = 8.0
	webRipPoints     = 6.0
	noEncodingPoints = 0.0
)

// Score is the sum of the seeder, encode, size-affinity and freeleech terms.
func Score(c models.Candidate) float64 {
	return SeederPoints(c.Seeders) + EncodePoints(c.Title) + SizePoints(c.Size) + FreeleechPoints(c.DownloadVolumeFactor)
}

// SeederPoints awards one point per ten seeders, capped at ten.
func SeederPoints(seeders int) float64 {
	return math.Min(float64(seeders)/seedersPerPoint, maxSeederPoints)
}

// EncodePoints looks for encode markers in precedence order; only the first match counts.
func EncodePoints(title string) float64 {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "web-dl"):
		return webDLPoints
	case strings.Contains(lower, "bluray"), strings.Contains(lower, "blu-ray"):
		return blurayPoints
	case strings.Contains(lower, "webrip"):
		return webRipPoints
	default:
		return noEncodingPoints
	}
}

// SizePoints peaks at 4 GiB and falls off linearly, floored at zero.
func SizePoints(sizeBytes int64) float64 {
	sizeGiB := float64(sizeBytes) / bytesPerGiB
	return math.Max(0, maxSizePoints-math.Abs(sizeGiB-idealSizeGiB))
}

// FreeleechPoints awards the freeleech bonus when the download does not count against ratio.
func FreeleechPoints(downloadVolumeFactor float64) float64 {
	if downloadVolumeFactor == 0.0 {
		return freeleechBonus
	}
	return 0
}

// Rank scores every candidate and sorts them best first. Equal scores keep their input order.
func Rank(candidates []models.Candidate) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, models.ScoredCandidate{Candidate: c, Score: Score(c)})
	}
	sortByScore(scored)
	return scored
}
