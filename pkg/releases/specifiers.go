// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"slices"
	"strings"
)

// codecLabels maps the spellings seen in release names to one display label.
var codecLabels = map[string]string{
	"X264":  "H.264",
	"H.264": "H.264",
	"H264":  "H.264",
	"AVC":   "H.264",
	"X265":  "H.265",
	"H.265": "H.265",
	"H265":  "H.265",
	"HEVC":  "H.265",
}

// CodecLabel returns the display label for a video codec, or the uppercased
// input when the codec has no alias.
func CodecLabel(codec string) string {
	upper := strings.ToUpper(strings.TrimSpace(codec))
	if label, ok := codecLabels[upper]; ok {
		return label
	}
	return upper
}

// CodecLabels labels every codec, drops duplicates and joins them sorted.
func CodecLabels(codecs []string) string {
	if len(codecs) == 0 {
		return ""
	}
	labels := make([]string, 0, len(codecs))
	for _, codec := range codecs {
		if label := CodecLabel(codec); label != "" && !slices.Contains(labels, label) {
			labels = append(labels, label)
		}
	}
	slices.Sort(labels)
	return strings.Join(labels, "/")
}

var sourceLabels = map[string]string{
	"WEB-DL":     "WEB-DL",
	"WEBDL":      "WEB-DL",
	"WEBRIP":     "WEBRip",
	"WEB":        "WEB",
	"BLURAY":     "BluRay",
	"BLU-RAY":    "BluRay",
	"BDRIP":      "BluRay",
	"BRRIP":      "BluRay",
	"UHD.BLURAY": "BluRay",
	"REMUX":      "Remux",
	"HDTV":       "HDTV",
	"DVDRIP":     "DVD",
	"DVD":        "DVD",
}

// SourceLabel returns the display label for a release source, matching the
// spellings the candidate scorer ranks. Unknown sources are returned trimmed.
func SourceLabel(source string) string {
	trimmed := strings.TrimSpace(source)
	if label, ok := sourceLabels[strings.ToUpper(trimmed)]; ok {
		return label
	}
	return trimmed
}
