// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"slices"
	"strings"

	"github.com/moistari/rls"
)

// ContentType returns a coarse classification of a parsed release: movie, tv,
// music, other or unknown. Search previews use it to flag indexer results that
// are clearly not films.
func ContentType(release *rls.Release) string {
	if release == nil {
		return "unknown"
	}

	typ := release.Type
	if typ == rls.Music && looksLikeVideo(release) {
		// Dash separated folder names such as BDMV/STREAM paths parse as music.
		typ = rls.Movie
		if release.Series > 0 || release.Episode > 0 {
			typ = rls.Episode
		}
	}

	switch typ {
	case rls.Movie:
		return "movie"
	case rls.Episode, rls.Series:
		return "tv"
	case rls.Music, rls.Audiobook:
		return "music"
	case rls.Unknown:
	default:
		return "other"
	}

	switch {
	case release.Series > 0 || release.Episode > 0:
		return "tv"
	case release.Year > 0:
		return "movie"
	default:
		return "unknown"
	}
}

var videoTokens = []string{
	"2160p", "1080p", "720p", "576p", "480p", "remux", "bluray", "blu-ray", "bdrip",
	"web-dl", "webdl", "webrip", "hdtv", "x264", "x265", "hevc", "m2ts",
}

func looksLikeVideo(release *rls.Release) bool {
	if release.Resolution != "" || len(release.HDR) > 0 {
		return true
	}
	for _, codec := range release.Codec {
		switch CodecLabel(codec) {
		case "H.264", "H.265", "XVID", "AV1", "VC-1", "MPEG-2":
			return true
		}
	}

	lower := strings.ToLower(release.Title + " " + release.Group)
	return slices.ContainsFunc(videoTokens, func(token string) bool {
		return strings.Contains(lower, token)
	})
}
