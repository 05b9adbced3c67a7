// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package acquisition

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"
)

const (
	maxFilenameStemRunes = 200
	descriptorExtension  = ".torrent"
	titleHashLength      = 8
)

// DeriveFilename maps a release title to the name it is dropped under. Existing
// deployments depend on the exact output, so the rules are fixed: keep letters,
// digits, space, dot, hyphen and underscore; trim; cut to 200 runes; then append
// "_" plus the first 8 hex chars of md5(title) and ".torrent".
func DeriveFilename(title string) string {
	var sb strings.Builder
	sb.Grow(len(title))
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || strings.ContainsRune(" .-_", r) {
			sb.WriteRune(r)
		}
	}

	stem := strings.TrimSpace(sb.String())
	if runes := []rune(stem); len(runes) > maxFilenameStemRunes {
		stem = string(runes[:maxFilenameStemRunes])
	}

	sum := md5.Sum([]byte(title))
	return stem + "_" + hex.EncodeToString(sum[:])[:titleHashLength] + descriptorExtension
}
