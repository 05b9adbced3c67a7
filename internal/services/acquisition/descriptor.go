// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package acquisition

import (
	"bytes"
	"fmt"

	"github.com/anacrolix/torrent/metainfo"
)

var (
	announceMarker = []byte("announce")
	infoMarker     = []byte("info")
)

// IsValidDescriptor is a cheap sanity check, not a parser: the content must open a
// bencoded dictionary and mention both "announce" and "info" somewhere. Reading the
// bytes as Latin-1 maps each byte to one rune, so a byte search is equivalent.
func IsValidDescriptor(content []byte) bool {
	if len(content) == 0 || content[0] != 'd' {
		return false
	}
	return bytes.Contains(content, announceMarker) && bytes.Contains(content, infoMarker)
}

// DescriptorInfo is what a fully parsed .torrent tells us, for logging and status output.
type DescriptorInfo struct {
	InfoHash  string
	Name      string
	TotalSize int64
	Files     int
	Announce  string
}

// InspectDescriptor decodes content as a metainfo file. It is stricter than
// IsValidDescriptor and only used for reporting.
func InspectDescriptor(content []byte) (DescriptorInfo, error) {
	mi, err := metainfo.Load(bytes.NewReader(content))
	if err != nil {
		return DescriptorInfo{}, fmt.Errorf("decode metainfo: %w", err)
	}

	info, err := mi.UnmarshalInfo()
	if err != nil {
		return DescriptorInfo{}, fmt.Errorf("decode info dictionary: %w", err)
	}

	files := len(info.Files)
	if files == 0 {
		files = 1
	}

	return DescriptorInfo{
		InfoHash:  mi.HashInfoBytes().HexString(),
		Name:      info.Name,
		TotalSize: info.TotalLength(),
		Files:     files,
		Announce:  mi.Announce,
	}, nil
}
