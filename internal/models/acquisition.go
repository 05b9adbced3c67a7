// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

// AcquisitionMode selects how a chosen candidate is handed off.
type AcquisitionMode string

const (
	// AcquisitionModeRemote delegates to a download manager (Radarr, qBittorrent).
	AcquisitionModeRemote AcquisitionMode = "remote"
	// AcquisitionModeFileDrop writes a .torrent into a watched directory.
	AcquisitionModeFileDrop AcquisitionMode = "filedrop"
)

// RemoteReceipt carries what a download manager reported back after accepting an item.
type RemoteReceipt struct {
	Service         string `json:"service"`
	MovieID         int    `json:"movieId,omitempty"`
	TMDBID          int    `json:"tmdbId,omitempty"`
	Title           string `json:"title,omitempty"`
	Year            int    `json:"year,omitempty"`
	SearchTriggered bool   `json:"searchTriggered"`
}

// AcquisitionResult is produced once per acquisition attempt and never persisted.
type AcquisitionResult struct {
	Candidate    Candidate       `json:"candidate"`
	Mode         AcquisitionMode `json:"mode"`
	Acquired     bool            `json:"acquired"`
	ArtifactPath string          `json:"artifactPath,omitempty"`
	InfoHash     string          `json:"infoHash,omitempty"`
	Remote       *RemoteReceipt  `json:"remote,omitempty"`
	Error        string          `json:"error,omitempty"`

	// Err keeps the typed failure for errors.Is checks; Error is its rendered form.
	Err error `json:"-"`
}

// ServiceMode is the configured end-to-end behavior of a grab request.
type ServiceMode string

const (
	// ServiceModeRadarr hands the title to Radarr, which searches on its own.
	ServiceModeRadarr ServiceMode = "radarr"
	// ServiceModeQbittorrent selects a candidate and adds its URL to qBittorrent.
	ServiceModeQbittorrent ServiceMode = "qbittorrent"
	// ServiceModeBlackhole selects a candidate and drops its .torrent into the watch directory.
	ServiceModeBlackhole ServiceMode = "blackhole"
)

func (m ServiceMode) Valid() bool {
	switch m {
	case ServiceModeRadarr, ServiceModeQbittorrent, ServiceModeBlackhole:
		return true
	default:
		return false
	}
}

// AcquisitionMode maps the service mode to the dispatcher path it uses.
func (m ServiceMode) AcquisitionMode() AcquisitionMode {
	if m == ServiceModeBlackhole {
		return AcquisitionModeFileDrop
	}
	return AcquisitionModeRemote
}

// UsesSelector reports whether the relay itself searches indexers in this mode.
func (m ServiceMode) UsesSelector() bool {
	return m != ServiceModeRadarr
}
