// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package acquisition

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDownloadURL means the selected candidate has nothing to fetch.
	ErrNoDownloadURL = errors.New("candidate has no download url")
	// ErrInvalidArtifact means the fetched bytes do not look like a .torrent file.
	ErrInvalidArtifact = errors.New("downloaded file is not a valid torrent")
	// ErrModeNotConfigured means no collaborator was wired for the requested mode.
	ErrModeNotConfigured = errors.New("acquisition mode not configured")
)

// TransportError wraps a network failure talking to an indexer or download manager.
type TransportError struct {
	Stage     string
	Candidate string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed for %q: %v", e.Stage, e.Candidate, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FilesystemError wraps a failure writing into the watch directory.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
