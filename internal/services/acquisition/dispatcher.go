// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package acquisition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/models"
)

// RemoteService is a download manager that accepts a request and starts fetching it.
// Radarr ignores the candidate and searches itself; qBittorrent adds its download URL.
type RemoteService interface {
	Name() string
	AddAndSearch(ctx context.Context, req models.MediaRequest, candidate models.Candidate) (*models.RemoteReceipt, error)
}

// Fetcher downloads the raw descriptor bytes behind a candidate's download URL.
type Fetcher interface {
	Download(ctx context.Context, downloadURL string) ([]byte, error)
}

// Dispatcher hands a selected candidate to one of the configured acquisition paths.
type Dispatcher struct {
	remote   RemoteService
	fetcher  Fetcher
	watchDir *WatchDir
}

type Option func(*Dispatcher)

func WithRemote(remote RemoteService) Option {
	return func(d *Dispatcher) {
		d.remote = remote
	}
}

func WithFileDrop(fetcher Fetcher, watchDir *WatchDir) Option {
	return func(d *Dispatcher) {
		d.fetcher = fetcher
		d.watchDir = watchDir
	}
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WatchDir returns the configured drop directory, or nil.
func (d *Dispatcher) WatchDir() *WatchDir {
	return d.watchDir
}

// RemoteName returns the configured download manager name, or "".
func (d *Dispatcher) RemoteName() string {
	if d.remote == nil {
		return ""
	}
	return d.remote.Name()
}

// Acquire never returns an error directly; failures are recorded on the result.
func (d *Dispatcher) Acquire(ctx context.Context, req models.MediaRequest, candidate models.Candidate, mode models.AcquisitionMode) models.AcquisitionResult {
	result := models.AcquisitionResult{Candidate: candidate, Mode: mode}

	var err error
	switch mode {
	case models.AcquisitionModeRemote:
		err = d.acquireRemote(ctx, req, candidate, &result)
	case models.AcquisitionModeFileDrop:
		err = d.acquireFileDrop(ctx, candidate, &result)
	default:
		err = fmt.Errorf("%w: %q", ErrModeNotConfigured, mode)
	}

	if err != nil {
		result.Acquired = false
		result.Err = err
		result.Error = err.Error()
		log.Error().Err(err).Str("mode", string(mode)).Str("title", candidate.Title).Msg("acquisition failed")
		return result
	}

	result.Acquired = true
	return result
}

func (d *Dispatcher) acquireRemote(ctx context.Context, req models.MediaRequest, candidate models.Candidate, result *models.AcquisitionResult) error {
	if d.remote == nil {
		return fmt.Errorf("%w: remote", ErrModeNotConfigured)
	}

	receipt, err := d.remote.AddAndSearch(ctx, req, candidate)
	if err != nil {
		return err
	}
	result.Remote = receipt

	log.Info().
		Str("service", d.remote.Name()).
		Str("title", req.Title).
		Int("year", req.Year).
		Msg("handed off to download manager")

	return nil
}

func (d *Dispatcher) acquireFileDrop(ctx context.Context, candidate models.Candidate, result *models.AcquisitionResult) error {
	if d.fetcher == nil || d.watchDir == nil {
		return fmt.Errorf("%w: filedrop", ErrModeNotConfigured)
	}

	downloadURL := strings.TrimSpace(candidate.DownloadURL)
	if downloadURL == "" {
		return ErrNoDownloadURL
	}

	content, err := d.fetcher.Download(ctx, downloadURL)
	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			return err
		}
		return &TransportError{Stage: "download", Candidate: candidate.Title, Err: err}
	}

	if !IsValidDescriptor(content) {
		log.Warn().Str("title", candidate.Title).Int("bytes", len(content)).Msg("downloaded payload is not a torrent file")
		return ErrInvalidArtifact
	}

	if info, inspectErr := InspectDescriptor(content); inspectErr == nil {
		result.InfoHash = info.InfoHash
		log.Debug().
			Str("infohash", info.InfoHash).
			Str("name", info.Name).
			Int64("size", info.TotalSize).
			Int("files", info.Files).
			Msg("torrent metainfo")
	} else {
		log.Debug().Err(inspectErr).Str("title", candidate.Title).Msg("could not decode metainfo")
	}

	path, err := d.watchDir.Write(DeriveFilename(candidate.Title), content)
	if err != nil {
		return err
	}
	result.ArtifactPath = path

	log.Info().
		Str("title", candidate.Title).
		Str("path", path).
		Int("seeders", candidate.Seeders).
		Msg("torrent dropped into watch directory")

	return nil
}
