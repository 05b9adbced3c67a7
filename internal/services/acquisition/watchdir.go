// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package acquisition

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const recentFilesLimit = 5

// WatchDir is the directory an external torrent client polls for new .torrent files.
type WatchDir struct {
	path string
}

// WatchDirFile is a single entry in the status listing.
type WatchDirFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// WatchDirStatus reports what an operator needs to debug a silent watch directory.
type WatchDirStatus struct {
	Path         string         `json:"path"`
	Exists       bool           `json:"exists"`
	Writable     bool           `json:"writable"`
	TorrentCount int            `json:"torrent_count"`
	RecentFiles  []WatchDirFile `json:"recent_files"`
	Error        string         `json:"error,omitempty"`
}

func NewWatchDir(path string) *WatchDir {
	return &WatchDir{path: filepath.Clean(path)}
}

func (w *WatchDir) Path() string {
	return w.path
}

// Write stores content under name. The file is staged under a dot-prefixed temp
// name and renamed into place so the polling client never sees a partial file.
func (w *WatchDir) Write(name string, content []byte) (string, error) {
	if strings.ContainsAny(name, `/\`) || name == "" || name == "." || name == ".." {
		return "", &FilesystemError{Op: "write", Path: name, Err: errors.New("invalid file name")}
	}

	if err := os.MkdirAll(w.path, 0o755); err != nil {
		return "", &FilesystemError{Op: "mkdir", Path: w.path, Err: errors.Wrap(err, "could not create watch directory")}
	}

	target := filepath.Join(w.path, name)

	tmp, err := os.CreateTemp(w.path, ".seederbot-*.tmp")
	if err != nil {
		return "", &FilesystemError{Op: "create", Path: w.path, Err: errors.Wrap(err, "could not create temp file")}
	}
	tmpName := tmp.Name()

	cleanup := func() {
		if removeErr := os.Remove(tmpName); removeErr != nil && !os.IsNotExist(removeErr) {
			log.Warn().Err(removeErr).Str("path", tmpName).Msg("failed to remove temp file")
		}
	}

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", &FilesystemError{Op: "write", Path: target, Err: errors.Wrap(err, "could not write torrent file")}
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", &FilesystemError{Op: "sync", Path: target, Err: errors.Wrap(err, "could not sync torrent file")}
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return "", &FilesystemError{Op: "close", Path: target, Err: errors.Wrap(err, "could not close torrent file")}
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return "", &FilesystemError{Op: "chmod", Path: target, Err: errors.Wrap(err, "could not set permissions")}
	}

	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return "", &FilesystemError{Op: "rename", Path: target, Err: errors.Wrapf(err, "could not move torrent file into %s", w.path)}
	}

	return target, nil
}

// Probe checks that the directory exists and accepts a new file.
func (w *WatchDir) Probe() error {
	info, err := os.Stat(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("watch directory does not exist: %s", w.path)
		}
		return errors.Wrapf(err, "could not stat watch directory: %s", w.path)
	}
	if !info.IsDir() {
		return errors.Errorf("watch directory is not a directory: %s", w.path)
	}

	f, err := os.CreateTemp(w.path, ".seederbot-probe-*")
	if err != nil {
		return errors.Wrapf(err, "cannot write to watch directory: %s", w.path)
	}
	name := f.Name()
	_ = f.Close()

	if err := os.Remove(name); err != nil {
		return errors.Wrapf(err, "could not remove probe file in %s", w.path)
	}

	return nil
}

// Status lists the directory. Failures are reported in the struct, never returned.
func (w *WatchDir) Status() WatchDirStatus {
	status := WatchDirStatus{Path: w.path, RecentFiles: []WatchDirFile{}}

	info, err := os.Stat(w.path)
	if err != nil || !info.IsDir() {
		return status
	}
	status.Exists = true
	status.Writable = w.Probe() == nil

	entries, err := os.ReadDir(w.path)
	if err != nil {
		status.Error = errors.Wrap(err, "could not read watch directory").Error()
		return status
	}

	files := make([]WatchDirFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), descriptorExtension) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, WatchDirFile{Name: entry.Name(), Size: fi.Size(), Modified: fi.ModTime()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})

	status.TorrentCount = len(files)
	if len(files) > recentFilesLimit {
		files = files[:recentFilesLimit]
	}
	status.RecentFiles = files

	return status
}
