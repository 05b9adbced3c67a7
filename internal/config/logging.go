// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/autobrr/seederbot/internal/domain"
)

// SetupLogging points the global logger at stdout and, when logPath is set,
// a size-rotated file.
func (c *AppConfig) SetupLogging() error {
	writer, closer, err := newLogWriter(c.Get(), os.Stdout)
	if err != nil {
		return err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	setLogLevel(c.Get().LogLevel)

	c.logCloser = closer
	return nil
}

// Close releases the log file, if any.
func (c *AppConfig) Close() error {
	if c.logCloser == nil {
		return nil
	}
	return c.logCloser()
}

func newLogWriter(cfg *domain.Config, stdout io.Writer) (io.Writer, func() error, error) {
	var console io.Writer = stdout
	if strings.EqualFold(cfg.LogFormat, "console") {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}

	if cfg.LogPath == "" {
		return console, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, nil, errors.Wrapf(err, "could not create log directory for %s", cfg.LogPath)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
	}

	return zerolog.MultiLevelWriter(console, rotator), rotator.Close, nil
}
