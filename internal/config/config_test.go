// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/seederbot/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := New(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "config.toml")
	assert.Equal(t, path, cfg.Path())
	assert.FileExists(t, path)

	c := cfg.Get()
	assert.Equal(t, "blackhole", c.Mode)
	assert.Equal(t, "0.0.0.0", c.Host)
	assert.Equal(t, 8000, c.Port)
	assert.Equal(t, 10, c.MaxConcurrentRequests)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, 300*time.Second, c.CacheTTL)
	assert.InDelta(t, 2.0, c.RateLimitPerSecond, 0.0001)
	assert.Equal(t, 5, c.RateLimitBurst)
	assert.Equal(t, "2000,2010", c.Categories)
	assert.Equal(t, 20, c.MinSeeders)
	assert.InDelta(t, 2.5, c.MinSizeGB, 0.0001)
	assert.InDelta(t, 6.0, c.MaxSizeGB, 0.0001)
	assert.Equal(t, "/data/torrents/watch", c.WatchDir)
	assert.Equal(t, []string{"*"}, c.CORSAllowedOrigins)
	assert.Len(t, c.AppToken, 43)

	again, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, c.AppToken, again.Get().AppToken, "token must be stable across restarts")
}

func TestNewReadsConfigFile(t *testing.T) {
	path := writeConfig(t, `
mode = "Radarr"
port = 9000
appToken = "0123456789abcdef0123456789abcdef"
requestTimeout = "10s"
radarrUrl = "http://radarr:7878"
radarrApiKey = "secret"
minSizeGb = 1.5
qbitTags = ["movies", "seederbot"]
watchlistRetryInterval = "0s"
`)

	cfg, err := New(path)
	require.NoError(t, err)

	c := cfg.Get()
	assert.Equal(t, "radarr", c.Mode)
	assert.Equal(t, 9000, c.Port)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", c.AppToken)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, "http://radarr:7878", c.RadarrURL)
	assert.InDelta(t, 1.5, c.MinSizeGB, 0.0001)
	assert.Equal(t, []string{"movies", "seederbot"}, c.QbitTags)
	assert.Zero(t, c.WatchlistRetryInterval)
	require.NoError(t, c.Validate())
}

func TestConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
appToken = "0123456789abcdef0123456789abcdef"
jackettApiKey = "from-file"
watchDir = "/from/file"
`)

	t.Setenv("SEEDERBOT__JACKETT_API_KEY", "from-env")
	t.Setenv("SEEDERBOT__CACHE_TTL", "1m")
	t.Setenv("SEEDERBOT__MIN_SIZE_GB", "3.5")
	t.Setenv("AUTOADD_WATCH_DIR", "/from/legacy")

	cfg, err := New(path)
	require.NoError(t, err)

	c := cfg.Get()
	assert.Equal(t, "from-env", c.JackettAPIKey, "environment variable should override config file")
	assert.Equal(t, time.Minute, c.CacheTTL)
	assert.InDelta(t, 3.5, c.MinSizeGB, 0.0001)
	assert.Equal(t, "/from/legacy", c.WatchDir)
}

func TestPrefixedEnvWinsOverLegacy(t *testing.T) {
	path := writeConfig(t, `appToken = "0123456789abcdef0123456789abcdef"`)

	t.Setenv("SEEDERBOT__JACKETT_URL", "http://prefixed:9117")
	t.Setenv("JACKETT_URL", "http://legacy:9117")

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "http://prefixed:9117", cfg.Get().JackettURL)
}

func TestMissingTokenIsGeneratedAndPersisted(t *testing.T) {
	path := writeConfig(t, `
# Token
#appToken = ""
mode = "blackhole"
`)

	cfg, err := New(path)
	require.NoError(t, err)

	token := cfg.Get().AppToken
	require.Len(t, token, 43)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `appToken = "`+token+`"`)
	assert.NotContains(t, string(content), `#appToken`)
}

func TestDockerEnvironmentCompatibility(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/config")
	assert.Equal(t, "/config", getDefaultConfigDir(), "Docker environment should use /config directly")
}

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		"jackettApiKey":          "JACKETT_API_KEY",
		"cacheTTL":               "CACHE_TTL",
		"minSizeGb":              "MIN_SIZE_GB",
		"qbitStartPaused":        "QBIT_START_PAUSED",
		"corsAllowedOrigins":     "CORS_ALLOWED_ORIGINS",
		"baseUrl":                "BASE_URL",
		"qualityProfileId":       "QUALITY_PROFILE_ID",
		"watchlistRetryInterval": "WATCHLIST_RETRY_INTERVAL",
		"mode":                   "MODE",
	}

	for key, want := range tests {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, want, envName(key))
		})
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), domain.MinAppTokenLength)
}

func TestNewLogWriter(t *testing.T) {
	t.Run("stdout only", func(t *testing.T) {
		var buf bytes.Buffer
		w, closer, err := newLogWriter(&domain.Config{LogFormat: "json"}, &buf)
		require.NoError(t, err)
		assert.Nil(t, closer)

		logger := zerolog.New(w)
		logger.Info().Msg("hello")
		assert.Contains(t, buf.String(), `"message":"hello"`)
	})

	t.Run("console format", func(t *testing.T) {
		var buf bytes.Buffer
		w, _, err := newLogWriter(&domain.Config{LogFormat: "console"}, &buf)
		require.NoError(t, err)
		assert.IsType(t, zerolog.ConsoleWriter{}, w)
	})

	t.Run("rotated file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "log", "seederbot.log")
		w, closer, err := newLogWriter(&domain.Config{LogPath: path, LogMaxSize: 1, LogMaxBackups: 1}, &buf)
		require.NoError(t, err)
		require.NotNil(t, closer)
		t.Cleanup(func() { _ = closer() })

		logger := zerolog.New(w)
		logger.Warn().Msg("to file")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "to file")
		assert.Contains(t, buf.String(), "to file")
	})
}

func TestSetLevel(t *testing.T) {
	previous := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(previous) })

	SetLevel("debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	SetLevel("nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
