// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RedactedStr, RedactString("jackett-api-key"))
	assert.Equal(t, RedactedStr, RedactString("   "))
	assert.Empty(t, RedactString(""))
}

func TestConfigRedacted(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.RadarrAPIKey = "radarr-secret"
	cfg.QbitPassword = ""
	cfg.QbitBasicPassword = "proxy-secret"
	cfg.MetricsBasicAuthUsers = "prom:hunter2"

	redacted := cfg.Redacted()

	assert.Equal(t, RedactedStr, redacted.AppToken)
	assert.Equal(t, RedactedStr, redacted.JackettAPIKey)
	assert.Equal(t, RedactedStr, redacted.RadarrAPIKey)
	assert.Equal(t, RedactedStr, redacted.QbitBasicPassword)
	assert.Equal(t, RedactedStr, redacted.MetricsBasicAuthUsers)
	assert.Empty(t, redacted.QbitPassword)
	assert.Equal(t, "http://jackett:9117", redacted.JackettURL)
	assert.Equal(t, cfg.MinSeeders, redacted.MinSeeders)

	assert.NotEqual(t, RedactedStr, cfg.AppToken, "original must be untouched")
}

func TestConfigRedactedLeavesNoSecretsInJSON(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.RadarrAPIKey = "radarr-secret"

	out, err := json.Marshal(cfg.Redacted())
	require.NoError(t, err)
	assert.NotContains(t, string(out), cfg.AppToken)
	assert.NotContains(t, string(out), "radarr-secret")
}
