// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

var defaultConfigTemplate = template.Must(template.New("config").Parse(`# config.toml - Auto-generated on first run

# Operation mode
# Options: "radarr", "qbittorrent", "blackhole"
# Default: "blackhole"
mode = "blackhole"

# Hostname / IP
# Default: "0.0.0.0"
host = "0.0.0.0"

# Port
# Default: 8000
port = 8000

# Base URL
# Set custom baseUrl eg /seederbot/ to serve under a subpath behind a reverse proxy
# Optional
#baseUrl = ""

# Token required on every webhook request, sent as "Authorization: Bearer <token>"
# or "X-API-Key: <token>". Must be at least 32 characters.
appToken = "{{ .AppToken }}"

# Log level
# Default: "INFO"
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
logLevel = "INFO"

# Log format
# Default: "json"
# Options: "json", "console"
#logFormat = "json"

# Log file path
# If not defined, logs to stdout
# Optional
#logPath = "log/seederbot.log"

# Log rotation
# Maximum log file size in megabytes before rotation
# Default: 50
#logMaxSize = 50

# Number of rotated log files to retain (0 keeps all)
# Default: 3
#logMaxBackups = 3

# Limits
# Durations use Go syntax, for example "30s" or "5m"
#maxConcurrentRequests = 10
#requestTimeout = "30s"
#cacheTTL = "5m"
#rateLimitPerSecond = 2.0
#rateLimitBurst = 5
#retryAttempts = 3
#retryDelay = "1s"

# Allowed CORS origins
# Default: ["*"]
#corsAllowedOrigins = ["*"]

# Radarr (mode = "radarr")
#radarrUrl = "http://radarr:7878"
#radarrApiKey = ""
#rootFolder = "/movies"
#qualityProfileId = 4

# Jackett (mode = "qbittorrent" or "blackhole")
#jackettUrl = "http://jackett:9117"
#jackettApiKey = ""
#jackettIndexer = "all"
#categories = "2000,2010"

# Candidate filter
#minSeeders = 20
#qualityRegex = "1080p.*WEB-DL|1080p.*BluRay"
#excludeRegex = "CAM|TS|TC|WORKPRINT"
#minSizeGb = 2.5
#maxSizeGb = 6.0

# Blackhole watch directory (mode = "blackhole")
#watchDir = "/data/torrents/watch"

# qBittorrent (mode = "qbittorrent")
#qbitHost = "http://qbittorrent:8080"
#qbitUsername = ""
#qbitPassword = ""
#qbitCategory = "movies"
#qbitTags = ["seederbot"]
#qbitSavePath = ""
#qbitStartPaused = false

# Watchlist background retry of pending items
# Set watchlistRetryInterval to "0s" to disable
#watchlistRetryInterval = "15m"
#watchlistMaxAttempts = 5

# Prometheus metrics
#metricsEnabled = false
#metricsHost = "127.0.0.1"
#metricsPort = 9074
# Comma separated user:password pairs for basic auth on /metrics
#metricsBasicAuthUsers = ""
`))

// WriteDefaultConfig writes a commented config with a fresh app token.
func WriteDefaultConfig(path string) error {
	token, err := GenerateToken()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := defaultConfigTemplate.Execute(&buf, struct{ AppToken string }{AppToken: token}); err != nil {
		return errors.Wrap(err, "could not render default config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "could not create config directory %s", filepath.Dir(path))
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return errors.Wrapf(err, "could not write config %s", path)
	}

	return nil
}

// PersistAppToken stores token in the config file at path, replacing an existing
// or commented appToken entry in place.
func PersistAppToken(path, token string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "could not read config %s", path)
	}

	updated := setTOMLKey(string(content), "appToken", strconv.Quote(token))

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "could not stat config %s", path)
	}

	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "could not write config %s", path)
	}
	return nil
}

// setTOMLKey sets a top-level key. An existing line, commented or not, is
// rewritten in place; otherwise the key is inserted before the first table.
func setTOMLKey(content, key, value string) string {
	line := fmt.Sprintf("%s = %s", key, value)
	lines := strings.Split(content, "\n")

	firstTable := -1
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "[") {
			firstTable = i
			break
		}

		candidate := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
		name, _, found := strings.Cut(candidate, "=")
		if found && strings.TrimSpace(name) == key {
			lines[i] = line
			return strings.Join(lines, "\n")
		}
	}

	if firstTable == -1 {
		if !strings.HasSuffix(content, "\n") && content != "" {
			content += "\n"
		}
		return content + line + "\n"
	}

	out := make([]string, 0, len(lines)+2)
	out = append(out, lines[:firstTable]...)
	out = append(out, line, "")
	out = append(out, lines[firstTable:]...)
	return strings.Join(out, "\n")
}
