// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/autobrr/seederbot/internal/buildinfo"
	"github.com/autobrr/seederbot/internal/domain"
)

const (
	EnvPrefix      = "SEEDERBOT__"
	configFileName = "config.toml"
	appDirName     = "seederbot"
)

// legacyEnv lists unprefixed variable names accepted for compatibility with
// existing .env based deployments.
var legacyEnv = map[string]string{
	"appToken":      "APP_TOKEN",
	"radarrUrl":     "RADARR_URL",
	"radarrApiKey":  "RADARR_API_KEY",
	"jackettUrl":    "JACKETT_URL",
	"jackettApiKey": "JACKETT_API_KEY",
	"watchDir":      "AUTOADD_WATCH_DIR",
}

// AppConfig owns the loaded configuration and keeps it in sync with the file on disk.
type AppConfig struct {
	Config *domain.Config

	viper      *viper.Viper
	configPath string
	logCloser  func() error

	keys []string

	mu       sync.RWMutex
	watchers []func(*domain.Config)
}

// New loads configuration from configPath, which may be a config file, a directory
// holding config.toml, or empty for the platform default. A commented config is
// written when none exists. Environment variables prefixed with SEEDERBOT__ take
// precedence over the file.
func New(configPath string) (*AppConfig, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	c := &AppConfig{
		Config:     &domain.Config{},
		viper:      viper.New(),
		configPath: path,
	}

	c.defaults()
	if err := c.bindEnv(); err != nil {
		return nil, err
	}

	if err := c.load(); err != nil {
		return nil, err
	}

	if err := c.ensureAppToken(); err != nil {
		return nil, err
	}

	c.Config.Version = buildinfo.Version
	return c, nil
}

// Path returns the config file in use.
func (c *AppConfig) Path() string {
	return c.configPath
}

// Get returns the current configuration.
func (c *AppConfig) Get() *domain.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Config
}

func (c *AppConfig) defaults() {
	c.setDefault("mode", "blackhole")
	c.setDefault("host", "0.0.0.0")
	c.setDefault("port", 8000)
	c.setDefault("baseUrl", "")
	c.setDefault("appToken", "")

	c.setDefault("logLevel", "INFO")
	c.setDefault("logFormat", "json")
	c.setDefault("logPath", "")
	c.setDefault("logMaxSize", 50)
	c.setDefault("logMaxBackups", 3)

	c.setDefault("maxConcurrentRequests", 10)
	c.setDefault("requestTimeout", 30*time.Second)
	c.setDefault("cacheTTL", 300*time.Second)
	c.setDefault("rateLimitPerSecond", 2.0)
	c.setDefault("rateLimitBurst", 5)
	c.setDefault("retryAttempts", 3)
	c.setDefault("retryDelay", time.Second)
	c.setDefault("corsAllowedOrigins", []string{"*"})

	c.setDefault("radarrUrl", "")
	c.setDefault("radarrApiKey", "")
	c.setDefault("rootFolder", "/movies")
	c.setDefault("qualityProfileId", 4)

	c.setDefault("jackettUrl", "")
	c.setDefault("jackettApiKey", "")
	c.setDefault("jackettIndexer", "all")
	c.setDefault("categories", "2000,2010")

	c.setDefault("minSeeders", 20)
	c.setDefault("qualityRegex", `1080p.*WEB-DL|1080p.*BluRay`)
	c.setDefault("excludeRegex", `CAM|TS|TC|WORKPRINT`)
	c.setDefault("minSizeGb", 2.5)
	c.setDefault("maxSizeGb", 6.0)

	c.setDefault("watchDir", "/data/torrents/watch")

	c.setDefault("qbitHost", "")
	c.setDefault("qbitUsername", "")
	c.setDefault("qbitPassword", "")
	c.setDefault("qbitBasicUsername", "")
	c.setDefault("qbitBasicPassword", "")
	c.setDefault("qbitCategory", "")
	c.setDefault("qbitTags", []string{})
	c.setDefault("qbitSavePath", "")
	c.setDefault("qbitStartPaused", false)

	c.setDefault("watchlistRetryInterval", 15*time.Minute)
	c.setDefault("watchlistMaxAttempts", 5)

	c.setDefault("metricsEnabled", false)
	c.setDefault("metricsHost", "127.0.0.1")
	c.setDefault("metricsPort", 9074)
	c.setDefault("metricsBasicAuthUsers", "")
}

func (c *AppConfig) setDefault(key string, value any) {
	c.keys = append(c.keys, key)
	c.viper.SetDefault(key, value)
}

// bindEnv maps every known key to SEEDERBOT__SCREAMING_SNAKE, e.g. jackettApiKey
// is read from SEEDERBOT__JACKETT_API_KEY.
func (c *AppConfig) bindEnv() error {
	for _, key := range c.keys {
		names := []string{EnvPrefix + envName(key)}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := c.viper.BindEnv(append([]string{key}, names...)...); err != nil {
			return errors.Wrapf(err, "could not bind env for %s", key)
		}
	}
	return nil
}

func (c *AppConfig) load() error {
	if _, err := os.Stat(c.configPath); errors.Is(err, os.ErrNotExist) {
		if err := WriteDefaultConfig(c.configPath); err != nil {
			log.Warn().Err(err).Str("path", c.configPath).Msg("could not write default config, continuing with defaults and environment")
		} else {
			log.Info().Str("path", c.configPath).Msg("wrote default config")
		}
	}

	c.viper.SetConfigFile(c.configPath)
	c.viper.SetConfigType("toml")

	if err := c.viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "could not read config %s", c.configPath)
	}

	cfg := &domain.Config{}
	if err := c.viper.Unmarshal(cfg); err != nil {
		return errors.Wrap(err, "could not decode config")
	}
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))

	c.mu.Lock()
	c.Config = cfg
	c.mu.Unlock()

	return nil
}

// ensureAppToken generates a token when none is configured and stores it in the
// config file when that file is writable, so the token survives restarts.
func (c *AppConfig) ensureAppToken() error {
	if c.Config.AppToken != "" {
		return nil
	}

	token, err := GenerateToken()
	if err != nil {
		return err
	}
	c.Config.AppToken = token
	c.viper.Set("appToken", token)

	if err := PersistAppToken(c.configPath, token); err != nil {
		log.Warn().Err(err).Msg("generated an app token for this run only, set appToken to keep it across restarts")
		log.Warn().Str("appToken", token).Msg("ephemeral app token")
		return nil
	}

	log.Info().Str("path", c.configPath).Msg("generated app token and saved it to the config file")
	return nil
}

// OnChange registers fn to run after the config file is reloaded.
func (c *AppConfig) OnChange(fn func(*domain.Config)) {
	c.mu.Lock()
	c.watchers = append(c.watchers, fn)
	c.mu.Unlock()
}

// WatchConfig reloads the file when it changes. Only the log level is applied
// live; other settings are picked up on restart.
func (c *AppConfig) WatchConfig() {
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		c.reload(e.Name)
	})
	c.viper.WatchConfig()
}

func (c *AppConfig) reload(name string) {
	previous := c.Get()

	cfg := &domain.Config{}
	if err := c.viper.Unmarshal(cfg); err != nil {
		log.Error().Err(err).Str("file", name).Msg("config reload failed")
		return
	}
	cfg.Version = previous.Version
	if cfg.AppToken == "" {
		cfg.AppToken = previous.AppToken
	}

	if !strings.EqualFold(cfg.LogLevel, previous.LogLevel) {
		setLogLevel(cfg.LogLevel)
		log.Info().Str("level", cfg.LogLevel).Msg("log level changed")
	}

	c.mu.Lock()
	c.Config = cfg
	watchers := append([]func(*domain.Config){}, c.watchers...)
	c.mu.Unlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

// GenerateToken returns a URL-safe random token of 43 characters.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "could not generate token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func resolveConfigPath(configPath string) (string, error) {
	if configPath == "" {
		configPath = getDefaultConfigDir()
	}

	if strings.HasSuffix(configPath, ".toml") {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return "", errors.Wrapf(err, "could not resolve %s", configPath)
		}
		return abs, nil
	}

	if err := os.MkdirAll(configPath, 0o755); err != nil {
		return "", errors.Wrapf(err, "could not create config directory %s", configPath)
	}

	abs, err := filepath.Abs(filepath.Join(configPath, configFileName))
	if err != nil {
		return "", errors.Wrapf(err, "could not resolve %s", configPath)
	}
	return abs, nil
}

// getDefaultConfigDir returns /config inside the container image and the
// user config directory elsewhere.
func getDefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg == "/config" {
		return xdg
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, appDirName)
}

// envName converts a camelCase key into SCREAMING_SNAKE_CASE, keeping acronyms
// together: cacheTTL -> CACHE_TTL, minSizeGb -> MIN_SIZE_GB.
func envName(key string) string {
	runes := []rune(key)

	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// SetLevel adjusts the global log level. It is exported for the CLI.
func SetLevel(level string) {
	setLogLevel(level)
}

func setLogLevel(level string) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "WARN", "WARNING":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
