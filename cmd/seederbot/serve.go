// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/seederbot/internal/api"
	"github.com/autobrr/seederbot/internal/config"
	"github.com/autobrr/seederbot/internal/domain"
	"github.com/autobrr/seederbot/internal/metrics"
)

const shutdownTimeout = 15 * time.Second

func RunServeCommand() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configDir)
			if err != nil {
				return err
			}
			defer cfg.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", "Config directory or path to config.toml")
	return cmd
}

// loadConfig reads and validates the configuration and sets up logging. An
// invalid configuration stops startup with every problem listed.
func loadConfig(configDir string) (*config.AppConfig, error) {
	cfg, err := config.New(configDir)
	if err != nil {
		return nil, errors.Wrap(err, "could not load config")
	}

	if err := cfg.SetupLogging(); err != nil {
		return nil, err
	}

	if err := cfg.Get().Validate(); err != nil {
		log.Error().Err(err).Str("path", cfg.Path()).Msg("Configuration validation failed")
		return nil, errors.Wrap(err, "invalid configuration")
	}

	log.Info().
		Str("version", cfg.Get().Version).
		Str("mode", string(cfg.Get().ServiceMode())).
		Str("config", cfg.Path()).
		Msg("Configuration validated successfully")
	log.Debug().Interface("config", cfg.Get().Redacted()).Msg("Effective configuration")

	return cfg, nil
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	cfg.WatchConfig()
	cfg.OnChange(func(c *domain.Config) {
		log.Debug().Str("mode", c.Mode).Msg("Config file reloaded, restart to apply settings other than logLevel")
	})

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}

	app.watchlist.Start(ctx)

	server := api.NewServer(app.apiDependencies())

	var metricsServer *metrics.Server
	if c := cfg.Get(); c.MetricsEnabled {
		metricsServer = metrics.NewMetricsServer(app.metrics, c.MetricsHost, c.MetricsPort, c.MetricsBasicAuthUsers)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.ListenAndServe)
	if metricsServer != nil {
		g.Go(metricsServer.ListenAndServe)
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, errors.Wrap(err, "api server shutdown"))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, errors.Wrap(err, "metrics server shutdown"))
			}
		}
		if len(errs) > 0 {
			return errs[0]
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
