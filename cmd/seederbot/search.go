// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/autobrr/seederbot/internal/config"
	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/jackett"
	"github.com/autobrr/seederbot/internal/services/selection"
	"github.com/autobrr/seederbot/pkg/releases"
)

// loadCLIConfig reads the config for one-shot commands and keeps the log quiet
// unless verbose is set.
func loadCLIConfig(configDir string, verbose bool) (*config.AppConfig, error) {
	cfg, err := config.New(configDir)
	if err != nil {
		return nil, errors.Wrap(err, "could not load config")
	}
	if verbose {
		config.SetLevel("DEBUG")
	} else {
		config.SetLevel("ERROR")
	}
	return cfg, nil
}

func requireJackett(cfg *config.AppConfig) (*jackett.Client, error) {
	client := newJackettClient(cfg, nil)
	if client == nil {
		return nil, errors.New("jackettUrl is not configured")
	}
	return client, nil
}

func RunSearchCommand() *cobra.Command {
	var (
		configDir string
		year      int
		limit     int
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Search the indexer and show ranked candidates without downloading",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig(configDir, verbose)
			if err != nil {
				return err
			}

			client, err := requireJackett(cfg)
			if err != nil {
				return err
			}

			filter, err := cfg.Get().FilterConfig()
			if err != nil {
				return errors.Wrap(err, "invalid candidate filter")
			}

			req := models.MediaRequest{Title: strings.Join(args, " "), Year: year}
			ranked, err := selection.NewSelector(client, filter).Rank(cmd.Context(), req)
			if errors.Is(err, selection.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No suitable candidates found for %q\n", req.Query())
				return nil
			}
			if err != nil {
				return err
			}

			if limit > 0 && len(ranked) > limit {
				ranked = ranked[:limit]
			}

			printRanked(cmd, ranked, releases.NewDefaultParser())
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", "Config directory or path to config.toml")
	cmd.Flags().IntVar(&year, "year", 0, "Release year to add to the query")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of candidates to show (0 for all)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log indexer requests")

	return cmd
}

func printRanked(cmd *cobra.Command, ranked []models.ScoredCandidate, parser *releases.Parser) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSCORE\tSEEDERS\tSIZE\tFL\tRES\tSOURCE\tTITLE")

	for i, c := range ranked {
		info := parser.Describe(c.Title)
		freeleech := ""
		if c.IsFreeleech() {
			freeleech = "yes"
		}
		fmt.Fprintf(w, "%d\t%.1f\t%d\t%.2f GB\t%s\t%s\t%s\t%s\n",
			i+1, c.Score, c.Seeders, c.SizeGiB(), freeleech, info.Resolution, info.Source, c.Title)
	}

	_ = w.Flush()
}

func RunCapsCommand() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "caps",
		Short: "Show the search modes and categories the indexer advertises",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCLIConfig(configDir, false)
			if err != nil {
				return err
			}

			client, err := requireJackett(cfg)
			if err != nil {
				return err
			}

			caps, err := client.FetchCaps(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Search modes: %s\n", strings.Join(caps.Capabilities, ", "))
			fmt.Fprintln(cmd.OutOrStdout(), "Categories:")
			for _, cat := range caps.Categories {
				indent := "  "
				if cat.Parent != nil {
					indent = "    "
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%d %s\n", indent, cat.ID, cat.Name)
			}

			configured, err := jackett.ParseCategories(cfg.Get().Categories)
			if err != nil {
				return err
			}
			for _, id := range configured {
				if !caps.HasCategory(id) {
					fmt.Fprintf(cmd.OutOrStdout(), "Warning: configured category %d is not advertised by the indexer\n", id)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", "Config directory or path to config.toml")
	return cmd
}
