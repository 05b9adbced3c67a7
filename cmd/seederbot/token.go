// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autobrr/seederbot/internal/buildinfo"
	"github.com/autobrr/seederbot/internal/config"
)

func RunGenerateTokenCommand() *cobra.Command {
	var (
		configDir string
		save      bool
	)

	cmd := &cobra.Command{
		Use:   "generate-token",
		Short: "Generate a new app token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := config.GenerateToken()
			if err != nil {
				return err
			}

			if !save {
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			}

			cfg, err := config.New(configDir)
			if err != nil {
				return err
			}
			if err := config.PersistAppToken(cfg.Path(), token); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s, restart seederbot to use it\n", cfg.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", "Config directory or path to config.toml")
	cmd.Flags().BoolVar(&save, "save", false, "Write the token to the config file")

	return cmd
}

func RunVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				out, err := buildinfo.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), buildinfo.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
