// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/autobrr/seederbot/internal/buildinfo"
)

func main() {
	root := newRootCommand()

	// Plain "seederbot" starts the server, as the container entrypoint expects.
	if len(os.Args) == 1 {
		root.SetArgs([]string{"serve"})
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "seederbot",
		Short:         "Webhook relay that finds and queues movies for download",
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		RunServeCommand(),
		RunSearchCommand(),
		RunCapsCommand(),
		RunGenerateTokenCommand(),
		RunVersionCommand(),
	)

	return root
}
