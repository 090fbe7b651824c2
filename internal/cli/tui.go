// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Full-screen chat interface for elena.
//
// Command: tui (default when no command is given)
// Short:   Start the full-screen chat interface
//
// Examples:
//   elena
//   elena tui --model gemini-1.5-flash
//   elena --ephemeral

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/elena/internal/commands"
	"github.com/jeranaias/elena/internal/ui/chat"
)

func newTUICommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the full-screen chat interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}
}

func runTUI(cmd *cobra.Command, flags *globalFlags) error {
	if err := RequiresTTY("tui"); err != nil {
		return err
	}

	a, err := openApp(flags, appOptions{tui: true})
	if err != nil {
		return err
	}
	defer a.Close()
	a.watch()

	return chat.Run(cmd.Context(), chat.Options{
		Controller: a.ctrl,
		Registry:   commands.NewRegistry(),
		Context:    commands.NewContext(a.ctrl, a.cfg.ExportDir()),
		Logger:     a.logger.Named("tui"),
		WordWrap:   a.cfg.UI.WordWrap,
	})
}
