// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information, set by main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewRootCommand builds the elena command tree. With no subcommand it
// starts the full-screen interface.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "elena",
		Short: "ELENA - a terminal chat client for Gemini",
		Long: `ELENA is a terminal chat client for Google's Gemini models.

Conversations are kept as sessions in ~/.elena (see "elena config"). Run
without a command to open the full-screen interface, or use "chat" for a
line-mode REPL and "ask" for one-shot questions.

The API key is read from GEMINI_API_KEY or the [model] section of the
config file.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.elena/config.toml)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "override storage.data_dir")
	pf.StringVarP(&flags.model, "model", "m", "", "model to use")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging (to stderr outside the full-screen interface)")
	pf.BoolVar(&flags.ephemeral, "ephemeral", false, "keep sessions in memory only")

	root.AddCommand(
		newTUICommand(flags),
		newChatCommand(flags),
		newAskCommand(flags),
		newSessionsCommand(flags),
		newConfigCommand(flags),
	)
	return root
}

// Execute runs the command line and returns the process exit code. SIGTERM
// cancels the root context; Ctrl+C is left to each command so it can cancel
// a single turn.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	return execute(ctx, NewRootCommand(), os.Args[1:])
}

func execute(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintln(root.ErrOrStderr(), ErrorStyle.Render("[ERROR]")+" "+err.Error())
	}
	return ExitCode(err)
}
