// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Session management commands for elena.
//
// Command: sessions [subcommand]
// Short:   Manage saved sessions
// Aliases: s
//
// Subcommands:
//   list (default)      List saved sessions
//   export <ref>        Export a session to JSON, Markdown or HTML
//   import <file>       Import a JSON export and make it active
//   rename <ref> <title> Rename a session
//   delete <ref>        Delete a session
//
// A <ref> is a 1-based list number, a session ID or an ID prefix.
//
// Examples:
//   elena sessions
//   elena sessions export 2 --format md -o ~/notes
//   elena sessions import elena-session-abc.json
//   elena sessions rename 1 "Trip planning"

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/elena/internal/commands"
	"github.com/jeranaias/elena/internal/export"
	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/session"
	"github.com/jeranaias/elena/internal/util"
)

func newSessionsCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"s"},
		Short:   "Manage saved sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(cmd, flags)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(cmd, flags)
		},
	})
	cmd.AddCommand(newSessionsExportCommand(flags))
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON export and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsImport(cmd, flags, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rename <ref> <title>",
		Short: "Rename a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsRename(cmd, flags, args[0], strings.Join(args[1:], " "))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "delete <ref>",
		Aliases: []string{"rm"},
		Short:   "Delete a session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsDelete(cmd, flags, args[0])
		},
	})
	return cmd
}

func newSessionsExportCommand(flags *globalFlags) *cobra.Command {
	var outDir, format string
	cmd := &cobra.Command{
		Use:   "export <ref>",
		Short: "Export a session to a file",
		Long: `Writes the session to <dir>/elena-session-<id>.<ext>.

JSON exports can be imported again. Markdown and HTML are for reading; HTML
content is sanitized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsExport(cmd, flags, args[0], outDir, format)
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default: storage.export_dir)")
	cmd.Flags().StringVar(&format, "format", "json", "export format: json, md or html")
	return cmd
}

// =============================================================================
// HANDLERS
// =============================================================================

func runSessionsList(cmd *cobra.Command, flags *globalFlags) error {
	a, err := openApp(flags, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintln(cmd.OutOrStdout(), commands.FormatSessionList(a.ctrl.View()))
	return nil
}

func runSessionsExport(cmd *cobra.Command, flags *globalFlags, ref, outDir, formatName string) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return &CommandError{Command: "sessions export", Action: "parse format", Err: err}
	}

	a, err := openApp(flags, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	v := a.ctrl.View()
	id, err := commands.ResolveSession(v, ref)
	if err != nil {
		return err
	}
	var sess model.Session
	for _, s := range v.Sessions {
		if s.ID == id {
			sess = s
			break
		}
	}
	if sess.ID == "" {
		return fmt.Errorf("%w: %s", session.ErrNotFound, ref)
	}

	opts := export.DefaultOptions()
	opts.OutputDir = a.cfg.ExportDir()
	if outDir != "" {
		opts.OutputDir = outDir
	}
	opts.Theme = v.Preferences.Theme
	opts.IncludeTimestamps = v.Preferences.ShowTimestamps

	exp, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}
	path, err := export.WriteFile(sess, exp, opts)
	if err != nil {
		return &CommandError{Command: "sessions export", Action: "write", Err: err}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Exported to "+path)
	return nil
}

func runSessionsImport(cmd *cobra.Command, flags *globalFlags, file string) error {
	data, err := os.ReadFile(util.ExpandHome(file))
	if err != nil {
		return &CommandError{Command: "sessions import", Action: "read file", Err: err}
	}

	a, err := openApp(flags, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.ctrl.ImportSession(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%d messages)\n", sess.Title, len(sess.Messages))
	return nil
}

func runSessionsRename(cmd *cobra.Command, flags *globalFlags, ref, title string) error {
	a, err := openApp(flags, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := commands.ResolveSession(a.ctrl.View(), ref)
	if err != nil {
		return err
	}
	if err := a.ctrl.RenameSession(id, title); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Renamed to "+strings.TrimSpace(title))
	return nil
}

func runSessionsDelete(cmd *cobra.Command, flags *globalFlags, ref string) error {
	a, err := openApp(flags, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	v := a.ctrl.View()
	id, err := commands.ResolveSession(v, ref)
	if err != nil {
		return err
	}
	title := id
	for _, s := range v.Sessions {
		if s.ID == id {
			title = s.Title
		}
	}
	if err := a.ctrl.DeleteSession(id); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Deleted "+title)
	return nil
}
