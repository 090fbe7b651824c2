// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration commands for elena.
//
// Command: config [subcommand]
// Short:   Show and manage configuration
//
// Subcommands:
//   show (default)      Print the effective configuration (secrets redacted)
//   path                Print the config file path
//   init [--force]      Write the default configuration file
//   reset-data [--yes]  Delete every saved session and preference
//
// Examples:
//   elena config
//   elena config init --force
//   elena --data-dir /tmp/elena config reset-data --yes

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/elena/internal/config"
	"github.com/jeranaias/elena/internal/logging"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and manage configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, flags)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, flags)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath(flags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, flags, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	var yes bool
	resetCmd := &cobra.Command{
		Use:   "reset-data",
		Short: "Delete every saved session and preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetData(cmd, flags, yes)
		},
	}
	resetCmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	cmd.AddCommand(resetCmd)

	return cmd
}

// configFilePath returns --config or the default path.
func configFilePath(flags *globalFlags) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	path, err := config.ConfigPath()
	if err != nil {
		return "", &ConfigError{Err: err}
	}
	return path, nil
}

func runConfigShow(cmd *cobra.Command, flags *globalFlags) error {
	cfg, path, err := loadConfig(flags)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, labelStyle.Render("# "+path))
	fmt.Fprint(out, cfg.String())
	return nil
}

func runConfigInit(cmd *cobra.Command, flags *globalFlags, force bool) error {
	path, err := configFilePath(flags)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return &ConfigError{Path: path, Err: errors.New("file exists (use --force to overwrite)")}
	}
	if err := config.SaveTo(config.Default(), path); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote "+path)
	return nil
}

func runResetData(cmd *cobra.Command, flags *globalFlags, yes bool) error {
	if !yes {
		return &CommandError{Command: "config reset-data", Action: "confirm", Err: errors.New("pass --yes to delete all saved data")}
	}

	cfg, _, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, _, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.LogFile()})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	gw, err := openGateway(cfg, logger)
	if err != nil {
		return err
	}
	gw.Clear()
	if err := gw.Close(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Deleted saved data in "+cfg.DataDir())
	return nil
}
