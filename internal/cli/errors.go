// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/elena/internal/commands"
	"github.com/jeranaias/elena/internal/gemini"
	"github.com/jeranaias/elena/internal/session"
	"github.com/jeranaias/elena/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
	ExitRateLimited  = 6
	ExitNotFound     = 7
	ExitTimeout      = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // e.g. "sessions"
	Action  string // e.g. "export"
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ConfigError wraps a failure to load or validate the configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UsageError reports bad flags or arguments on the command line.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cfgErr *ConfigError
	var usageErr *UsageError
	var validationErr *commands.ValidationError
	var ttyErr *TTYRequiredError
	var streamErr *gemini.StreamError

	switch {
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.As(err, &usageErr), errors.As(err, &validationErr), errors.As(err, &ttyErr):
		return ExitUsageError
	case errors.Is(err, session.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, storage.ErrInvalidFormat):
		return ExitUsageError
	case errors.As(err, &streamErr):
		switch streamErr.Kind {
		case gemini.KindUnauthenticated:
			return ExitAuthError
		case gemini.KindRateLimited:
			return ExitRateLimited
		case gemini.KindTimeout:
			return ExitTimeout
		default:
			return ExitNetworkError
		}
	default:
		return ExitGeneralError
	}
}
