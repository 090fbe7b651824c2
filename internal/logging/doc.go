// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger shared by elena's components.
//
// The TUI owns the terminal, so interactive sessions log to a file. Line
// mode and one-shot commands log to stderr, and only when verbose output is
// requested.
package logging
