// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/elena/internal/ui/styles"
)

// =============================================================================
// LINE MODE STYLES
// =============================================================================

var (
	// ErrorStyle prefixes errors printed by Execute.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.DarkPalette.Danger).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.DarkPalette.Primary).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.DarkPalette.TextMuted)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.DarkPalette.Warning)

	labelStyle = lipgloss.NewStyle().
			Foreground(styles.DarkPalette.Assistant).
			Bold(true)
)
