// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the elena TUI.
//
// Each user-selectable theme (dark, light, cyberpunk) is a Palette of Lip
// Gloss colors. NewTheme turns a palette into the concrete styles the chat
// view uses and records the terminal's color profile as detected by
// termenv, so the same palette degrades cleanly on 256-color and ANSI
// terminals.
//
// # Key Types
//
//   - Palette: the colors of one theme
//   - Theme: ready-to-use lipgloss styles for every UI element
//   - SpinnerConfig: frames for the thinking and streaming indicators
//
// # Usage
//
//	theme := styles.NewTheme(model.ThemeCyberpunk)
//	fmt.Println(theme.Header.Render("ELENA"))
package styles
