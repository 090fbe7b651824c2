// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/elena/internal/model"
)

// =============================================================================
// TERMINAL RENDERER
// =============================================================================

// glamourStyle maps a UI theme onto one of glamour's bundled styles.
func glamourStyle(theme model.Theme) string {
	switch theme {
	case model.ThemeLight:
		return "light"
	case model.ThemeCyberpunk:
		return "dracula"
	default:
		return "dark"
	}
}

// Terminal renders markdown for an ANSI terminal. It is safe for concurrent
// use. A zero width disables wrapping.
type Terminal struct {
	mu    sync.Mutex
	r     *glamour.TermRenderer
	theme model.Theme
	width int
}

// NewTerminal creates a renderer for theme at the given wrap width. If
// glamour cannot be initialized the renderer passes text through unchanged.
func NewTerminal(theme model.Theme, width int) *Terminal {
	t := &Terminal{}
	t.Configure(theme, width)
	return t
}

// Configure rebuilds the underlying renderer when the theme or width changes.
func (t *Terminal) Configure(theme model.Theme, width int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.r != nil && t.theme == theme && t.width == width {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle(theme)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r = nil
	}
	t.r, t.theme, t.width = r, theme, width
}

// Width returns the configured wrap width.
func (t *Terminal) Width() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width
}

// Render returns content as styled terminal text. It falls back to the raw
// content when rendering fails.
func (t *Terminal) Render(content string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.r == nil || strings.TrimSpace(content) == "" {
		return content
	}
	out, err := t.r.Render(content)
	if err != nil {
		return content
	}
	return out
}
