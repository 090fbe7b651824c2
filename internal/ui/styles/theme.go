// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/elena/internal/model"
)

// Theme holds all the styled components for the application.
type Theme struct {
	Name    model.Theme
	Palette Palette

	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderInfo  lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar             lipgloss.Style
	SidebarTitle        lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemActive   lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionMeta         lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemNotice   lipgloss.Style
	ErrorNotice    lipgloss.Style
	Timestamp      lipgloss.Style
	StreamCursor   lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputContainer lipgloss.Style
	InputFocused   lipgloss.Style
	StatusBar      lipgloss.Style
	StatusIdle     lipgloss.Style
	StatusBusy     lipgloss.Style
	StatusError    lipgloss.Style
	Feedback       lipgloss.Style
	FeedbackError  lipgloss.Style
	Muted          lipgloss.Style

	// ==========================================================================
	// COMPLETION POPUP
	// ==========================================================================

	CompletionItem     lipgloss.Style
	CompletionSelected lipgloss.Style
}

// NewTheme creates a theme with all styles configured for name.
func NewTheme(name model.Theme) *Theme {
	profile := termenv.ColorProfile()
	t := &Theme{
		Name:         name,
		Palette:      PaletteFor(name),
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// initStyles builds every style from the palette.
func (t *Theme) initStyles() {
	p := t.Palette

	// Header
	t.Header = lipgloss.NewStyle().
		Background(p.SurfaceDim).
		Foreground(p.Text).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary)
	t.HeaderInfo = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Overlay).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Secondary).
		MarginBottom(1)
	t.SessionItem = lipgloss.NewStyle().
		Foreground(p.TextMuted)
	t.SessionItemActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary)
	t.SessionItemSelected = lipgloss.NewStyle().
		Foreground(p.Surface).
		Background(p.Secondary)
	t.SessionMeta = lipgloss.NewStyle().
		Foreground(p.TextDim)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.User)
	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Assistant)
	t.SystemNotice = lipgloss.NewStyle().
		Foreground(p.System).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(p.System).
		PaddingLeft(1)
	t.ErrorNotice = lipgloss.NewStyle().
		Foreground(p.Danger).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(p.Danger).
		PaddingLeft(1)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(p.TextDim)
	t.StreamCursor = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Blink(true)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Overlay)
	t.InputFocused = t.InputContainer.
		BorderForeground(p.Primary)
	t.StatusBar = lipgloss.NewStyle().
		Background(p.SurfaceDim).
		Foreground(p.TextMuted).
		Padding(0, 1)
	t.StatusIdle = lipgloss.NewStyle().
		Foreground(p.Success).
		Bold(true)
	t.StatusBusy = lipgloss.NewStyle().
		Foreground(p.Warning).
		Bold(true)
	t.StatusError = lipgloss.NewStyle().
		Foreground(p.Danger).
		Bold(true)
	t.Feedback = lipgloss.NewStyle().
		Foreground(p.Secondary)
	t.FeedbackError = lipgloss.NewStyle().
		Foreground(p.Danger)
	t.Muted = lipgloss.NewStyle().
		Foreground(p.TextDim)

	// Completion popup
	t.CompletionItem = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Padding(0, 1)
	t.CompletionSelected = lipgloss.NewStyle().
		Foreground(p.Surface).
		Background(p.Primary).
		Padding(0, 1)
}
