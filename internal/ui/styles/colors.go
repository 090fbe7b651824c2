// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/elena/internal/model"
)

// =============================================================================
// PALETTE
// =============================================================================

// Palette is the set of colors a theme is built from.
type Palette struct {
	// Accents
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Danger    lipgloss.Color

	// Surfaces
	Surface    lipgloss.Color
	SurfaceDim lipgloss.Color
	Overlay    lipgloss.Color

	// Text
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	TextDim   lipgloss.Color

	// Roles
	User      lipgloss.Color
	Assistant lipgloss.Color
	System    lipgloss.Color
}

// DarkPalette is the default theme (Catppuccin Mocha tones).
var DarkPalette = Palette{
	Primary:    "#A78BFA",
	Secondary:  "#22D3EE",
	Success:    "#34D399",
	Warning:    "#FBBF24",
	Danger:     "#FB7185",
	Surface:    "#1E1E2E",
	SurfaceDim: "#181825",
	Overlay:    "#313244",
	Text:       "#CDD6F4",
	TextMuted:  "#A6ADC8",
	TextDim:    "#6C7086",
	User:       "#89B4FA",
	Assistant:  "#A78BFA",
	System:     "#F9E2AF",
}

// LightPalette suits terminals with a light background.
var LightPalette = Palette{
	Primary:    "#7C3AED",
	Secondary:  "#0891B2",
	Success:    "#059669",
	Warning:    "#D97706",
	Danger:     "#E11D48",
	Surface:    "#FFFFFF",
	SurfaceDim: "#F5F5F5",
	Overlay:    "#E5E5E5",
	Text:       "#1F2937",
	TextMuted:  "#6B7280",
	TextDim:    "#9CA3AF",
	User:       "#1D4ED8",
	Assistant:  "#6D28D9",
	System:     "#92400E",
}

// CyberpunkPalette is neon on near-black.
var CyberpunkPalette = Palette{
	Primary:    "#FF2A6D",
	Secondary:  "#05D9E8",
	Success:    "#01FF89",
	Warning:    "#F9F871",
	Danger:     "#FF003C",
	Surface:    "#0D0221",
	SurfaceDim: "#050112",
	Overlay:    "#2E1065",
	Text:       "#F0F0FF",
	TextMuted:  "#B8A9E0",
	TextDim:    "#8B7FB8",
	User:       "#05D9E8",
	Assistant:  "#FF2A6D",
	System:     "#F9F871",
}

// PaletteFor returns the palette of a UI theme. Unknown themes get the dark
// palette.
func PaletteFor(theme model.Theme) Palette {
	switch theme {
	case model.ThemeLight:
		return LightPalette
	case model.ThemeCyberpunk:
		return CyberpunkPalette
	default:
		return DarkPalette
	}
}
