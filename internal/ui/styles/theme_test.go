// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/elena/internal/model"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	for _, name := range []model.Theme{model.ThemeDark, model.ThemeLight, model.ThemeCyberpunk} {
		t.Run(string(name), func(t *testing.T) {
			theme := NewTheme(name)
			if theme == nil {
				t.Fatal("NewTheme() returned nil")
			}
			if theme.Name != name {
				t.Errorf("Name = %q, want %q", theme.Name, name)
			}
			if theme.Palette != PaletteFor(name) {
				t.Errorf("Palette does not match PaletteFor(%q)", name)
			}
		})
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme(model.ThemeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"Sidebar", theme.Sidebar},
		{"UserLabel", theme.UserLabel},
		{"AssistantLabel", theme.AssistantLabel},
		{"SystemNotice", theme.SystemNotice},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
	}

	for _, s := range styles {
		if rendered := s.style.Render("test"); rendered == "" {
			t.Errorf("%s style rendered empty output", s.name)
		}
	}
}

func TestPaletteFor_Fallback(t *testing.T) {
	if PaletteFor("neon") != DarkPalette {
		t.Error("PaletteFor(unknown) should fall back to DarkPalette")
	}
	if PaletteFor(model.ThemeCyberpunk).Primary != CyberpunkPalette.Primary {
		t.Error("PaletteFor(cyberpunk) returned the wrong palette")
	}
}

func TestSpinnerConfig_Duration(t *testing.T) {
	tests := []struct {
		cfg  SpinnerConfig
		want time.Duration
	}{
		{ThinkingSpinner, time.Second / 8},
		{StreamingSpinner, time.Second / 10},
		{SpinnerConfig{}, time.Second},
	}

	for _, tt := range tests {
		if got := tt.cfg.Duration(); got != tt.want {
			t.Errorf("Duration() = %v, want %v", got, tt.want)
		}
	}
}
