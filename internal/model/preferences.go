// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// Theme is the UI color scheme.
type Theme string

const (
	ThemeDark      Theme = "dark"
	ThemeLight     Theme = "light"
	ThemeCyberpunk Theme = "cyberpunk"
)

// FontSize is a relative text size hint for renderers that support it.
type FontSize string

const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
)

// Temperature bounds accepted by the Gemini API.
const (
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
	DefaultTemperature = 0.7
)

// Preferences are the user's persisted settings.
type Preferences struct {
	Theme          Theme    `json:"theme"`
	FontSize       FontSize `json:"fontSize"`
	ShowTimestamps bool     `json:"showTimestamps"`
	EnableSounds   bool     `json:"enableSounds"`
	Model          string   `json:"model"`
	Temperature    float64  `json:"temperature"`

	// ModelPinned is set once the user picks a model. Until then Model
	// follows the configured default.
	ModelPinned bool `json:"modelPinned,omitempty"`
}

// DefaultPreferences returns the settings used before the user changes any.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:          ThemeDark,
		FontSize:       FontMedium,
		ShowTimestamps: true,
		EnableSounds:   false,
		Model:          DefaultModelID,
		Temperature:    DefaultTemperature,
	}
}

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeDark, ThemeLight, ThemeCyberpunk:
		return t, nil
	}
	return "", fmt.Errorf("invalid theme %q (must be dark, light or cyberpunk)", s)
}

// ParseFontSize validates a font size name.
func ParseFontSize(s string) (FontSize, error) {
	switch f := FontSize(s); f {
	case FontSmall, FontMedium, FontLarge:
		return f, nil
	}
	return "", fmt.Errorf("invalid font size %q (must be small, medium or large)", s)
}

// ValidateTemperature checks t against the API's accepted range.
func ValidateTemperature(t float64) error {
	if t < MinTemperature || t > MaxTemperature {
		return fmt.Errorf("temperature %.2f out of range [%.1f, %.1f]", t, MinTemperature, MaxTemperature)
	}
	return nil
}

// Validate checks every field of p.
func (p Preferences) Validate() error {
	if _, err := ParseTheme(string(p.Theme)); err != nil {
		return err
	}
	if _, err := ParseFontSize(string(p.FontSize)); err != nil {
		return err
	}
	if p.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	return ValidateTemperature(p.Temperature)
}
