// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "time"

// =============================================================================
// SPINNER ANIMATIONS
// =============================================================================

// SpinnerConfig holds the configuration for a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the duration for each frame.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(s.FPS)
}

// ThinkingSpinner runs while waiting for the first chunk.
var ThinkingSpinner = SpinnerConfig{
	Frames: []string{"( )", "(.)", "(o)", "(O)", "(o)", "(.)"},
	FPS:    8,
}

// StreamingSpinner runs while chunks arrive.
var StreamingSpinner = SpinnerConfig{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    10,
}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// Indicators are ASCII-only so they render on every terminal.
var Indicators = struct {
	Active  string
	Idle    string
	Error   string
	Stream  string
	Cursor  string
}{
	Active: "*",
	Idle:   "[ok]",
	Error:  "[!!]",
	Stream: ">>",
	Cursor: "_",
}
