// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/elena/internal/commands"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// viewReadyMsg tells the update loop that the view buffer holds a snapshot.
type viewReadyMsg struct{}

// turnDoneMsg is returned when Controller.Send comes back.
type turnDoneMsg struct {
	err error
}

// commandResultMsg carries the outcome of a slash command.
type commandResultMsg struct {
	input  string
	result commands.Result
	err    error
}

// clearFeedbackMsg hides the status bar feedback once it has been shown
// long enough. seq discards timers of older feedback.
type clearFeedbackMsg struct {
	seq int
}
