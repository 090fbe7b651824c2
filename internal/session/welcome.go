// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "math/rand/v2"

// Banner is shown at the top of the first session.
const Banner = `
 ███████╗██╗     ███████╗███╗   ██╗ █████╗
 ██╔════╝██║     ██╔════╝████╗  ██║██╔══██╗
 █████╗  ██║     █████╗  ██╔██╗ ██║███████║
 ██╔══╝  ██║     ██╔══╝  ██║╚██╗██║██╔══██║
 ███████╗███████╗███████╗██║ ╚████║██║  ██║
 ╚══════╝╚══════╝╚══════╝╚═╝  ╚═══╝╚═╝  ╚═╝`

// WelcomeLines are the greetings picked at random for new sessions.
var WelcomeLines = []string{
	"ELENA online. Neural core synchronized.",
	"Systems nominal. Awaiting your query, operator.",
	"Connection established. What are we breaking today?",
	"Secure channel open. Ready when you are.",
	"Boot sequence complete. All subsystems green.",
}

// RandomWelcome returns one of WelcomeLines.
func RandomWelcome() string {
	return WelcomeLines[rand.IntN(len(WelcomeLines))]
}

// BootMessage is the content of the system message in the welcome session.
func BootMessage(line string) string {
	return Banner + "\n\n> " + line + "\n> Type your command or query to begin..."
}

// NewSessionMessage is the system message that opens a fresh session.
func NewSessionMessage(line string) string {
	return "> New session initiated.\n> " + line
}

// ClearedMessage replaces the history of a cleared session.
func ClearedMessage(line string) string {
	return "> Session cleared.\n> " + line
}
