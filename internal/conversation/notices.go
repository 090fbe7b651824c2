// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import "github.com/jeranaias/elena/internal/gemini"

// Fixed notices appended as system messages when a turn fails.
const (
	NoticeUnauthenticated = "!! CRITICAL ERROR: Gemini API key not found or rejected. Set GEMINI_API_KEY or model.api_key in ~/.elena/config.toml"
	NoticeRateLimited     = "!! RATE LIMIT EXCEEDED: Too many requests. Please wait before trying again."
	NoticeTimeout         = "!! REQUEST TIMEOUT: Neural core took too long to respond. Try again."
	NoticeUnreachable     = "!! CONNECTION FAILED: Unable to reach AI neural core. Check network connection."
)

// Notice returns the notice for a failure kind.
func Notice(kind gemini.ErrorKind) string {
	switch kind {
	case gemini.KindUnauthenticated:
		return NoticeUnauthenticated
	case gemini.KindRateLimited:
		return NoticeRateLimited
	case gemini.KindTimeout:
		return NoticeTimeout
	default:
		return NoticeUnreachable
	}
}
