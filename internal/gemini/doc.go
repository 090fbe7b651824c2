// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini streams chat completions from the Gemini API.
//
// The client wraps google.golang.org/genai. Each turn opens one
// streamGenerateContent request and exposes the response as an
// iter.Seq2[string, error] of text chunks. Every failure is folded into one
// of four kinds so callers can react without knowing HTTP details.
//
// # Key Types
//
//   - Client: holds the credential, default model and request budget
//   - ChatRequest: one turn (model, history, temperature)
//   - Turn: a history entry (user or assistant)
//   - StreamError: typed failure with an ErrorKind
//
// # Usage
//
//	client := gemini.NewClient(gemini.Config{APIKey: key})
//	for chunk, err := range client.StreamChat(ctx, gemini.ChatRequest{
//	    History:     []gemini.Turn{{Role: gemini.RoleUser, Content: "hi"}},
//	    Temperature: 0.7,
//	}) {
//	    if err != nil {
//	        if gemini.IsRateLimited(err) { ... }
//	        break
//	    }
//	    fmt.Print(chunk)
//	}
//
// A missing API key is not a construction error. The first StreamChat
// reports ErrUnauthenticated instead.
package gemini
