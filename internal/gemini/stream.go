// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Role is the author of a history turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the conversation history sent to the model.
type Turn struct {
	Role    Role
	Content string
}

// ChatRequest describes a single streamed turn.
type ChatRequest struct {
	// Model overrides the client's default model for this turn.
	Model string

	// History is the conversation so far. The last entry is the new user
	// message. System messages must not be included.
	History []Turn

	// Temperature is the sampling temperature in [0, 2].
	Temperature float64
}

var errInvalidHistory = errors.New("history must end with a user turn")

// =============================================================================
// STREAMING
// =============================================================================

// StreamChat opens a streaming turn. The returned sequence yields each
// non-empty text chunk as it arrives. On failure it yields a single
// *StreamError and stops. The sequence can be ranged over once.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) iter.Seq2[string, error] {
	var consumed atomic.Bool

	return func(yield func(string, error) bool) {
		if consumed.Swap(true) {
			yield("", ErrStreamConsumed)
			return
		}

		if len(req.History) == 0 || req.History[len(req.History)-1].Role != RoleUser {
			yield("", newError(KindUnreachable, "invalid request", errInvalidHistory))
			return
		}

		st, err := c.begin(ctx)
		if err != nil {
			c.logger.Warn("stream setup failed", zap.Error(err))
			yield("", err)
			return
		}

		if st.limiter != nil && !st.limiter.Allow() {
			yield("", newError(KindRateLimited, "local request budget exhausted", nil))
			return
		}

		if st.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, st.cfg.RequestTimeout)
			defer cancel()
		}

		modelID := req.Model
		if modelID == "" {
			modelID = st.cfg.DefaultModel
		}

		log := c.logger.With(zap.String("model", modelID), zap.Int("history", len(req.History)))
		log.Debug("stream opened")
		start := time.Now()
		chunks := 0

		stream := st.sdk.Models.GenerateContentStream(ctx, modelID, toContents(req.History), generateConfig(st.cfg, req.Temperature))
		for resp, err := range stream {
			if err != nil {
				se := classify(err)
				if ctx.Err() != nil && se.Kind == KindUnreachable {
					se = newError(KindTimeout, "request timed out", err)
				}
				log.Warn("stream failed",
					zap.Stringer("kind", se.Kind),
					zap.Int("chunks", chunks),
					zap.Error(err),
				)
				yield("", se)
				return
			}
			if resp == nil {
				continue
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			chunks++
			if !yield(text, nil) {
				return
			}
		}

		log.Debug("stream complete", zap.Int("chunks", chunks), zap.Duration("elapsed", time.Since(start)))
	}
}

// toContents converts history turns to SDK contents, mapping the assistant
// role to the API's "model" role.
func toContents(history []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	return contents
}

func generateConfig(cfg Config, temperature float64) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(float32(temperature)),
		TopP:              genai.Ptr(TopP),
		TopK:              genai.Ptr(TopK),
		MaxOutputTokens:   MaxOutputTokens,
	}
}
