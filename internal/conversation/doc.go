// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation is the state machine behind a chat window.
//
// A Controller owns the active session's message list and a status that
// moves Idle → Thinking → Streaming → Idle for each turn, with an Error
// excursion that always returns to Idle. Only one turn runs at a time; Send
// while a turn is in flight returns ErrBusy and changes nothing.
//
// Each streamed chunk replaces the placeholder assistant message's content
// with the full accumulated text and is persisted before the next chunk is
// read. A failed turn drops the placeholder and appends a fixed system
// notice for the failure kind.
//
// # Key Types
//
//   - Controller: turn driver and session intents
//   - View: immutable snapshot handed to renderers
//   - Streamer: anything that can stream a turn (gemini.Client in production)
//   - Status: Idle, Thinking, Streaming, Error
//
// # Usage
//
//	ctrl := conversation.New(store, gw, client, conversation.WithLogger(logger))
//	ctrl.Subscribe(func(v conversation.View) { program.Send(v) })
//	view := ctrl.Start()
//
//	go ctrl.Send(ctx, "explain TCP slow start", ctrl.Temperature())
package conversation
