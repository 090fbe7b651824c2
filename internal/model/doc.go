// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the records that make up elena's conversation state.
//
// Everything here is a plain value type. Sessions and messages are copied
// freely between the store, the controller and the UI; Clone gives a copy
// that shares no slice memory with the original.
//
// # Key Types
//
//   - Message: one entry of a conversation (user, assistant or system)
//   - Session: a titled, ordered list of messages
//   - Timestamp: Unix milliseconds, persisted as a JSON number
//   - Preferences: per-user UI and model settings
//   - ModelInfo: the Gemini models the client offers
//
// # Usage
//
//	sess := model.NewSession("", time.Now())
//	sess.SetMessages(append(sess.Messages, model.NewUserMessage("hi")), time.Now())
//	fmt.Println(sess.Title) // "hi"
package model
