// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session keeps the in-memory collection of chat sessions and the
// active-session pointer, persisting both through a storage.Gateway.
//
// The store never reorders sessions; the sidebar shows them in creation
// order. Every mutating call except Create persists before it returns.
//
// # Key Types
//
//   - Store: the session collection and active pointer
//   - ErrNotFound: returned for unknown session IDs
//
// # Usage
//
//	store := session.NewStore(gw, session.WithLogger(logger))
//	sessions, activeID, msgs := store.Bootstrap()
//
//	sess := store.Create("")
//	msgs, err := store.SwitchActive(sess.ID)
//	sessions, err = store.Sync(sess.ID, append(msgs, model.NewUserMessage("hi")))
package session
