// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage is elena's persistence gateway.
//
// A Backend is a small durable key-value store. Gateway sits on top of it and
// speaks in sessions, the active-session pointer and preferences. Gateway
// methods never return errors: a failed save leaves the previous persisted
// value in place and is reported on a side channel (a zap warning, a failure
// counter and an optional hook). In-memory state stays authoritative for the
// life of the process.
//
// Loads validate the stored shape before decoding and fail closed. A record
// that does not look like what was written is treated as absent.
//
// # Key Types
//
//   - Backend: Get/Put/Delete/Close over opaque byte values
//   - FileBackend: one JSON file per key, written atomically
//   - SQLiteBackend: a single kv table in elena.db (modernc.org/sqlite)
//   - MemoryBackend: map-backed, for tests and ephemeral runs
//   - Gateway: the typed, validating layer used by the session store
//
// # Usage
//
//	backend, err := storage.Open(storage.BackendFile, "~/.elena")
//	gw := storage.NewGateway(backend, storage.WithLogger(logger))
//	sessions := gw.LoadSessions()
//
// Exported session files use EncodeSession/DecodeSession:
//
//	data, _ := storage.EncodeSession(sess)
//	os.WriteFile(storage.ExportFilename(sess.ID), data, 0600)
package storage
