// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import "github.com/jeranaias/elena/internal/model"

// Status is the controller's turn state.
type Status int

const (
	StatusIdle Status = iota
	StatusThinking
	StatusStreaming
	StatusError
)

// String returns the status name shown in the status bar.
func (s Status) String() string {
	switch s {
	case StatusThinking:
		return "thinking"
	case StatusStreaming:
		return "streaming"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Busy reports whether a turn is in flight.
func (s Status) Busy() bool {
	return s != StatusIdle
}

// View is a snapshot of everything a renderer needs. It shares no memory
// with the controller.
type View struct {
	// Seq increases with every snapshot. A larger Seq is newer.
	Seq uint64

	Sessions        []model.Session
	ActiveSessionID string
	Messages        []model.Message
	Status          Status
	Preferences     model.Preferences
}

// ActiveSession returns the active session from Sessions.
func (v View) ActiveSession() (model.Session, bool) {
	for _, s := range v.Sessions {
		if s.ID == v.ActiveSessionID {
			return s, true
		}
	}
	return model.Session{}, false
}
