// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "ELENA"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// TIMESTAMP
// =============================================================================

// Timestamp is a point in time in Unix milliseconds. It marshals to a JSON
// number so exported sessions stay compatible with the browser client's files.
type Timestamp int64

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return TimestampOf(time.Now())
}

// TimestampOf converts t to a Timestamp, dropping sub-millisecond precision.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time converts the timestamp back to a time.Time in the local zone.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t))
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a session.
//
// Content and Streaming change only while Streaming is true, and only through
// the conversation controller. After that the message is immutable.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"createdAt"`
	Streaming bool      `json:"streaming,omitempty"`
}

// NewMessage creates a message with a fresh ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      role,
		Content:   content,
		CreatedAt: Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewPlaceholder creates the empty assistant message that a turn streams into.
func NewPlaceholder() Message {
	msg := NewMessage(RoleAssistant, "")
	msg.Streaming = true
	return msg
}

// NewMessageID returns an opaque, unique message identifier.
func NewMessageID() string {
	return "msg_" + uuid.NewString()
}

// NewSessionID returns an opaque, unique session identifier.
func NewSessionID() string {
	return "sess_" + uuid.NewString()
}

// CountStreaming returns how many messages in msgs are still streaming.
func CountStreaming(msgs []Message) int {
	n := 0
	for _, m := range msgs {
		if m.Streaming {
			n++
		}
	}
	return n
}

// CloneMessages returns a copy of msgs that is never nil.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
