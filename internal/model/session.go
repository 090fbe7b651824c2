// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/elena/internal/util"
)

// MaxTitleRunes is the longest derived title. Longer first messages keep
// their first MaxTitleRunes-3 runes followed by "...".
const MaxTitleRunes = 50

// DateLayout renders dates in titles (month/day/year, no padding).
const DateLayout = "1/2/2006"

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is a titled conversation. The ID is assigned at creation and never
// reused; Messages are kept in append order.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`

	// TitleLocked is set by an explicit rename and stops title derivation.
	TitleLocked bool `json:"titleLocked,omitempty"`
}

// NewSession creates an empty session. An empty title becomes
// "New Session <date>".
func NewSession(title string, now time.Time) Session {
	if title == "" {
		title = "New Session " + now.Format(DateLayout)
	}
	ts := TimestampOf(now)
	return Session{
		ID:        NewSessionID(),
		Title:     title,
		Messages:  []Message{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	s.Messages = CloneMessages(s.Messages)
	return s
}

// SetMessages replaces the message list, bumps UpdatedAt and re-derives the
// title unless it was locked by a rename.
func (s *Session) SetMessages(msgs []Message, now time.Time) {
	s.Messages = CloneMessages(msgs)
	s.UpdatedAt = TimestampOf(now)
	if !s.TitleLocked {
		s.Title = DeriveTitle(s.Messages, now)
	}
}

// Rename sets an explicit title and locks it.
func (s *Session) Rename(title string, now time.Time) {
	s.Title = title
	s.TitleLocked = true
	s.UpdatedAt = TimestampOf(now)
}

// DeriveTitle builds a title from the first user message. Without one the
// title is "Session <date>".
func DeriveTitle(msgs []Message, now time.Time) string {
	for _, m := range msgs {
		if m.Role != RoleUser {
			continue
		}
		if line := util.SingleLine(m.Content); line != "" {
			return util.TruncateRunes(line, MaxTitleRunes)
		}
	}
	return "Session " + now.Format(DateLayout)
}
