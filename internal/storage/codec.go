// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/elena/internal/model"
)

// ErrInvalidFormat is returned when session data does not have the expected
// shape.
var ErrInvalidFormat = errors.New("invalid session format")

// ExportFilename returns the file name used when exporting a session.
func ExportFilename(id string) string {
	return "elena-session-" + sanitizeFilename(id) + ".json"
}

// EncodeSession renders a session as pretty-printed JSON (two-space indent).
func EncodeSession(s model.Session) ([]byte, error) {
	if s.Messages == nil {
		s.Messages = []model.Message{}
	}
	return json.MarshalIndent(s, "", "  ")
}

// DecodeSession parses data produced by EncodeSession. The structural shape is
// checked before decoding; message contents are only decoded, not validated.
func DecodeSession(data []byte) (model.Session, error) {
	data = bytes.TrimSpace(data)
	if err := validateSessionShape(data); err != nil {
		return model.Session{}, err
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Session{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if s.Messages == nil {
		s.Messages = []model.Message{}
	}
	return s, nil
}

// decodeSessions parses a stored session array, validating each element.
// Malformed elements are skipped and returned as errors; err is set only
// when data is not an array at all.
func decodeSessions(data []byte) (sessions []model.Session, bad []error, err error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	sessions = make([]model.Session, 0, len(raws))
	for i, raw := range raws {
		s, err := DecodeSession(raw)
		if err != nil {
			bad = append(bad, fmt.Errorf("session %d: %w", i, err))
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, bad, nil
}

// =============================================================================
// SHAPE VALIDATION
// =============================================================================

type jsonKind int

const (
	kindInvalid jsonKind = iota
	kindNull
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

func kindOf(raw json.RawMessage) jsonKind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return kindInvalid
	}
	switch c := raw[0]; {
	case c == 'n':
		return kindNull
	case c == 't' || c == 'f':
		return kindBool
	case c == '"':
		return kindString
	case c == '[':
		return kindArray
	case c == '{':
		return kindObject
	case c == '-' || (c >= '0' && c <= '9'):
		return kindNumber
	}
	return kindInvalid
}

// validateSessionShape checks that data is an object with a non-empty string
// id, a string title, a messages array and numeric createdAt/updatedAt.
func validateSessionShape(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return fmt.Errorf("%w: not a JSON object", ErrInvalidFormat)
	}

	want := []struct {
		name string
		kind jsonKind
	}{
		{"id", kindString},
		{"title", kindString},
		{"messages", kindArray},
		{"createdAt", kindNumber},
		{"updatedAt", kindNumber},
	}
	for _, w := range want {
		raw, ok := fields[w.name]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidFormat, w.name)
		}
		if kindOf(raw) != w.kind {
			return fmt.Errorf("%w: %s has wrong type", ErrInvalidFormat, w.name)
		}
	}

	var id string
	if err := json.Unmarshal(fields["id"], &id); err != nil || strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidFormat)
	}
	return nil
}

// sanitizeFilename keeps letters, digits, '-' and '_' and replaces the rest.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "session"
	}
	return b.String()
}
