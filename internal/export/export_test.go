// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testSession() model.Session {
	ts := model.TimestampOf(fixedNow)
	return model.Session{
		ID:        "sess_abc",
		Title:     "How do goroutines work?",
		CreatedAt: ts,
		UpdatedAt: ts + 5000,
		Messages: []model.Message{
			{ID: "msg_1", Role: model.RoleSystem, Content: "> ELENA online.", CreatedAt: ts},
			{ID: "msg_2", Role: model.RoleUser, Content: "How do goroutines work?", CreatedAt: ts + 1000},
			{ID: "msg_3", Role: model.RoleAssistant, Content: "They are **lightweight** threads.\n\n```go\ngo f()\n```", CreatedAt: ts + 2000},
		},
	}
}

func testOptions(dir string) *Options {
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return fixedNow }
	return opts
}

// =============================================================================
// FORMAT SELECTION
// =============================================================================

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"htm", FormatHTML, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	s := testSession()
	for format, want := range map[Format]string{
		FormatJSON:     "elena-session-sess_abc.json",
		FormatMarkdown: "elena-session-sess_abc.md",
		FormatHTML:     "elena-session-sess_abc.html",
	} {
		exp, err := ForFormat(format, nil)
		require.NoError(t, err)
		if got := Filename(s, exp); got != want {
			t.Errorf("Filename(%s) = %q, want %q", format, got, want)
		}
	}
}

// =============================================================================
// EXPORTERS
// =============================================================================

func TestJSONExporter_RoundTrips(t *testing.T) {
	s := testSession()
	data, err := NewJSONExporter().Export(s)
	require.NoError(t, err)

	got, err := storage.DecodeSession(data)
	require.NoError(t, err)
	if got.ID != s.ID || got.Title != s.Title || len(got.Messages) != len(s.Messages) {
		t.Errorf("round trip = %+v, want %+v", got, s)
	}
	if got.UpdatedAt != s.UpdatedAt {
		t.Errorf("UpdatedAt = %d, want %d", got.UpdatedAt, s.UpdatedAt)
	}
}

func TestMarkdownExporter(t *testing.T) {
	data, err := NewMarkdownExporter(testOptions("")).Export(testSession())
	require.NoError(t, err)
	out := string(data)

	for _, want := range []string{
		"title: How do goroutines work?",
		"# How do goroutines work?",
		"### [User]",
		"### [ELENA]",
		"```text\n> ELENA online.\n```",
		"They are **lightweight** threads.",
		"generator: elena",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	opts := testOptions("")
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false

	data, err := NewMarkdownExporter(opts).Export(testSession())
	require.NoError(t, err)
	out := string(data)

	if strings.HasPrefix(out, "---") {
		t.Error("frontmatter written with IncludeMetadata = false")
	}
	if strings.Contains(out, "<sub>") {
		t.Error("timestamps written with IncludeTimestamps = false")
	}
}

func TestHTMLExporter_SanitizesContent(t *testing.T) {
	s := testSession()
	s.Title = "<b>title</b>"
	s.Messages = append(s.Messages, model.Message{
		ID:      "msg_4",
		Role:    model.RoleAssistant,
		Content: "hi <script>alert(1)</script> [x](javascript:alert(2))",
	})

	opts := testOptions("")
	opts.Theme = model.ThemeCyberpunk
	data, err := NewHTMLExporter(opts).Export(s)
	require.NoError(t, err)
	out := string(data)

	if strings.Contains(out, "<script") {
		t.Error("HTML export contains a script tag")
	}
	if strings.Contains(out, "javascript:") {
		t.Error("HTML export contains a javascript: URL")
	}
	if !strings.Contains(out, "&lt;b&gt;title&lt;/b&gt;") {
		t.Error("title not escaped")
	}
	if !strings.Contains(out, `class="cyberpunk-theme"`) {
		t.Error("theme class missing")
	}
	if !strings.Contains(out, "<strong>lightweight</strong>") {
		t.Error("assistant markdown not rendered")
	}
}

func TestExporters_RejectEmptySession(t *testing.T) {
	s := testSession()
	s.Messages = nil

	for _, exp := range []Exporter{NewMarkdownExporter(nil), NewHTMLExporter(nil)} {
		if _, err := exp.Export(s); err == nil {
			t.Errorf("%T.Export(empty) error = nil, want error", exp)
		}
	}
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	exp, err := ForFormat(FormatHTML, testOptions(dir))
	require.NoError(t, err)

	path, err := WriteFile(testSession(), exp, testOptions(dir))
	require.NoError(t, err)

	if filepath.Base(path) != "elena-session-sess_abc.html" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Error("written file is not the HTML export")
	}
}
