// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/jeranaias/elena/internal/model"
)

// =============================================================================
// HTML
// =============================================================================

func TestHTML_RendersMarkdown(t *testing.T) {
	out := HTML("# Title\n\nSome **bold** text.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")

	for _, want := range []string{"<h1", "<strong>bold</strong>", "<table>", "<td>1</td>"} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML() missing %q in %q", want, out)
		}
	}
}

func TestHTML_StripsActiveContent(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		banned string
	}{
		{"script tag", "hello <script>alert(1)</script>", "<script"},
		{"javascript link", "[click](javascript:alert(1))", "javascript:"},
		{"event handler", `<img src="x.png" onerror="alert(1)">`, "onerror"},
		{"iframe", `<iframe src="https://example.com"></iframe>`, "<iframe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := HTML(tt.input)
			if strings.Contains(strings.ToLower(out), tt.banned) {
				t.Errorf("HTML(%q) = %q, contains %q", tt.input, out, tt.banned)
			}
		})
	}
}

func TestHTML_KeepsSafeLinks(t *testing.T) {
	out := HTML("[docs](https://ai.google.dev)")
	if !strings.Contains(out, `href="https://ai.google.dev"`) {
		t.Errorf("HTML() dropped a safe link: %q", out)
	}
	if !strings.Contains(out, "noreferrer") {
		t.Errorf("HTML() link missing rel=noreferrer: %q", out)
	}
}

func TestHTML_CodeLanguageClass(t *testing.T) {
	out := HTML("```go\nfmt.Println(1)\n```\n")
	if !strings.Contains(out, `class="language-go"`) {
		t.Errorf("HTML() dropped code language class: %q", out)
	}
}

// =============================================================================
// CODE BLOCKS
// =============================================================================

func TestCodeBlocks(t *testing.T) {
	content := "Intro\n```go\nfunc main() {}\n```\ntext\n```\nplain\nlines\n```\n"

	blocks := CodeBlocks(content)
	if len(blocks) != 2 {
		t.Fatalf("len(CodeBlocks) = %d, want 2", len(blocks))
	}
	if blocks[0].Language != "go" || blocks[0].Code != "func main() {}" {
		t.Errorf("blocks[0] = %+v", blocks[0])
	}
	if blocks[1].Language != "" || blocks[1].Code != "plain\nlines" {
		t.Errorf("blocks[1] = %+v", blocks[1])
	}
}

func TestCodeBlocks_Unclosed(t *testing.T) {
	blocks := CodeBlocks("```python\nprint('hi')")
	if len(blocks) != 1 || blocks[0].Code != "print('hi')" {
		t.Errorf("CodeBlocks(unclosed) = %+v", blocks)
	}
}

func TestCodeBlocks_None(t *testing.T) {
	if blocks := CodeBlocks("no code here"); len(blocks) != 0 {
		t.Errorf("CodeBlocks() = %+v, want none", blocks)
	}
}

func TestHighlight_AddsANSI(t *testing.T) {
	out := Highlight("package main\n\nfunc main() {}\n", "go")
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("Highlight() produced no ANSI escapes: %q", out)
	}
	if !strings.Contains(out, "main") {
		t.Errorf("Highlight() lost the source text: %q", out)
	}
}

// =============================================================================
// TERMINAL
// =============================================================================

func TestTerminal_Render(t *testing.T) {
	term := NewTerminal(model.ThemeDark, 60)
	out := term.Render("**hello** world")
	if !strings.Contains(out, "hello") || !strings.Contains(out, "world") {
		t.Errorf("Render() = %q, lost text", out)
	}
	if strings.Contains(out, "**") {
		t.Errorf("Render() = %q, markdown not rendered", out)
	}
}

func TestTerminal_EmptyPassthrough(t *testing.T) {
	term := NewTerminal(model.ThemeLight, 60)
	if got := term.Render(""); got != "" {
		t.Errorf("Render(\"\") = %q, want empty", got)
	}
}

func TestTerminal_Configure(t *testing.T) {
	term := NewTerminal(model.ThemeDark, 60)
	term.Configure(model.ThemeCyberpunk, 40)
	if term.Width() != 40 {
		t.Errorf("Width() = %d, want 40", term.Width())
	}
}
