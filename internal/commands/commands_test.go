// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/elena/internal/conversation"
	"github.com/jeranaias/elena/internal/gemini"
	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/session"
	"github.com/jeranaias/elena/internal/storage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// replyStreamer answers every turn with a fixed reply.
type replyStreamer struct{ reply string }

func (r replyStreamer) StreamChat(ctx context.Context, req gemini.ChatRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield(r.reply, nil)
	}
}

type env struct {
	registry *Registry
	parser   *Parser
	ctx      *Context
	ctrl     *conversation.Controller
	copied   []string
}

func newEnv(t *testing.T, reply string) *env {
	t.Helper()
	gw := storage.NewGateway(storage.NewMemoryBackend())
	store := session.NewStore(gw, session.WithWelcome(func() string { return "welcome" }))
	ctrl := conversation.New(store, gw, replyStreamer{reply: reply})
	ctrl.Start()

	e := &env{registry: NewRegistry(), ctrl: ctrl}
	e.parser = NewParser(e.registry)
	e.ctx = NewContext(ctrl, t.TempDir())
	e.ctx.Clipboard = func(s string) error {
		e.copied = append(e.copied, s)
		return nil
	}
	return e
}

func (e *env) run(t *testing.T, input string) (Result, error) {
	t.Helper()
	parsed := e.parser.Parse(input)
	if !parsed.IsCommand {
		t.Fatalf("Parse(%q).IsCommand = false", input)
	}
	return e.registry.Execute(e.ctx, parsed)
}

func (e *env) mustRun(t *testing.T, input string) Result {
	t.Helper()
	res, err := e.run(t, input)
	require.NoError(t, err, input)
	return res
}

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/help", true},
		{"/model gemini-1.5-pro", true},
		{"  /help", true},
		{"hello", false},
		{"hello /help", false},
		{"", false},
		{"/", true},
	}

	for _, tc := range tests {
		if got := IsCommand(tc.input); got != tc.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestExtractCommandName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/help", "/help"},
		{"/model gemini-1.5-pro", "/model"},
		{"  /help  ", "/help"},
		{"hello", ""},
	}

	for _, tc := range tests {
		if got := ExtractCommandName(tc.input); got != tc.want {
			t.Errorf("ExtractCommandName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseArgs_Quotes(t *testing.T) {
	got := ParseArgs(`rename "my big title" 'single quoted' plain`)
	want := []string{"rename", "my big title", "single quoted", "plain"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("ParseArgs() = %q, want %q", got, want)
	}
}

func TestParseArgs_Edges(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{`/rename Café über`, []string{"/rename", "Café", "über"}},
		{`"say \"hi\"" done`, []string{`say "hi"`, "done"}},
		{`'C:\path\x'`, []string{`C:\path\x`}},
		{`"unterminated quote`, []string{"unterminated quote"}},
		{"  \t ", nil},
	}

	for _, tc := range tests {
		got := ParseArgs(tc.input)
		if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
			t.Errorf("ParseArgs(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(NewRegistry())

	res := p.Parse(`/Rename "Go notes" today`)
	if res.Command == nil || res.Command.Name != "/rename" {
		t.Fatalf("Command = %+v, want /rename", res.Command)
	}
	if res.RawArgs != `"Go notes" today` {
		t.Errorf("RawArgs = %q", res.RawArgs)
	}
	if len(res.Args) != 2 || res.Args[0] != "Go notes" {
		t.Errorf("Args = %q", res.Args)
	}

	res = p.Parse("/bogus")
	if res.Error == nil {
		t.Error("Parse(/bogus).Error = nil, want unknown command")
	}

	if res := p.Parse("just text"); res.IsCommand {
		t.Error("plain text parsed as a command")
	}
}

func TestValidateArgs(t *testing.T) {
	r := NewRegistry()

	var verr *ValidationError
	if err := ValidateArgs(r.Get("/switch"), nil); !errors.As(err, &verr) || verr.Arg != "session" {
		t.Errorf("ValidateArgs(/switch) = %v, want missing session", err)
	}
	if err := ValidateArgs(r.Get("/theme"), []string{"neon"}); !errors.As(err, &verr) || verr.Got != "neon" {
		t.Errorf("ValidateArgs(/theme neon) = %v, want invalid value", err)
	}
	if err := ValidateArgs(r.Get("/theme"), []string{"LIGHT"}); err != nil {
		t.Errorf("ValidateArgs(/theme LIGHT) = %v, want nil", err)
	}
}

// =============================================================================
// HANDLER TESTS
// =============================================================================

func TestSessionLifecycleCommands(t *testing.T) {
	e := newEnv(t, "ok")

	e.mustRun(t, "/new")
	if n := len(e.ctrl.View().Sessions); n != 2 {
		t.Fatalf("sessions after /new = %d, want 2", n)
	}

	list := e.mustRun(t, "/sessions").Output
	if !strings.Contains(list, " 1. Welcome Session") {
		t.Errorf("/sessions output missing welcome session:\n%s", list)
	}

	e.mustRun(t, "/switch 1")
	if active, _ := e.ctrl.View().ActiveSession(); active.Title != session.WelcomeTitle {
		t.Errorf("active after /switch 1 = %q, want %q", active.Title, session.WelcomeTitle)
	}

	e.mustRun(t, `/rename "Go questions"`)
	if active, _ := e.ctrl.View().ActiveSession(); active.Title != "Go questions" || !active.TitleLocked {
		t.Errorf("after /rename = %+v", active)
	}

	e.mustRun(t, "/delete")
	if n := len(e.ctrl.View().Sessions); n != 1 {
		t.Errorf("sessions after /delete = %d, want 1", n)
	}

	e.mustRun(t, "/clear")
	v := e.ctrl.View()
	if len(v.Messages) != 1 || !strings.Contains(v.Messages[0].Content, "Session cleared") {
		t.Errorf("messages after /clear = %+v", v.Messages)
	}
}

func TestSwitch_UnknownSession(t *testing.T) {
	e := newEnv(t, "ok")
	before := e.ctrl.View().ActiveSessionID

	_, err := e.run(t, "/switch 9")
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("/switch 9 error = %v, want ErrNotFound", err)
	}
	_, err = e.run(t, "/switch sess_nope")
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("/switch sess_nope error = %v, want ErrNotFound", err)
	}
	if after := e.ctrl.View().ActiveSessionID; after != before {
		t.Errorf("active changed from %q to %q", before, after)
	}
}

func TestResolveSession_Prefix(t *testing.T) {
	v := conversation.View{Sessions: []model.Session{{ID: "sess_aaa"}, {ID: "sess_abb"}, {ID: "sess_bcc"}}}

	if id, err := ResolveSession(v, "sess_b"); err != nil || id != "sess_bcc" {
		t.Errorf("ResolveSession(sess_b) = %q, %v", id, err)
	}
	if _, err := ResolveSession(v, "sess_a"); err == nil {
		t.Error("ResolveSession(sess_a) error = nil, want ambiguous")
	}
	if id, err := ResolveSession(v, "2"); err != nil || id != "sess_abb" {
		t.Errorf("ResolveSession(2) = %q, %v", id, err)
	}
}

func TestExportImportCommands(t *testing.T) {
	e := newEnv(t, "hi")
	require.NoError(t, e.ctrl.Send(context.Background(), "hello there", 0.7))
	active, _ := e.ctrl.View().ActiveSession()

	for _, format := range []string{"json", "md", "html"} {
		res := e.mustRun(t, "/export "+format)
		if !strings.Contains(res.Output, "elena-session-") {
			t.Errorf("/export %s output = %q", format, res.Output)
		}
	}

	path := filepath.Join(e.ctx.ExportDir, storage.ExportFilename(active.ID))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if !strings.Contains(string(data), `"hello there"`) {
		t.Error("JSON export missing user message")
	}

	e.mustRun(t, "/delete")
	res := e.mustRun(t, "/import "+path)
	if !strings.Contains(res.Output, "hello there") {
		t.Errorf("/import output = %q", res.Output)
	}
	if got := e.ctrl.View().ActiveSessionID; got != active.ID {
		t.Errorf("active after import = %q, want %q", got, active.ID)
	}
}

func TestImport_InvalidFile(t *testing.T) {
	e := newEnv(t, "ok")
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a session"}`), 0600))

	_, err := e.run(t, "/import "+path)
	if !errors.Is(err, storage.ErrInvalidFormat) {
		t.Errorf("/import bad error = %v, want ErrInvalidFormat", err)
	}
}

func TestModelAndTemperatureCommands(t *testing.T) {
	e := newEnv(t, "ok")

	list := e.mustRun(t, "/model").Output
	if !strings.Contains(list, "* "+model.DefaultModelID) {
		t.Errorf("/model list does not mark the default:\n%s", list)
	}

	e.mustRun(t, "/model gemini-1.5-pro")
	if got := e.ctrl.Model(); got != "gemini-1.5-pro" {
		t.Errorf("Model() = %q, want gemini-1.5-pro", got)
	}
	if _, err := e.run(t, "/model gpt-4"); !errors.Is(err, conversation.ErrUnknownModel) {
		t.Errorf("/model gpt-4 error = %v, want ErrUnknownModel", err)
	}

	e.mustRun(t, "/temp 1.3")
	if got := e.ctrl.Temperature(); got != 1.3 {
		t.Errorf("Temperature() = %v, want 1.3", got)
	}
	if _, err := e.run(t, "/temp 2.5"); err == nil {
		t.Error("/temp 2.5 error = nil, want range error")
	}
	if _, err := e.run(t, "/temp hot"); err == nil {
		t.Error("/temp hot error = nil, want parse error")
	}
}

func TestDisplayCommands(t *testing.T) {
	e := newEnv(t, "ok")

	res := e.mustRun(t, "/theme cyberpunk")
	if res.Action != ActionRestyle {
		t.Errorf("/theme Action = %v, want ActionRestyle", res.Action)
	}
	if got := e.ctrl.Preferences().Theme; got != model.ThemeCyberpunk {
		t.Errorf("Theme = %q, want cyberpunk", got)
	}

	before := e.ctrl.Preferences().ShowTimestamps
	e.mustRun(t, "/timestamps")
	if e.ctrl.Preferences().ShowTimestamps == before {
		t.Error("/timestamps did not toggle")
	}
	e.mustRun(t, "/timestamps on")
	if !e.ctrl.Preferences().ShowTimestamps {
		t.Error("/timestamps on left timestamps off")
	}
}

func TestCodeCommand(t *testing.T) {
	e := newEnv(t, "Try:\n```go\nfmt.Println(1)\n```\nor\n```sh\necho 1\n```\n")

	if _, err := e.run(t, "/code"); err == nil {
		t.Error("/code before any reply error = nil")
	}

	require.NoError(t, e.ctrl.Send(context.Background(), "print one", 0.7))

	list := e.mustRun(t, "/code").Output
	if !strings.Contains(list, "1. [go] fmt.Println(1)") || !strings.Contains(list, "2. [sh] echo 1") {
		t.Errorf("/code list = %q", list)
	}

	e.mustRun(t, "/copy-code 2")
	if len(e.copied) != 1 || e.copied[0] != "echo 1" {
		t.Errorf("copied = %q, want [echo 1]", e.copied)
	}
	if _, err := e.run(t, "/code 3"); err == nil {
		t.Error("/code 3 error = nil, want out of range")
	}
}

func TestHelpAndQuit(t *testing.T) {
	e := newEnv(t, "ok")

	help := e.mustRun(t, "/help").Output
	for _, want := range []string{"Sessions:", "/switch <number|id>", "/export [json|md|html]"} {
		if !strings.Contains(help, want) {
			t.Errorf("/help missing %q", want)
		}
	}
	if detail := e.mustRun(t, "/help rename").Output; !strings.Contains(detail, "<title> required") {
		t.Errorf("/help rename = %q", detail)
	}
	if res := e.mustRun(t, "/q"); res.Action != ActionQuit {
		t.Errorf("/q Action = %v, want ActionQuit", res.Action)
	}
}

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestCompleter(t *testing.T) {
	c := NewCompleter(NewRegistry())
	c.SessionsFn = func() []SessionInfo {
		return []SessionInfo{{ID: "sess_123", Title: "Go notes"}, {ID: "sess_456", Title: "Recipes"}}
	}

	values := func(cs []Completion) []string {
		out := make([]string, len(cs))
		for i, comp := range cs {
			out[i] = comp.Value
		}
		return out
	}

	if got := values(c.Complete("/mo")); len(got) == 0 || got[0] != "/model" {
		t.Errorf("Complete(/mo) = %q, want /model first", got)
	}
	if got := values(c.Complete("/model gemini-1.5-f")); len(got) != 1 || got[0] != "gemini-1.5-flash" {
		t.Errorf("Complete(/model gemini-1.5-f) = %q", got)
	}
	if got := values(c.Complete("/theme ")); len(got) != 3 {
		t.Errorf("Complete(/theme ) = %q, want 3 themes", got)
	}
	if got := values(c.Complete("/switch rec")); len(got) != 1 || got[0] != "sess_456" {
		t.Errorf("Complete(/switch rec) = %q", got)
	}
	if got := c.Complete("hello"); got != nil {
		t.Errorf("Complete(hello) = %v, want nil", got)
	}

	lines := c.Lines("/theme l")
	if len(lines) != 1 || lines[0] != "/theme light" {
		t.Errorf("Lines(/theme l) = %q", lines)
	}
}

func TestCompletionState(t *testing.T) {
	cs := NewCompletionState()
	cs.Update("/t", []Completion{{Value: "/temp"}, {Value: "/theme"}})

	if got := cs.Accept(); got != "/temp" {
		t.Errorf("Accept() = %q, want /temp", got)
	}
	cs.Next()
	if got := cs.Accept(); got != "/theme" {
		t.Errorf("Accept() after Next = %q, want /theme", got)
	}
	cs.Next()
	if got := cs.Accept(); got != "/temp" {
		t.Errorf("Accept() did not wrap: %q", got)
	}
	cs.Clear()
	if cs.Visible || cs.Accept() != "" {
		t.Error("Clear() left state behind")
	}
}
