// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/elena/internal/gemini"
	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/session"
	"github.com/jeranaias/elena/internal/storage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeStreamer yields its chunks, then err if set.
type fakeStreamer struct {
	mu       sync.Mutex
	chunks   []string
	err      error
	requests []gemini.ChatRequest

	// onChunk runs before chunk i is yielded.
	onChunk func(i int)
}

func (f *fakeStreamer) StreamChat(ctx context.Context, req gemini.ChatRequest) iter.Seq2[string, error] {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	chunks, err, hook := f.chunks, f.err, f.onChunk
	f.mu.Unlock()

	return func(yield func(string, error) bool) {
		for i, c := range chunks {
			if hook != nil {
				hook(i)
			}
			if !yield(c, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

func (f *fakeStreamer) lastRequest() gemini.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type harness struct {
	ctrl    *Controller
	stream  *fakeStreamer
	backend *storage.MemoryBackend
	gw      *storage.Gateway
	store   *session.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithBackend(t, storage.NewMemoryBackend())
}

func newHarnessWithBackend(t *testing.T, b *storage.MemoryBackend) *harness {
	t.Helper()
	gw := storage.NewGateway(b)
	store := session.NewStore(gw, session.WithWelcome(func() string { return "welcome" }))
	fs := &fakeStreamer{}
	ctrl := New(store, gw, fs)
	ctrl.Start()
	return &harness{ctrl: ctrl, stream: fs, backend: b, gw: gw, store: store}
}

func lastMessage(v View) model.Message {
	return v.Messages[len(v.Messages)-1]
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSend_FoldsChunks(t *testing.T) {
	h := newHarness(t)
	h.stream.chunks = []string{"Hel", "lo!"}
	before := len(h.ctrl.View().Messages)

	require.NoError(t, h.ctrl.Send(context.Background(), "  hi  ", 0.7))

	v := h.ctrl.View()
	require.Len(t, v.Messages, before+2)
	if v.Messages[before].Role != model.RoleUser || v.Messages[before].Content != "hi" {
		t.Errorf("user message = %+v", v.Messages[before])
	}
	got := lastMessage(v)
	if got.Role != model.RoleAssistant || got.Content != "Hello!" || got.Streaming {
		t.Errorf("assistant message = %+v, want finalized Hello!", got)
	}
	if v.Status != StatusIdle {
		t.Errorf("Status = %v, want idle", v.Status)
	}

	// Persisted state matches memory.
	persisted := h.gw.LoadSessions()
	require.Len(t, persisted, 1)
	require.Equal(t, v.Messages, persisted[0].Messages)
}

func TestSend_EachChunkIsVisible(t *testing.T) {
	h := newHarness(t)
	h.stream.chunks = []string{"a", "b", "c"}

	var mu sync.Mutex
	var statuses []Status
	var contents []string
	h.ctrl.Subscribe(func(v View) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, v.Status)
		if n := model.CountStreaming(v.Messages); n > 1 {
			t.Errorf("view has %d streaming messages", n)
		}
		if m := lastMessage(v); m.Role == model.RoleAssistant {
			contents = append(contents, m.Content)
		}
	})

	require.NoError(t, h.ctrl.Send(context.Background(), "go", 0.7))

	require.Equal(t, []string{"", "a", "ab", "abc", "abc"}, contents)
	require.Equal(t, StatusThinking, statuses[0])
	require.Equal(t, StatusStreaming, statuses[1])
	require.Equal(t, StatusIdle, statuses[len(statuses)-1])
}

func TestSend_ConcurrentIntentDoesNotReorderViews(t *testing.T) {
	h := newHarness(t)
	h.stream.chunks = []string{"Hel", "lo!"}

	stalled := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var last View
	h.ctrl.Subscribe(func(v View) {
		if v.Preferences.Model == "gemini-1.5-pro" && v.Status == StatusStreaming {
			// Hold the preference view back while the turn keeps going.
			once.Do(func() {
				close(stalled)
				time.Sleep(100 * time.Millisecond)
			})
		}
		mu.Lock()
		defer mu.Unlock()
		if v.Seq <= last.Seq {
			t.Errorf("view %d delivered after %d", v.Seq, last.Seq)
		}
		last = v
	})

	done := make(chan error, 1)
	h.stream.onChunk = func(i int) {
		if i != 1 {
			return
		}
		go func() { done <- h.ctrl.SetModel("gemini-1.5-pro") }()
		<-stalled
	}

	require.NoError(t, h.ctrl.Send(context.Background(), "hi", 0.7))
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	if last.Status != StatusIdle {
		t.Errorf("last delivered status = %v, want idle", last.Status)
	}
	if got := lastMessage(last); got.Content != "Hello!" || got.Streaming {
		t.Errorf("last delivered message = %+v, want finalized Hello!", got)
	}
	require.Equal(t, h.ctrl.Status(), last.Status)
}

func TestSend_RejectsEmpty(t *testing.T) {
	h := newHarness(t)
	before := h.ctrl.View()

	if err := h.ctrl.Send(context.Background(), " \n\t ", 0.7); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
	require.Equal(t, before.Messages, h.ctrl.View().Messages)
	if len(h.stream.requests) != 0 {
		t.Error("stream opened for empty input")
	}
}

func TestSend_WhileBusyIsNoOp(t *testing.T) {
	h := newHarness(t)
	h.stream.chunks = []string{"x", "y"}

	var busyErr, newErr error
	var lenDuring, lenAfterReject int
	h.stream.onChunk = func(i int) {
		if i != 1 {
			return
		}
		lenDuring = len(h.ctrl.View().Messages)
		busyErr = h.ctrl.Send(context.Background(), "second", 0.7)
		_, newErr = h.ctrl.NewSession()
		lenAfterReject = len(h.ctrl.View().Messages)
	}

	require.NoError(t, h.ctrl.Send(context.Background(), "first", 0.7))

	if !errors.Is(busyErr, ErrBusy) {
		t.Errorf("Send while streaming err = %v, want ErrBusy", busyErr)
	}
	if !errors.Is(newErr, ErrBusy) {
		t.Errorf("NewSession while streaming err = %v, want ErrBusy", newErr)
	}
	if lenDuring != lenAfterReject {
		t.Errorf("rejected send changed length %d -> %d", lenDuring, lenAfterReject)
	}
	if len(h.stream.requests) != 1 {
		t.Errorf("stream opened %d times, want 1", len(h.stream.requests))
	}
}

func TestSend_RateLimitedMidStream(t *testing.T) {
	h := newHarness(t)
	h.stream.chunks = []string{"partial"}
	h.stream.err = gemini.ErrRateLimited
	before := len(h.ctrl.View().Messages)

	var sawError bool
	h.ctrl.Subscribe(func(v View) {
		if v.Status == StatusError {
			sawError = true
		}
	})

	require.NoError(t, h.ctrl.Send(context.Background(), "hi", 0.7))

	v := h.ctrl.View()
	require.Len(t, v.Messages, before+2)
	for _, m := range v.Messages {
		if m.Role == model.RoleAssistant {
			t.Errorf("placeholder survived failure: %+v", m)
		}
	}
	if got := lastMessage(v); got.Role != model.RoleSystem || got.Content != NoticeRateLimited {
		t.Errorf("last message = %+v, want rate limit notice", got)
	}
	if v.Status != StatusIdle {
		t.Errorf("Status = %v, want idle", v.Status)
	}
	if !sawError {
		t.Error("Error status was never published")
	}
	if model.CountStreaming(h.gw.LoadSessions()[0].Messages) != 0 {
		t.Error("persisted state still has a streaming message")
	}
}

func TestSend_NoticePerKind(t *testing.T) {
	kinds := map[error]string{
		gemini.ErrUnauthenticated: NoticeUnauthenticated,
		gemini.ErrTimeout:         NoticeTimeout,
		gemini.ErrUnreachable:     NoticeUnreachable,
		errors.New("mystery"):     NoticeUnreachable,
	}
	for err, want := range kinds {
		h := newHarness(t)
		h.stream.err = err
		require.NoError(t, h.ctrl.Send(context.Background(), "hi", 0.7))
		if got := lastMessage(h.ctrl.View()).Content; got != want {
			t.Errorf("%v: notice = %q, want %q", err, got, want)
		}
	}
}

func TestSend_HistoryExcludesSystemAndPlaceholder(t *testing.T) {
	h := newHarness(t)
	h.stream.chunks = []string{"pong"}

	require.NoError(t, h.ctrl.Send(context.Background(), "ping", 0.4))
	req := h.stream.lastRequest()
	require.Equal(t, []gemini.Turn{{Role: gemini.RoleUser, Content: "ping"}}, req.History)
	if req.Temperature != 0.4 {
		t.Errorf("Temperature = %v, want 0.4", req.Temperature)
	}

	require.NoError(t, h.ctrl.Send(context.Background(), "again", 0.4))
	require.Equal(t, []gemini.Turn{
		{Role: gemini.RoleUser, Content: "ping"},
		{Role: gemini.RoleAssistant, Content: "pong"},
		{Role: gemini.RoleUser, Content: "again"},
	}, h.stream.lastRequest().History)
}

func TestSend_ModelCapturedPerTurn(t *testing.T) {
	h := newHarness(t)
	h.stream.chunks = []string{"a", "b"}
	h.stream.onChunk = func(i int) {
		if i == 0 {
			require.NoError(t, h.ctrl.SetModel("gemini-1.5-pro"))
		}
	}

	require.NoError(t, h.ctrl.Send(context.Background(), "one", 0.7))
	if got := h.stream.lastRequest().Model; got != model.DefaultModelID {
		t.Errorf("open turn model = %q, want %q", got, model.DefaultModelID)
	}

	h.stream.onChunk = nil
	require.NoError(t, h.ctrl.Send(context.Background(), "two", 0.7))
	if got := h.stream.lastRequest().Model; got != "gemini-1.5-pro" {
		t.Errorf("next turn model = %q, want gemini-1.5-pro", got)
	}
}

func TestSend_DerivesTitle(t *testing.T) {
	h := newHarness(t)
	msg := strings.Repeat("0123456789", 6)

	require.NoError(t, h.ctrl.Send(context.Background(), msg, 0.7))

	sess, _ := h.ctrl.View().ActiveSession()
	if sess.Title != msg[:47]+"..." {
		t.Errorf("Title = %q, want %q", sess.Title, msg[:47]+"...")
	}
}

func TestSend_PersistenceFailureDoesNotBlock(t *testing.T) {
	h := newHarness(t)
	h.backend.PutErr = errors.New("disk full")
	h.stream.chunks = []string{"still works"}

	require.NoError(t, h.ctrl.Send(context.Background(), "hi", 0.7))

	if got := lastMessage(h.ctrl.View()).Content; got != "still works" {
		t.Errorf("content = %q", got)
	}
	if h.gw.Failures() == 0 {
		t.Error("persistence failures were not reported")
	}
}

// =============================================================================
// SESSION INTENT TESTS
// =============================================================================

func TestDeleteSession_LastSessionIsReplaced(t *testing.T) {
	h := newHarness(t)
	old := h.ctrl.View().ActiveSessionID

	require.NoError(t, h.ctrl.DeleteSession(old))

	v := h.ctrl.View()
	require.Len(t, v.Sessions, 1)
	if v.Sessions[0].ID == old {
		t.Error("deleted session still present")
	}
	if v.ActiveSessionID != v.Sessions[0].ID {
		t.Errorf("active = %q, want the fresh session", v.ActiveSessionID)
	}
	require.Len(t, v.Messages, 1)
	if !strings.Contains(v.Messages[0].Content, "New session initiated") {
		t.Errorf("welcome = %q", v.Messages[0].Content)
	}
}

func TestDeleteSession_ActiveFallsBackToFirst(t *testing.T) {
	h := newHarness(t)
	first := h.ctrl.View().ActiveSessionID
	second, err := h.ctrl.NewSession()
	require.NoError(t, err)

	require.NoError(t, h.ctrl.DeleteSession(second.ID))
	if got := h.ctrl.View().ActiveSessionID; got != first {
		t.Errorf("active = %q, want %q", got, first)
	}

	// Deleting an inactive session leaves the pointer alone.
	third, _ := h.ctrl.NewSession()
	require.NoError(t, h.ctrl.DeleteSession(first))
	if got := h.ctrl.View().ActiveSessionID; got != third.ID {
		t.Errorf("active = %q, want %q", got, third.ID)
	}

	if err := h.ctrl.DeleteSession("sess_missing"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSwitchSession(t *testing.T) {
	h := newHarness(t)
	first := h.ctrl.View()
	second, err := h.ctrl.NewSession()
	require.NoError(t, err)

	require.NoError(t, h.ctrl.SwitchSession(first.ActiveSessionID))
	require.Equal(t, first.Messages, h.ctrl.View().Messages)

	before := h.ctrl.View()
	if err := h.ctrl.SwitchSession("sess_unknown"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	after := h.ctrl.View()
	if after.ActiveSessionID != before.ActiveSessionID || len(after.Messages) != len(before.Messages) {
		t.Error("failed switch changed state")
	}
	if h.gw.LoadActiveID() != first.ActiveSessionID {
		t.Error("failed switch changed persisted pointer")
	}
	_ = second
}

func TestClearActiveSession(t *testing.T) {
	h := newHarness(t)
	h.stream.chunks = []string{"x"}
	require.NoError(t, h.ctrl.Send(context.Background(), "hi", 0.7))

	require.NoError(t, h.ctrl.ClearActiveSession())

	v := h.ctrl.View()
	require.Len(t, v.Messages, 1)
	if v.Messages[0].Role != model.RoleSystem || v.Messages[0].Content != session.ClearedMessage("welcome") {
		t.Errorf("message = %+v", v.Messages[0])
	}
}

func TestRenameSession(t *testing.T) {
	h := newHarness(t)
	id := h.ctrl.View().ActiveSessionID

	require.NoError(t, h.ctrl.RenameSession(id, " Field notes "))
	require.NoError(t, h.ctrl.Send(context.Background(), "anything", 0.7))

	sess, _ := h.ctrl.View().ActiveSession()
	if sess.Title != "Field notes" {
		t.Errorf("Title = %q", sess.Title)
	}
	if err := h.ctrl.RenameSession(id, "  "); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("err = %v, want ErrEmptyTitle", err)
	}
}

// =============================================================================
// IMPORT / EXPORT TESTS
// =============================================================================

func TestExportImportRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.stream.chunks = []string{"answer"}
	require.NoError(t, h.ctrl.Send(context.Background(), "question", 0.7))
	orig, _ := h.ctrl.View().ActiveSession()

	filename, data, err := h.ctrl.ExportActiveSession()
	require.NoError(t, err)
	if filename != "elena-session-"+orig.ID+".json" {
		t.Errorf("filename = %q", filename)
	}

	require.NoError(t, h.ctrl.DeleteSession(orig.ID))
	imported, err := h.ctrl.ImportSession(data)
	require.NoError(t, err)

	if imported.ID != orig.ID || imported.Title != orig.Title {
		t.Errorf("identity changed: %q/%q vs %q/%q", imported.ID, imported.Title, orig.ID, orig.Title)
	}
	if imported.CreatedAt != orig.CreatedAt || imported.UpdatedAt != orig.UpdatedAt {
		t.Error("timestamps changed")
	}
	require.Equal(t, orig.Messages, imported.Messages)
	if h.ctrl.View().ActiveSessionID != orig.ID {
		t.Error("imported session not made active")
	}
}

func TestImportSession_InvalidFormat(t *testing.T) {
	h := newHarness(t)
	before := len(h.ctrl.View().Sessions)

	_, err := h.ctrl.ImportSession([]byte(`{"id":"x","title":"t"}`))
	if !errors.Is(err, storage.ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
	if len(h.ctrl.View().Sessions) != before {
		t.Error("invalid import changed the session list")
	}
}

// =============================================================================
// PREFERENCE TESTS
// =============================================================================

func TestPreferencesPersistAcrossRestart(t *testing.T) {
	b := storage.NewMemoryBackend()
	h := newHarnessWithBackend(t, b)

	require.NoError(t, h.ctrl.SetTemperature(1.2))
	require.NoError(t, h.ctrl.SetModel("gemini-1.5-flash"))

	if err := h.ctrl.SetTemperature(3); err == nil {
		t.Error("SetTemperature(3) = nil, want error")
	}
	if err := h.ctrl.SetModel("gpt-4"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("err = %v, want ErrUnknownModel", err)
	}

	restarted := newHarnessWithBackend(t, b)
	if got := restarted.ctrl.Temperature(); got != 1.2 {
		t.Errorf("Temperature = %v, want 1.2", got)
	}
	if got := restarted.ctrl.Model(); got != "gemini-1.5-flash" {
		t.Errorf("Model = %q, want gemini-1.5-flash", got)
	}
}

func TestStart_UsesDefaultsWithoutSavedPreferences(t *testing.T) {
	gw := storage.NewGateway(storage.NewMemoryBackend())
	store := session.NewStore(gw)
	defaults := model.DefaultPreferences()
	defaults.Model = "gemini-1.5-pro"
	defaults.Temperature = 0.2

	ctrl := New(store, gw, &fakeStreamer{}, WithDefaults(defaults))
	v := ctrl.Start()

	if v.Preferences.Model != "gemini-1.5-pro" || v.Preferences.Temperature != 0.2 {
		t.Errorf("Preferences = %+v", v.Preferences)
	}
}

func TestSetDefaultModel_FollowsConfigUntilPinned(t *testing.T) {
	h := newHarness(t)
	h.stream.chunks = []string{"ok"}

	require.NoError(t, h.ctrl.SetDefaultModel("gemini-1.5-flash"))
	require.NoError(t, h.ctrl.Send(context.Background(), "one", 0.7))
	require.Equal(t, "gemini-1.5-flash", h.stream.lastRequest().Model)

	require.NoError(t, h.ctrl.SetModel("gemini-1.5-pro"))
	require.NoError(t, h.ctrl.SetDefaultModel("gemini-2.0-flash-exp"))
	require.NoError(t, h.ctrl.Send(context.Background(), "two", 0.7))
	require.Equal(t, "gemini-1.5-pro", h.stream.lastRequest().Model)

	if err := h.ctrl.SetDefaultModel("gpt-4"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("err = %v, want ErrUnknownModel", err)
	}
}

func TestStart_UnpinnedModelFollowsNewDefault(t *testing.T) {
	b := storage.NewMemoryBackend()
	h := newHarnessWithBackend(t, b)
	require.NoError(t, h.ctrl.SetTemperature(1.1))

	gw := storage.NewGateway(b)
	defaults := model.DefaultPreferences()
	defaults.Model = "gemini-1.5-pro"
	ctrl := New(session.NewStore(gw), gw, &fakeStreamer{}, WithDefaults(defaults))
	v := ctrl.Start()

	if v.Preferences.Model != "gemini-1.5-pro" {
		t.Errorf("Model = %q, want the configured default", v.Preferences.Model)
	}
	if v.Preferences.Temperature != 1.1 {
		t.Errorf("Temperature = %v, want the saved 1.1", v.Preferences.Temperature)
	}
}
