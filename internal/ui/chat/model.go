// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/elena/internal/commands"
	"github.com/jeranaias/elena/internal/conversation"
	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/render"
	"github.com/jeranaias/elena/internal/ui/styles"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================

const (
	sidebarWidth    = 30
	minSidebarWidth = 80 // below this terminal width the sidebar is hidden
	headerHeight    = 1
	inputHeight     = 3
	statusHeight    = 1
	maxCompletions  = 6
	feedbackTimeout = 5 * time.Second
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat Model.
type Options struct {
	Controller *conversation.Controller
	Registry   *commands.Registry
	Context    *commands.Context
	Logger     *zap.Logger

	// MaxFPS caps streaming redraws. Zero uses DefaultMaxFPS.
	MaxFPS int

	// WordWrap caps the message column width. Zero uses the full width.
	WordWrap int
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctrl      *conversation.Controller
	registry  *commands.Registry
	parser    *commands.Parser
	cmdCtx    *commands.Context
	completer *commands.Completer
	logger    *zap.Logger

	// Styling
	theme    *styles.Theme
	renderer *render.Terminal
	keys     KeyMap
	help     help.Model

	// Dimensions
	width    int
	height   int
	wordWrap int
	ready    bool

	// Conversation snapshot
	view  conversation.View
	cache *renderCache
	buf   *viewBuffer

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Completion popup
	completion *commands.CompletionState

	// Panels
	sidebarOpen bool
	showHelp    bool
	output      string // last command output, rendered above the input

	// Status bar feedback
	feedback    string
	feedbackErr bool
	feedbackSeq int

	// Turn lifecycle
	baseCtx   context.Context
	cancelMgr *cancelManager
	quitting  bool
}

// New creates a chat model around a started controller.
func New(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	view := opts.Controller.View()
	theme := styles.NewTheme(view.Preferences.Theme)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Message ELENA, or type / for commands"
	ti.CharLimit = 16384
	ti.Focus()

	completer := commands.NewCompleter(opts.Registry)
	ctrl := opts.Controller
	completer.SessionsFn = func() []commands.SessionInfo {
		sessions := ctrl.View().Sessions
		infos := make([]commands.SessionInfo, len(sessions))
		for i, s := range sessions {
			infos[i] = commands.SessionInfo{ID: s.ID, Title: s.Title}
		}
		return infos
	}

	m := Model{
		ctrl:        ctrl,
		registry:    opts.Registry,
		parser:      commands.NewParser(opts.Registry),
		cmdCtx:      opts.Context,
		completer:   completer,
		logger:      logger,
		theme:       theme,
		renderer:    render.NewTerminal(view.Preferences.Theme, 80),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		wordWrap:    opts.WordWrap,
		view:        view,
		cache:       newRenderCache(),
		buf:         newViewBuffer(opts.MaxFPS),
		viewport:    viewport.New(80, 20),
		input:       ti,
		completion:  commands.NewCompletionState(),
		sidebarOpen: true,
		baseCtx:     ctx,
		cancelMgr:   newCancelManager(),
	}
	m.spinner = newSpinner(theme, view.Status)
	return m
}

// Subscriber returns the callback to register with Controller.Subscribe.
// send delivers a message to the running program, normally Program.Send.
func (m Model) Subscriber(send func(tea.Msg)) func(conversation.View) {
	buf := m.buf
	return func(v conversation.View) {
		if buf.Put(v) {
			send(viewReadyMsg{})
		}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// newSpinner picks the spinner frames for a turn state.
func newSpinner(theme *styles.Theme, status conversation.Status) spinner.Model {
	cfg := styles.ThinkingSpinner
	if status == conversation.StatusStreaming {
		cfg = styles.StreamingSpinner
	}
	return spinner.New(
		spinner.WithSpinner(spinner.Spinner{Frames: cfg.Frames, FPS: cfg.Duration()}),
		spinner.WithStyle(theme.StatusBusy),
	)
}

// =============================================================================
// RENDER CACHE
// =============================================================================

// renderCache keeps glamour output per finalized message. Entries are keyed
// by message ID and content length, since finalized content never changes
// otherwise. It must be reset whenever the theme or width changes.
type renderCache struct {
	entries map[string]cachedRender
}

type cachedRender struct {
	length int
	out    string
}

func newRenderCache() *renderCache {
	return &renderCache{entries: make(map[string]cachedRender)}
}

func (c *renderCache) get(msg model.Message) (string, bool) {
	e, ok := c.entries[msg.ID]
	if !ok || e.length != len(msg.Content) {
		return "", false
	}
	return e.out, true
}

func (c *renderCache) put(msg model.Message, out string) {
	c.entries[msg.ID] = cachedRender{length: len(msg.Content), out: out}
}

func (c *renderCache) reset() {
	clear(c.entries)
}
