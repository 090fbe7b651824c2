// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/elena/internal/commands"
	"github.com/jeranaias/elena/internal/conversation"
	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/ui/styles"
	"github.com/jeranaias/elena/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.refreshViewport(true)
		return m, nil

	case viewReadyMsg:
		v, wait, ok := m.buf.Take(time.Now())
		if ok {
			return m.applyView(v)
		}
		if wait > 0 {
			return m, tea.Tick(wait, func(time.Time) tea.Msg { return viewReadyMsg{} })
		}
		return m, nil

	case turnDoneMsg:
		if msg.err != nil {
			return m.setFeedback(msg.err.Error(), true)
		}
		return m, nil

	case commandResultMsg:
		return m.handleCommandResult(msg)

	case clearFeedbackMsg:
		if msg.seq == m.feedbackSeq {
			m.feedback = ""
			m.feedbackErr = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.view.Status.Busy() {
			m.refreshViewport(false)
		}
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applyView installs a controller snapshot.
func (m Model) applyView(v conversation.View) (tea.Model, tea.Cmd) {
	prev := m.view
	m.view = v

	var cmds []tea.Cmd
	if v.Preferences.Theme != m.theme.Name {
		m.restyle(v.Preferences.Theme)
	}
	if v.Status != prev.Status {
		m.spinner = newSpinner(m.theme, v.Status)
		cmds = append(cmds, m.spinner.Tick)
	}
	m.refreshViewport(v.ActiveSessionID != prev.ActiveSessionID)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEYBOARD
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.completion.Clear()
		m.output = ""
		m.showHelp = false
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		m.complete()
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.completion.Visible {
			m.acceptCompletion()
			m.layout()
			return m, nil
		}
		return m.submit()

	case key.Matches(msg, m.keys.NewSession):
		ctrl := m.ctrl
		return m, m.intent(func() error {
			_, err := ctrl.NewSession()
			return err
		})

	case key.Matches(msg, m.keys.NextSession):
		return m, m.cycleSession(1)

	case key.Matches(msg, m.keys.PrevSession):
		return m, m.cycleSession(-1)

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.sidebarOpen = !m.sidebarOpen
		m.layout()
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	// Typing invalidates the candidates.
	if m.completion.Visible {
		m.completion.Clear()
		m.layout()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancelMgr.cancel()
	return m, tea.Quit
}

// =============================================================================
// COMPLETION
// =============================================================================

// complete handles Tab. The first press computes candidates and applies a
// unique one directly; later presses cycle through the popup.
func (m *Model) complete() {
	if m.completion.Visible {
		m.completion.Next()
		return
	}

	input := m.input.Value()
	completions := m.completer.Complete(input)
	switch len(completions) {
	case 0:
		return
	case 1:
		m.completion.Update(input, completions)
		m.acceptCompletion()
	default:
		m.completion.Update(input, completions)
	}
}

// acceptCompletion replaces the input with the selected whole-line candidate.
func (m *Model) acceptCompletion() {
	lines := m.completer.Lines(m.completion.OriginalInput)
	if sel := m.completion.Selected; sel >= 0 && sel < len(lines) {
		m.input.SetValue(lines[sel])
		m.input.CursorEnd()
	}
	m.completion.Clear()
}

// =============================================================================
// INTENTS
// =============================================================================

// submit sends the input line as a message or runs it as a command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if commands.IsCommand(text) {
		m.input.Reset()
		m.output = ""
		m.layout()
		return m, m.runCommand(text)
	}

	// Keep the draft so nothing is lost while a reply streams.
	if m.view.Status.Busy() {
		return m.setFeedback(conversation.ErrBusy.Error(), true)
	}

	m.input.Reset()
	m.output = ""
	m.layout()
	m.viewport.GotoBottom()
	return m, m.send(text)
}

// send runs one turn in the background. The turn's context is registered
// with the cancel manager so quitting tears it down.
func (m Model) send(text string) tea.Cmd {
	ctx, cancel := context.WithCancel(m.baseCtx)
	m.cancelMgr.setCancelFunc(cancel)

	ctrl := m.ctrl
	temperature := ctrl.Temperature()
	return func() tea.Msg {
		defer cancel()
		return turnDoneMsg{err: ctrl.Send(ctx, text, temperature)}
	}
}

// runCommand executes a slash command off the update loop.
func (m Model) runCommand(input string) tea.Cmd {
	parsed := m.parser.Parse(input)
	registry, cctx := m.registry, m.cmdCtx
	return func() tea.Msg {
		res, err := registry.Execute(cctx, parsed)
		return commandResultMsg{input: input, result: res, err: err}
	}
}

// intent runs a controller call off the update loop and reports its error.
func (m Model) intent(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{err: fn()}
	}
}

// cycleSession switches to the session delta places away from the active one.
func (m Model) cycleSession(delta int) tea.Cmd {
	sessions := m.view.Sessions
	if len(sessions) < 2 {
		return nil
	}
	idx := 0
	for i, s := range sessions {
		if s.ID == m.view.ActiveSessionID {
			idx = i
			break
		}
	}
	next := sessions[(idx+delta+len(sessions))%len(sessions)].ID

	ctrl := m.ctrl
	return m.intent(func() error { return ctrl.SwitchSession(next) })
}

func (m Model) handleCommandResult(msg commandResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Debug("command failed", zap.String("input", msg.input), zap.Error(msg.err))
		return m.setFeedback(msg.err.Error(), true)
	}

	switch msg.result.Action {
	case commands.ActionQuit:
		return m.quit()
	case commands.ActionRestyle:
		m.restyle(m.ctrl.Preferences().Theme)
		m.refreshViewport(false)
	}

	out := strings.TrimSpace(msg.result.Output)
	if out == "" {
		return m, nil
	}
	if !strings.Contains(out, "\n") && util.RuneLen(out) <= m.width/2 {
		return m.setFeedback(out, false)
	}
	m.output = out
	m.layout()
	return m, nil
}

// setFeedback shows text in the status bar until feedbackTimeout passes.
func (m Model) setFeedback(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.feedback = util.SingleLine(text)
	m.feedbackErr = isErr
	m.feedbackSeq++
	seq := m.feedbackSeq
	return m, tea.Tick(feedbackTimeout, func(time.Time) tea.Msg {
		return clearFeedbackMsg{seq: seq}
	})
}

// =============================================================================
// LAYOUT
// =============================================================================

// restyle rebuilds the theme and the markdown renderer.
func (m *Model) restyle(theme model.Theme) {
	m.theme = styles.NewTheme(theme)
	m.spinner = newSpinner(m.theme, m.view.Status)
	m.renderer.Configure(theme, m.wrapWidth())
	m.cache.reset()
}

func (m Model) sidebarVisible() bool {
	return m.sidebarOpen && m.width >= minSidebarWidth
}

// contentWidth is the width of the message column.
func (m Model) contentWidth() int {
	w := m.width
	if m.sidebarVisible() {
		w -= sidebarWidth
	}
	return max(w, 20)
}

// wrapWidth is the width messages are wrapped at.
func (m Model) wrapWidth() int {
	w := m.contentWidth() - 2
	if m.wordWrap > 0 && m.wordWrap < w {
		w = m.wordWrap
	}
	return max(w, 10)
}

// layout sizes the viewport, input and renderer for the current panels.
func (m *Model) layout() {
	if !m.ready {
		return
	}

	bodyHeight := m.height - headerHeight - inputHeight - statusHeight - m.panelsHeight()
	m.viewport.Width = m.contentWidth()
	m.viewport.Height = max(bodyHeight, 1)
	m.input.Width = max(m.width-len(m.input.Prompt)-4, 10)
	m.help.Width = m.width

	if m.renderer.Width() != m.wrapWidth() {
		m.renderer.Configure(m.theme.Name, m.wrapWidth())
		m.cache.reset()
	}
}

// panelsHeight is the height taken by the optional panels above the input.
func (m Model) panelsHeight() int {
	h := 0
	if m.output != "" {
		h += countLines(m.renderOutput())
	}
	if m.completion.Visible {
		h += min(len(m.completion.Completions), maxCompletions)
	}
	if m.showHelp {
		h += countLines(m.help.View(m.keys))
	}
	return h
}

// refreshViewport re-renders the transcript. It keeps the viewport pinned to
// the bottom when it already was there or when follow is set.
func (m *Model) refreshViewport(follow bool) {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}
