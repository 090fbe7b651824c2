// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/elena/internal/conversation"
	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/ui/styles"
	"github.com/jeranaias/elena/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting ELENA..."
	}

	body := m.viewport.View()
	if m.sidebarVisible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(m.viewport.Height), body)
	}

	parts := []string{m.renderHeader(), body}
	if m.output != "" {
		parts = append(parts, m.renderOutput())
	}
	if m.completion.Visible {
		parts = append(parts, m.renderCompletions())
	}
	if m.showHelp {
		parts = append(parts, m.help.View(m.keys))
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("ELENA")

	modelName := m.view.Preferences.Model
	if info, ok := model.LookupModel(modelName); ok {
		modelName = info.Name
	}
	info := fmt.Sprintf("%s  temp %.1f", modelName, m.view.Preferences.Temperature)
	if s, ok := m.view.ActiveSession(); ok {
		info = s.Title + "  |  " + info
	}

	avail := m.width - lipgloss.Width(brand) - 4
	line := brand + "  " + m.theme.HeaderInfo.Render(util.TruncateWidth(info, avail))
	return m.theme.Header.Width(m.width).MaxHeight(headerHeight).Render(line)
}

// =============================================================================
// SIDEBAR
// =============================================================================

// renderSidebar lists sessions, two lines each, in store order. When the list
// is taller than the panel it is scrolled so the active session stays visible.
func (m Model) renderSidebar(height int) string {
	inner := sidebarWidth - 4 // border and padding
	rows := max(height-2, 1)

	lines := []string{m.theme.SidebarTitle.Render(fmt.Sprintf("Sessions (%d)", len(m.view.Sessions)))}
	perItem := 2
	visible := max((rows-2)/perItem, 1)

	start := 0
	for i, s := range m.view.Sessions {
		if s.ID == m.view.ActiveSessionID && i >= visible {
			start = i - visible + 1
		}
	}

	for i := start; i < len(m.view.Sessions) && i < start+visible; i++ {
		s := m.view.Sessions[i]
		marker, style := "  ", m.theme.SessionItem
		if s.ID == m.view.ActiveSessionID {
			marker, style = styles.Indicators.Active+" ", m.theme.SessionItemActive
		}
		title := runewidth.Truncate(util.SingleLine(s.Title), inner-2, "...")
		lines = append(lines, style.Render(marker+title))

		meta := fmt.Sprintf("  %d msgs  %s", len(s.Messages), s.UpdatedAt.Time().Format("Jan 2 15:04"))
		lines = append(lines, m.theme.SessionMeta.Render(runewidth.Truncate(meta, inner, "")))
	}

	return m.theme.Sidebar.
		Width(sidebarWidth - 2).
		Height(rows).
		MaxHeight(height).
		Render(strings.Join(lines, "\n"))
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages renders the whole transcript of the active session.
func (m Model) renderMessages() string {
	if len(m.view.Messages) == 0 {
		return m.theme.Muted.Render("No messages yet.")
	}

	width := m.wrapWidth()
	blocks := make([]string, 0, len(m.view.Messages))
	for _, msg := range m.view.Messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg model.Message, width int) string {
	header := m.labelStyle(msg.Role).Render(msg.Role.DisplayName())
	if m.view.Preferences.ShowTimestamps {
		header += " " + m.theme.Timestamp.Render(msg.CreatedAt.Time().Format("15:04"))
	}

	var body string
	switch msg.Role {
	case model.RoleSystem:
		body = m.theme.SystemNotice.Width(width).Render(msg.Content)
	case model.RoleAssistant:
		body = m.renderAssistant(msg, width)
	default:
		body = lipgloss.NewStyle().Width(width).Render(msg.Content)
	}
	return header + "\n" + body
}

// renderAssistant renders finalized replies as markdown. A reply that is
// still streaming is shown as wrapped plain text with a cursor, since partial
// markdown renders unpredictably.
func (m Model) renderAssistant(msg model.Message, width int) string {
	if msg.Streaming {
		if msg.Content == "" {
			return m.spinner.View() + " " + m.theme.Muted.Render("thinking")
		}
		return lipgloss.NewStyle().Width(width).Render(msg.Content) +
			m.theme.StreamCursor.Render(styles.Indicators.Cursor)
	}

	if out, ok := m.cache.get(msg); ok {
		return out
	}
	out := strings.TrimRight(m.renderer.Render(msg.Content), "\n")
	m.cache.put(msg, out)
	return out
}

func (m Model) labelStyle(role model.Role) lipgloss.Style {
	switch role {
	case model.RoleUser:
		return m.theme.UserLabel
	case model.RoleAssistant:
		return m.theme.AssistantLabel
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(m.theme.Palette.System)
	}
}

// =============================================================================
// PANELS
// =============================================================================

// renderOutput shows the last command output, capped to a third of the
// screen.
func (m Model) renderOutput() string {
	out := strings.TrimRight(m.renderer.Render(m.output), "\n")
	limit := max(m.height/3, 3)
	lines := strings.Split(out, "\n")
	if len(lines) > limit {
		lines = append(lines[:limit-1], m.theme.Muted.Render(fmt.Sprintf("... %d more lines (Esc to dismiss)", len(lines)-limit+1)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCompletions() string {
	items := m.completion.Completions
	start := 0
	if m.completion.Selected >= maxCompletions {
		start = m.completion.Selected - maxCompletions + 1
	}

	var lines []string
	for i := start; i < len(items) && i < start+maxCompletions; i++ {
		c := items[i]
		text := c.Display
		if c.Description != "" {
			text += "  " + c.Description
		}
		text = util.TruncateWidth(text, m.width-2)
		if i == m.completion.Selected {
			lines = append(lines, m.theme.CompletionSelected.Render(text))
		} else {
			lines = append(lines, m.theme.CompletionItem.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderInput() string {
	return m.theme.InputFocused.Width(max(m.width-2, 10)).Render(m.input.View())
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	var state string
	switch m.view.Status {
	case conversation.StatusIdle:
		state = m.theme.StatusIdle.Render(styles.Indicators.Idle)
	case conversation.StatusError:
		state = m.theme.StatusError.Render(styles.Indicators.Error)
	default:
		state = m.spinner.View() + " " + m.theme.StatusBusy.Render(m.view.Status.String())
	}

	right := m.theme.Muted.Render("F1 help")

	var middle string
	if m.feedback != "" {
		style := m.theme.Feedback
		if m.feedbackErr {
			style = m.theme.FeedbackError
		}
		avail := m.width - lipgloss.Width(state) - lipgloss.Width(right) - 6
		middle = style.Render(util.TruncateWidth(m.feedback, avail))
	}

	gap := m.width - lipgloss.Width(state) - lipgloss.Width(middle) - lipgloss.Width(right) - 4
	line := state + "  " + middle + strings.Repeat(" ", max(gap, 0)) + right
	return m.theme.StatusBar.Width(m.width).MaxHeight(statusHeight).Render(line)
}

// countLines returns the number of lines s occupies.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
