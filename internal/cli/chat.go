// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat for elena.
//
// Command: chat
// Short:   Chat in a plain REPL instead of the full-screen interface
//
// Examples:
//   elena chat                          Continue the active session
//   elena chat --model gemini-1.5-pro   Use a specific model
//   elena chat --ephemeral              Keep nothing on disk
//
// Interactive Commands (during chat):
//   Every slash command of the full-screen interface, see /help.
//   Tab                 Complete commands and arguments
//   Ctrl+C              Cancel the reply in flight
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/elena/internal/commands"
	"github.com/jeranaias/elena/internal/conversation"
	"github.com/jeranaias/elena/internal/render"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineEditor provides input history and line editing for interactive chat.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

// newLineEditor creates a line editor that keeps its history in dataDir.
func newLineEditor(dataDir string, completer *commands.Completer) *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer.Lines)

	e := &lineEditor{
		line:        line,
		historyFile: filepath.Join(dataDir, "chat_history"),
	}
	e.loadHistory()
	return e
}

func (e *lineEditor) loadHistory() {
	if f, err := os.Open(e.historyFile); err == nil {
		_, _ = e.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (e *lineEditor) ReadInput(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (e *lineEditor) Close() {
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = e.line.WriteHistory(f)
			f.Close()
		}
	}
	e.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// repl runs slash commands and turns for the line-mode chat.
type repl struct {
	ctrl     *conversation.Controller
	registry *commands.Registry
	parser   *commands.Parser
	cmdCtx   *commands.Context
	renderer *render.Terminal
	printer  *turnPrinter
	out      io.Writer
	errOut   io.Writer
}

// newREPL wires a REPL to ctrl. A nil renderer streams raw text.
func newREPL(ctrl *conversation.Controller, exportDir string, renderer *render.Terminal, out, errOut io.Writer) *repl {
	registry := commands.NewRegistry()
	r := &repl{
		ctrl:     ctrl,
		registry: registry,
		parser:   commands.NewParser(registry),
		cmdCtx:   commands.NewContext(ctrl, exportDir),
		renderer: renderer,
		printer:  newTurnPrinter(out, renderer),
		out:      out,
		errOut:   errOut,
	}
	ctrl.Subscribe(r.printer.onView)
	return r
}

// completer returns tab completion over the REPL's commands and sessions.
func (r *repl) completer() *commands.Completer {
	c := commands.NewCompleter(r.registry)
	c.SessionsFn = func() []commands.SessionInfo {
		sessions := r.ctrl.View().Sessions
		infos := make([]commands.SessionInfo, len(sessions))
		for i, s := range sessions {
			infos[i] = commands.SessionInfo{ID: s.ID, Title: s.Title}
		}
		return infos
	}
	return c
}

// banner prints the greeting with the active model and session.
func (r *repl) banner() {
	v := r.ctrl.View()
	fmt.Fprintln(r.out, welcomeStyle.Render("ELENA")+" "+infoStyle.Render(fmt.Sprintf("(%s, temp %.1f)", v.Preferences.Model, v.Preferences.Temperature)))
	if s, ok := v.ActiveSession(); ok {
		fmt.Fprintln(r.out, infoStyle.Render(fmt.Sprintf("Session: %s (%d messages)", s.Title, len(v.Messages))))
	}
	fmt.Fprintln(r.out, infoStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(r.out)
}

// handle processes one input line. It returns false once the user quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	text := strings.TrimSpace(line)
	if text == "" {
		return true
	}
	if commands.IsCommand(text) {
		return r.command(text)
	}
	r.turn(ctx, text)
	return true
}

func (r *repl) command(text string) bool {
	res, err := r.registry.Execute(r.cmdCtx, r.parser.Parse(text))
	if err != nil {
		fmt.Fprintln(r.errOut, ErrorStyle.Render("[ERROR]")+" "+err.Error())
		return true
	}

	if out := strings.TrimSpace(res.Output); out != "" {
		if r.renderer != nil {
			out = strings.TrimRight(r.renderer.Render(out), "\n")
		}
		fmt.Fprintln(r.out, out)
	}

	switch res.Action {
	case commands.ActionQuit:
		return false
	case commands.ActionRestyle:
		if r.renderer != nil {
			r.renderer.Configure(r.ctrl.Preferences().Theme, r.renderer.Width())
		}
	}
	return true
}

// turn sends text and prints the reply. Ctrl+C cancels only this turn.
func (r *repl) turn(ctx context.Context, text string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprint(r.out, labelStyle.Render("ELENA")+" ")
	r.printer.begin()
	if err := r.ctrl.Send(ctx, text, r.ctrl.Temperature()); err != nil {
		r.printer.end(conversation.View{})
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.errOut, ErrorStyle.Render("[ERROR]")+" "+err.Error())
		return
	}
	if notice := r.printer.end(r.ctrl.View()); notice != "" {
		fmt.Fprintln(r.out, warningStyle.Render(notice))
	}
	fmt.Fprintln(r.out)
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCommand(flags *globalFlags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in a line-mode REPL",
		Long: `Starts an interactive REPL on the active session.

Input history is kept in <data_dir>/chat_history. Every slash command of the
full-screen interface works here too; Tab completes them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, flags, raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "stream replies as plain text instead of rendered markdown")
	return cmd
}

func runChat(cmd *cobra.Command, flags *globalFlags, raw bool) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	a, err := openApp(flags, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	a.watch()

	out := cmd.OutOrStdout()
	var renderer *render.Terminal
	if !raw && isTerminalWriter(out) {
		renderer = render.NewTerminal(a.ctrl.Preferences().Theme, min(GetTerminalWidth()-2, a.cfg.UI.WordWrap))
	}

	r := newREPL(a.ctrl, a.cfg.ExportDir(), renderer, out, cmd.ErrOrStderr())
	editor := newLineEditor(a.cfg.DataDir(), r.completer())
	defer editor.Close()

	r.banner()
	// liner measures the prompt itself, so it must stay free of escapes.
	prompt := "you> "

	ctx := cmd.Context()
	for {
		input, err := editor.ReadInput(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(out, infoStyle.Render("Use /quit or Ctrl+D to exit."))
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		if !r.handle(ctx, input) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
