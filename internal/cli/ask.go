// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command for elena.
//
// Command: ask <question>
// Short:   Ask a single question
//
// Examples:
//   elena ask "What is a goroutine?"
//   elena ask --file main.go "Review this code"
//   git diff | elena ask - "Write a commit message for this diff"
//   elena ask --save "Plan my week"
//
// Flags:
//   -f, --file FILE     Include file content with the question
//   --save              Keep the exchange as a new saved session
//   --raw               Stream plain text even on a terminal

package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/elena/internal/render"
)

// MaxFileSize is the largest file --file and stdin will include (50KB).
const MaxFileSize = 50 * 1024

// askOptions holds the ask command's own flags.
type askOptions struct {
	file string
	save bool
	raw  bool
}

func newAskCommand(flags *globalFlags) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the reply",
		Long: `Sends one question and streams the reply to stdout.

The exchange happens in a throwaway in-memory session unless --save is given,
in which case it is kept as a new session. A "-" argument is replaced by
stdin. Replies are rendered as markdown on a terminal and streamed as plain
text otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, flags, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "include file content with the question")
	cmd.Flags().BoolVar(&opts.save, "save", false, "keep the exchange as a new session")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "stream plain text even on a terminal")
	return cmd
}

func runAsk(cmd *cobra.Command, flags *globalFlags, opts *askOptions, args []string) error {
	prompt, err := buildPrompt(cmd.InOrStdin(), args, opts.file)
	if err != nil {
		return err
	}

	a, err := openApp(flags, appOptions{ephemeral: !opts.save})
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.save {
		if _, err := a.ctrl.NewSession(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	var renderer *render.Terminal
	if !opts.raw && isTerminalWriter(out) {
		renderer = render.NewTerminal(a.ctrl.Preferences().Theme, min(GetTerminalWidth()-2, a.cfg.UI.WordWrap))
	}
	printer := newTurnPrinter(out, renderer)
	a.ctrl.Subscribe(printer.onView)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	printer.begin()
	if err := a.ctrl.Send(ctx, prompt, a.ctrl.Temperature()); err != nil {
		return err
	}
	if notice := printer.end(a.ctrl.View()); notice != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render(notice))
		if err := a.streamer.Err(); err != nil {
			return &reportedError{err: err}
		}
	}
	return nil
}

// buildPrompt joins the arguments, replaces "-" with stdin and appends the
// --file content as a fenced block.
func buildPrompt(stdin io.Reader, args []string, file string) (string, error) {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != "-" {
			parts = append(parts, arg)
			continue
		}
		data, err := readLimited(stdin, "stdin")
		if err != nil {
			return "", err
		}
		parts = append(parts, string(data))
	}
	prompt := strings.TrimSpace(strings.Join(parts, " "))

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return "", &CommandError{Command: "ask", Action: "read file", Err: err}
		}
		defer f.Close()
		data, err := readLimited(f, file)
		if err != nil {
			return "", err
		}
		lang := strings.TrimPrefix(filepath.Ext(file), ".")
		prompt += fmt.Sprintf("\n\n%s:\n```%s\n%s\n```", filepath.Base(file), lang, strings.TrimRight(string(data), "\n"))
	}

	if strings.TrimSpace(prompt) == "" {
		return "", &CommandError{Command: "ask", Action: "build prompt", Err: fmt.Errorf("question is empty")}
	}
	return prompt, nil
}

// readLimited reads r, failing when it holds more than MaxFileSize bytes.
func readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, &CommandError{Command: "ask", Action: "read " + name, Err: err}
	}
	if len(data) > MaxFileSize {
		return nil, &CommandError{Command: "ask", Action: "read " + name, Err: fmt.Errorf("larger than %d bytes", MaxFileSize)}
	}
	return data, nil
}

// reportedError marks an error whose message was already shown to the user.
// Execute only turns it into an exit code.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }
