// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/util"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completion is one candidate for tab completion.
type Completion struct {
	Value       string
	Display     string
	Description string
	Score       int
}

// SessionInfo describes a session for completion.
type SessionInfo struct {
	ID    string
	Title string
}

// Completer handles tab completion for commands and arguments.
type Completer struct {
	registry *Registry

	// SessionsFn returns the current sessions. Nil disables session completion.
	SessionsFn func() []SessionInfo
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for the last token of input.
func (c *Completer) Complete(input string) []Completion {
	trimmed := strings.TrimLeft(input, " ")
	if !strings.HasPrefix(trimmed, "/") {
		return nil
	}

	parts := ParseArgs(trimmed)
	if len(parts) == 0 {
		return c.completeCommands("")
	}
	if len(parts) == 1 && !strings.HasSuffix(trimmed, " ") {
		return c.completeCommands(parts[0])
	}

	cmd := c.registry.Get(strings.ToLower(parts[0]))
	if cmd == nil {
		return nil
	}

	argIndex := len(parts) - 2
	partial := parts[len(parts)-1]
	if strings.HasSuffix(trimmed, " ") {
		argIndex++
		partial = ""
	}
	return c.completeArg(cmd, argIndex, partial)
}

// Lines returns whole-line candidates for line editors that replace the
// entire input, such as liner.
func (c *Completer) Lines(line string) []string {
	completions := c.Complete(line)
	if len(completions) == 0 {
		return nil
	}

	head := line
	if !strings.HasSuffix(line, " ") {
		if idx := strings.LastIndexFunc(line, func(r rune) bool { return r == ' ' }); idx >= 0 {
			head = line[:idx+1]
		} else {
			head = ""
		}
	}

	lines := make([]string, len(completions))
	for i, comp := range completions {
		lines[i] = head + comp.Value
	}
	return lines
}

// completeCommands matches command names and aliases. A bare "/" lists
// primary names only; aliases rank below the name they stand for.
func (c *Completer) completeCommands(partial string) []Completion {
	partial = strings.ToLower(partial)

	var out []Completion
	for _, cmd := range c.registry.All() {
		if cmd.Hidden {
			continue
		}
		if strings.HasPrefix(cmd.Name, partial) {
			out = append(out, Completion{
				Value:       cmd.Name,
				Display:     cmd.Name,
				Description: cmd.Description,
				Score:       score(cmd.Name, partial),
			})
		}
		if partial == "/" {
			continue
		}
		for _, alias := range cmd.Aliases {
			if !strings.HasPrefix(alias, partial) {
				continue
			}
			out = append(out, Completion{
				Value:       alias,
				Display:     fmt.Sprintf("%s -> %s", alias, cmd.Name),
				Description: cmd.Description,
				Score:       score(alias, partial) - 10,
			})
		}
	}
	return ranked(out)
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

func (c *Completer) completeArg(cmd *Command, argIndex int, partial string) []Completion {
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}

	switch arg := cmd.Args[argIndex]; arg.Type {
	case ArgTypeModel:
		return completeFromList(model.ModelIDs(), partial)
	case ArgTypeSession:
		return c.completeSessions(partial)
	case ArgTypeFile:
		return completeFiles(partial)
	case ArgTypeEnum:
		return completeFromList(arg.Values, partial)
	default:
		return nil
	}
}

func (c *Completer) completeSessions(partial string) []Completion {
	if c.SessionsFn == nil {
		return nil
	}

	var completions []Completion
	lower := strings.ToLower(partial)
	for _, s := range c.SessionsFn() {
		idMatch := strings.HasPrefix(strings.ToLower(s.ID), lower)
		titleMatch := lower != "" && strings.Contains(strings.ToLower(s.Title), lower)
		if !idMatch && !titleMatch {
			continue
		}
		rank := score(s.ID, lower)
		if titleMatch && !idMatch {
			rank -= 5
		}
		completions = append(completions, Completion{
			Value:   s.ID,
			Display: s.ID + " - " + util.TruncateRunes(s.Title, 30),
			Score:   rank,
		})
	}

	return ranked(completions)
}

const maxFileCompletions = 20

// completeFiles completes paths, listing directories first.
func completeFiles(partial string) []Completion {
	expanded := util.ExpandHome(partial)
	dir, prefix := filepath.Dir(expanded), filepath.Base(expanded)
	if partial == "" || strings.HasSuffix(partial, string(os.PathSeparator)) {
		dir, prefix = expanded, ""
		if dir == "" {
			dir = "."
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var completions []Completion
	lower := strings.ToLower(prefix)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(strings.ToLower(name), lower) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(lower, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		rank := score(name, lower)
		if entry.IsDir() {
			path += string(os.PathSeparator)
			rank += 5
		}
		completions = append(completions, Completion{Value: path, Display: name, Score: rank})
	}

	completions = ranked(completions)
	if len(completions) > maxFileCompletions {
		completions = completions[:maxFileCompletions]
	}
	return completions
}

func completeFromList(values []string, partial string) []Completion {
	lower := strings.ToLower(partial)
	var out []Completion
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), lower) {
			out = append(out, Completion{Value: v, Display: v, Score: score(v, lower)})
		}
	}
	return ranked(out)
}

// =============================================================================
// RANKING
// =============================================================================

// score ranks a candidate against what was typed: exact matches first, then
// prefix matches, shorter candidates ahead of longer ones.
func score(candidate, typed string) int {
	candidate, typed = strings.ToLower(candidate), strings.ToLower(typed)
	switch {
	case candidate == typed:
		return 200
	case strings.HasPrefix(candidate, typed):
		return 170 - len(candidate) - len(candidate)/2
	default:
		return 100 - len(candidate)/2
	}
}

// ranked sorts by descending score, then by value.
func ranked(cs []Completion) []Completion {
	slices.SortFunc(cs, func(a, b Completion) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
	return cs
}

// =============================================================================
// COMPLETION STATE
// =============================================================================

// CompletionState holds the state for cycling through completions.
type CompletionState struct {
	OriginalInput string
	Completions   []Completion
	Selected      int
	Visible       bool
}

// NewCompletionState creates a new completion state.
func NewCompletionState() *CompletionState {
	return &CompletionState{Selected: -1}
}

// Update replaces the candidates and selects the first one.
func (cs *CompletionState) Update(input string, completions []Completion) {
	cs.OriginalInput = input
	cs.Completions = completions
	cs.Selected = 0
	cs.Visible = len(completions) > 0
}

// Next moves to the next completion.
func (cs *CompletionState) Next() {
	if len(cs.Completions) == 0 {
		return
	}
	cs.Selected = (cs.Selected + 1) % len(cs.Completions)
}

// Accept returns the selected completion value, or empty if none selected.
func (cs *CompletionState) Accept() string {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		return ""
	}
	return cs.Completions[cs.Selected].Value
}

// Clear clears the completion state.
func (cs *CompletionState) Clear() {
	*cs = CompletionState{Selected: -1}
}
