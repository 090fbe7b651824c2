// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult is one input line split into a command and its arguments.
type ParseResult struct {
	// IsCommand reports whether the line starts with "/".
	IsCommand bool

	// Command is the registered command, nil when the name is unknown.
	Command *Command

	// CommandName is the lowercased first token, e.g. "/rename".
	CommandName string

	// Args are the remaining tokens with quotes removed.
	Args []string

	// RawInput is the trimmed line.
	RawInput string

	// RawArgs is everything after the command name, quotes intact.
	RawArgs string

	// Error is set for unknown commands.
	Error error
}

// =============================================================================
// PARSER
// =============================================================================

// Parser resolves slash commands against a registry.
type Parser struct {
	registry *Registry
}

// NewParser creates a parser for registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse splits input into command and arguments. Lines that do not start
// with "/" come back with IsCommand false and nothing else set.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	res := ParseResult{RawInput: input, IsCommand: IsCommand(input)}
	if !res.IsCommand {
		return res
	}

	toks := tokenize(input)
	if len(toks) == 0 {
		return res
	}
	res.CommandName = strings.ToLower(toks[0].text)
	for _, tok := range toks[1:] {
		res.Args = append(res.Args, tok.text)
	}
	if len(toks) > 1 {
		res.RawArgs = input[toks[1].start:]
	}

	if res.Command = p.registry.Get(res.CommandName); res.Command == nil {
		res.Error = &ValidationError{
			Command:  res.CommandName,
			Message:  "unknown command",
			Expected: "see /help",
		}
	}
	return res
}

// ParseArgs splits s into arguments the way command lines are split.
func ParseArgs(s string) []string {
	toks := tokenize(s)
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.text
	}
	return out
}

// IsCommand reports whether input is a slash command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ExtractCommandName returns the command word of input, or "" for plain
// text. "/model gemini-1.5-pro" gives "/model".
func ExtractCommandName(input string) string {
	input = strings.TrimSpace(input)
	if !IsCommand(input) {
		return ""
	}
	name, _, _ := strings.Cut(input, " ")
	if i := strings.IndexFunc(name, unicode.IsSpace); i >= 0 {
		name = name[:i]
	}
	return name
}

// =============================================================================
// TOKENIZER
// =============================================================================

// token is one argument and the byte offset where it starts in the line.
type token struct {
	text  string
	start int
}

// tokenize splits s on unquoted whitespace. Single and double quotes group
// words and are dropped; inside quotes a backslash escapes a quote or
// another backslash. An unterminated quote runs to the end of the line.
func tokenize(s string) []token {
	var (
		toks    []token
		cur     strings.Builder
		start   = -1
		quote   rune
		escaped bool
	)
	flush := func() {
		if start >= 0 {
			toks = append(toks, token{text: cur.String(), start: start})
		}
		cur.Reset()
		start = -1
	}

	for i, r := range s {
		if start < 0 && !unicode.IsSpace(r) {
			start = i
		}
		switch {
		case escaped:
			if r != '"' && r != '\'' && r != '\\' {
				cur.WriteByte('\\')
			}
			cur.WriteRune(r)
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		case quote == 0 && unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteByte('\\')
	}
	flush()
	return toks
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateArgs checks args against cmd's required and enum arguments.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}
	for i, def := range cmd.Args {
		if i >= len(args) {
			if def.Required {
				return &ValidationError{
					Command:  cmd.Name,
					Arg:      def.Name,
					Message:  "required argument missing",
					Expected: def.Description,
				}
			}
			continue
		}
		if def.Type != ArgTypeEnum || len(def.Values) == 0 {
			continue
		}
		if !slices.ContainsFunc(def.Values, func(v string) bool { return strings.EqualFold(v, args[i]) }) {
			return &ValidationError{
				Command:  cmd.Name,
				Arg:      def.Name,
				Message:  "invalid value",
				Got:      args[i],
				Expected: strings.Join(def.Values, ", "),
			}
		}
	}
	return nil
}

// ValidationError reports a bad command name or argument.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Command, e.Message)
	if e.Arg != "" {
		fmt.Fprintf(&b, " for argument '%s'", e.Arg)
	}
	if e.Got != "" {
		fmt.Fprintf(&b, " (got: %s)", e.Got)
	}
	if e.Expected != "" {
		fmt.Fprintf(&b, " - expected: %s", e.Expected)
	}
	return b.String()
}
