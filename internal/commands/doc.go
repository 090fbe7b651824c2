// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI and
// the line-mode REPL.
//
// Commands map user input such as "/switch 2" onto Conversation Controller
// intents. Handlers return a Result instead of writing to the terminal, so
// each front end decides how to show it.
//
// # Key Types
//
//   - Registry: command registry with all built-in commands
//   - Parser: splits input into a command and quoted arguments
//   - Context: the controller and I/O hooks handlers act on
//   - Completer: tab completion for commands and arguments
//
// # Built-in Commands
//
//   - /new, /sessions, /switch, /delete, /clear, /rename: session lifecycle
//   - /export, /import: JSON, Markdown and HTML files
//   - /model, /temp: model selection and sampling temperature
//   - /theme, /timestamps, /code: display preferences and code blocks
//   - /help, /quit
//
// # Usage
//
//	registry := commands.NewRegistry()
//	parsed := commands.NewParser(registry).Parse(input)
//	if parsed.IsCommand {
//	    res, err := registry.Execute(commands.NewContext(ctrl, dir), parsed)
//	}
package commands
