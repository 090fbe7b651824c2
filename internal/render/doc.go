// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns model output into something safe to display.
//
// Model output is untrusted. Terminal rendering goes through glamour, which
// emits only ANSI styling. HTML rendering goes through goldmark and then the
// bluemonday UGC policy, so scripts, event handlers and javascript: links
// never reach an exported page.
//
// # Key Types
//
//   - Terminal: glamour renderer bound to a theme and wrap width
//   - CodeBlock: a fenced code block extracted from markdown
//
// # Usage
//
//	term := render.NewTerminal(model.ThemeDark, 100)
//	fmt.Print(term.Render(msg.Content))
//
//	page := render.HTML(msg.Content)
package render
