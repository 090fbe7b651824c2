// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// CODE BLOCKS
// =============================================================================

// CodeBlock is a fenced code block found in markdown.
type CodeBlock struct {
	Language string
	Code     string
}

// CodeBlocks returns every fenced block in content, in order. An unclosed
// trailing fence still yields its block, since streamed text is often cut
// mid-block.
func CodeBlocks(content string) []CodeBlock {
	var (
		blocks   []CodeBlock
		lines    []string
		language string
		inBlock  bool
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				blocks = append(blocks, CodeBlock{Language: language, Code: strings.Join(lines, "\n")})
				lines, language, inBlock = nil, "", false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
				inBlock = true
			}
			continue
		}
		if inBlock {
			lines = append(lines, line)
		}
	}

	if inBlock && len(lines) > 0 {
		blocks = append(blocks, CodeBlock{Language: language, Code: strings.Join(lines, "\n")})
	}
	return blocks
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// Highlight colors code for a 256-color terminal. The language is detected
// when empty or unknown. The input is returned unchanged on failure.
func Highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// DetectLanguage guesses the language of code, or returns "".
func DetectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
