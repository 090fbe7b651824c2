// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// =============================================================================
// HTML RENDERER
// =============================================================================

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

	// policy is safe for concurrent use once built.
	policy = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")
		p.RequireNoReferrerOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		return p
	}()
)

// HTML converts markdown to sanitized HTML. Content that fails to convert is
// escaped and wrapped in a <pre> block instead.
func HTML(content string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return "<pre>" + html.EscapeString(content) + "</pre>"
	}
	return policy.Sanitize(buf.String())
}

// Sanitize strips anything outside the UGC policy from an HTML fragment.
func Sanitize(fragment string) string {
	return policy.Sanitize(fragment)
}
