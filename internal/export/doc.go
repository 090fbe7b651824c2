// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes sessions to files in several formats.
//
// JSON exports are the canonical format: they round-trip through
// ImportSession and are named elena-session-<id>.json. Markdown and HTML
// exports are for reading and sharing. HTML exports sanitize all message
// content with the render package before embedding it.
//
// # Key Types
//
//   - Exporter: converts a session to bytes in one format
//   - Format: json, md or html
//   - Options: output directory, metadata, timestamps and theme
//
// # Usage
//
//	exp, err := export.ForFormat(export.FormatMarkdown, nil)
//	if err != nil {
//	    return err
//	}
//	path, err := export.WriteFile(session, exp, opts)
package export
