// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across elena.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: display-width aware truncation for the sidebar
//   - SingleLine: NFC-normalize and collapse whitespace
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - ExpandHome: "~" expansion for configured paths
//
// # Usage
//
//	title := util.TruncateRunes(util.SingleLine(text), 50)
//
//	err := util.AtomicWriteFile(path, data, 0600)
package util
