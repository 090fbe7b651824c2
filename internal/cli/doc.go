// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the elena command line.
//
// Commands are built with cobra. Every command that talks to the model
// builds the same stack through openApp: configuration, zap logger,
// persistence gateway, session store, Gemini client and the Conversation
// Controller. Front ends only call controller intents and render the
// snapshots it publishes.
//
// # Commands
//
//	elena                 Full-screen interface (same as "elena tui")
//	elena chat            Line-mode REPL with history and tab completion
//	elena ask <question>  One-shot question, ephemeral unless --save
//	elena sessions ...    list, export, import, rename, delete
//	elena config ...      show, path, init, reset-data
//
// # Global Flags
//
//	--config PATH      Config file (default ~/.elena/config.toml)
//	--data-dir DIR     Override storage.data_dir
//	-m, --model ID     Model to use
//	-v, --verbose      Debug logging
//	--ephemeral        Keep sessions in memory only
//
// # Exit Codes
//
// Execute maps errors to exit codes: 2 for usage errors, 3 for
// configuration errors, 4 to 6 and 8 for model stream failures
// (authentication, network, rate limit, timeout) and 7 when a session
// cannot be found.
package cli
