// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads elena's TOML configuration.
//
// Configuration comes from ~/.elena/config.toml (or an explicit path),
// falls back to built-in defaults, and is then overridden by environment
// variables:
//
//   - GEMINI_API_KEY, ELENA_API_KEY: model.api_key (ELENA_API_KEY wins)
//   - ELENA_MODEL: model.default_model
//   - ELENA_BASE_URL: model.base_url
//   - ELENA_DATA_DIR: storage.data_dir
//   - ELENA_STORAGE: storage.backend
//   - ELENA_LOG_LEVEL: log.level
//
// # Key Types
//
//   - Config: the complete configuration
//   - ValidationError, ValidateErrors: field-level validation failures
//   - Watcher: reloads the file when it changes on disk
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Model.DefaultModel)
package config
