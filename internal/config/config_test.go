// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/elena/internal/model"
)

// clearEnv unsets every override so tests see only file values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "ELENA_API_KEY", "ELENA_MODEL", "ELENA_BASE_URL",
		"ELENA_DATA_DIR", "ELENA_STORAGE", "ELENA_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
	if cfg.Model.DefaultModel != model.DefaultModelID {
		t.Errorf("DefaultModel = %q, want %q", cfg.Model.DefaultModel, model.DefaultModelID)
	}
	if cfg.RequestTimeout() != 2*time.Minute {
		t.Errorf("RequestTimeout() = %v, want 2m", cfg.RequestTimeout())
	}
}

func TestLoadFromPath_MergesOverDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[model]
default_model = "gemini-1.5-pro"
temperature = 1.2

[storage]
backend = "sqlite"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	if cfg.Model.DefaultModel != "gemini-1.5-pro" {
		t.Errorf("DefaultModel = %q, want gemini-1.5-pro", cfg.Model.DefaultModel)
	}
	if cfg.Model.Temperature != 1.2 {
		t.Errorf("Temperature = %v, want 1.2", cfg.Model.Temperature)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	// Untouched sections keep their defaults.
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", cfg.UI.Theme)
	}
	if cfg.Model.RequestTimeoutSecs != 120 {
		t.Errorf("RequestTimeoutSecs = %d, want 120", cfg.Model.RequestTimeoutSecs)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"bad toml", "[model\n", ""},
		{"unknown model", "[model]\ndefault_model = \"gpt-4\"\n", "model.default_model"},
		{"temperature", "[model]\ntemperature = 3.5\n", "model.temperature"},
		{"backend", "[storage]\nbackend = \"redis\"\n", "storage.backend"},
		{"theme", "[ui]\ntheme = \"neon\"\n", "ui.theme"},
		{"log level", "[log]\nlevel = \"trace\"\n", "log.level"},
		{"base url", "[model]\nbase_url = \"not a url\"\n", "model.base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0600))

			_, err := LoadFromPath(path)
			if err == nil {
				t.Fatal("LoadFromPath() error = nil, want error")
			}
			if tt.field == "" {
				return
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error %v is not ValidateErrors", err)
			}
			if verrs[0].Field != tt.field {
				t.Errorf("Field = %q, want %q", verrs[0].Field, tt.field)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("ELENA_MODEL", "gemini-1.5-flash")
	t.Setenv("ELENA_STORAGE", "memory")
	t.Setenv("ELENA_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Model.APIKey != "gemini-key" {
		t.Errorf("APIKey = %q, want gemini-key", cfg.Model.APIKey)
	}
	if cfg.Model.DefaultModel != "gemini-1.5-flash" {
		t.Errorf("DefaultModel = %q, want gemini-1.5-flash", cfg.Model.DefaultModel)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}

	t.Setenv("ELENA_API_KEY", "elena-key")
	cfg.ApplyEnvOverrides()
	if cfg.Model.APIKey != "elena-key" {
		t.Errorf("APIKey = %q, want elena-key to win", cfg.Model.APIKey)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Model.APIKey = "secret"
	cfg.UI.Theme = "cyberpunk"
	require.NoError(t, SaveTo(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	if loaded.Model.APIKey != "secret" {
		t.Errorf("APIKey = %q, want secret", loaded.Model.APIKey)
	}
	if loaded.UI.Theme != "cyberpunk" {
		t.Errorf("Theme = %q, want cyberpunk", loaded.UI.Theme)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Model.APIKey = "AIzaSyABCDEFGH1234"

	red := cfg.Redacted()
	if red.Model.APIKey == cfg.Model.APIKey {
		t.Error("Redacted() left the key visible")
	}
	if !strings.HasPrefix(red.Model.APIKey, "AIza") || !strings.HasSuffix(red.Model.APIKey, "1234") {
		t.Errorf("Redacted key = %q, want prefix and suffix kept", red.Model.APIKey)
	}
	if cfg.Model.APIKey != "AIzaSyABCDEFGH1234" {
		t.Error("Redacted() modified the original")
	}
	if strings.Contains(cfg.String(), "ABCDEFGH") {
		t.Error("String() leaked the API key")
	}
}

func TestPreferences_FromUIDefaults(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "light"
	cfg.Model.Temperature = 0.3

	p := cfg.Preferences()
	if p.Theme != model.ThemeLight {
		t.Errorf("Theme = %q, want light", p.Theme)
	}
	if p.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", p.Temperature)
	}
	if p.Model != model.DefaultModelID {
		t.Errorf("Model = %q, want %q", p.Model, model.DefaultModelID)
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.Storage.DataDir = "/tmp/elena-data"

	if got := cfg.LogFile(); got != filepath.Join("/tmp/elena-data", "elena.log") {
		t.Errorf("LogFile() = %q", got)
	}
	if got := cfg.ExportDir(); got != filepath.Join("/tmp/elena-data", "exports") {
		t.Errorf("ExportDir() = %q", got)
	}
	cfg.Log.File = "/var/log/elena.log"
	if got := cfg.LogFile(); got != "/var/log/elena.log" {
		t.Errorf("LogFile() = %q, want explicit path", got)
	}
}

// TestConfig_ConcurrentAccess tests that Global and SetGlobal can be called
// concurrently. Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	custom := Default()
	custom.Version = "custom-version"
	SetGlobal(custom)

	if got := Global().Version; got != "custom-version" {
		t.Errorf("Global().Version = %q, want custom-version", got)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTo(Default(), path))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, 50*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	require.NoError(t, err)
	w.Start()
	defer w.Close()

	updated := Default()
	updated.UI.Theme = "light"
	require.NoError(t, SaveTo(updated, path))

	select {
	case cfg := <-reloaded:
		if cfg.UI.Theme != "light" {
			t.Errorf("reloaded Theme = %q, want light", cfg.UI.Theme)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload within 5s")
	}
}
