// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/storage"
	"github.com/jeranaias/elena/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete elena configuration.
type Config struct {
	Version string `toml:"version"`

	Model   ModelConfig   `toml:"model"`
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

// ModelConfig contains Gemini API settings.
type ModelConfig struct {
	// APIKey is the Gemini API key. Prefer the GEMINI_API_KEY env var.
	APIKey string `toml:"api_key"`

	// DefaultModel is used until the user picks another model.
	DefaultModel string `toml:"default_model"`

	// Temperature is the default sampling temperature (0.0-2.0).
	Temperature float64 `toml:"temperature"`

	// RequestTimeoutSecs bounds a whole streamed response. 0 disables it.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`

	// RequestsPerMinute caps turns per minute on the client side. 0 = unlimited.
	RequestsPerMinute int `toml:"requests_per_minute"`

	// BaseURL overrides the Gemini endpoint.
	BaseURL string `toml:"base_url"`

	// SystemInstruction replaces the built-in persona prompt.
	SystemInstruction string `toml:"system_instruction"`
}

// StorageConfig selects where sessions are persisted.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory".
	Backend string `toml:"backend"`

	// DataDir holds session data, exports and the log file.
	DataDir string `toml:"data_dir"`
}

// UIConfig contains default display preferences. Saved preferences from
// the UI take precedence.
type UIConfig struct {
	Theme          string `toml:"theme"`
	FontSize       string `toml:"font_size"`
	ShowTimestamps bool   `toml:"show_timestamps"`

	// WordWrap is the markdown render width in columns.
	WordWrap int `toml:"word_wrap"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`

	// File is the log path. Empty means <data_dir>/elena.log.
	File string `toml:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Model: ModelConfig{
			DefaultModel:       model.DefaultModelID,
			Temperature:        model.DefaultTemperature,
			RequestTimeoutSecs: 120,
		},
		Storage: StorageConfig{
			Backend: string(storage.BackendFile),
			DataDir: "~/.elena",
		},
		UI: UIConfig{
			Theme:          string(model.ThemeDark),
			FontSize:       string(model.FontMedium),
			ShowTimestamps: true,
			WordWrap:       100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// ConfigDir returns ~/.elena.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".elena"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the expanded storage directory.
func (c *Config) DataDir() string {
	return util.ExpandHome(c.Storage.DataDir)
}

// LogFile returns the expanded log file path.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return util.ExpandHome(c.Log.File)
	}
	return filepath.Join(c.DataDir(), "elena.log")
}

// ExportDir returns the directory exports are written to by default.
func (c *Config) ExportDir() string {
	return filepath.Join(c.DataDir(), "exports")
}

// RequestTimeout returns the per-turn timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Model.RequestTimeoutSecs) * time.Second
}

// Preferences returns the UI defaults as model preferences.
func (c *Config) Preferences() model.Preferences {
	p := model.DefaultPreferences()
	p.Theme = model.Theme(c.UI.Theme)
	p.FontSize = model.FontSize(c.UI.FontSize)
	p.ShowTimestamps = c.UI.ShowTimestamps
	p.Model = c.Model.DefaultModel
	p.Temperature = c.Model.Temperature
	return p
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the default config file if it exists, otherwise uses defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath reads a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes cfg as TOML with 0600 permissions, since it may hold an API
// key.
func SaveTo(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# elena configuration file\n")
	buf.WriteString("# Environment variables (GEMINI_API_KEY, ELENA_*) override these values.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// DEFAULTS AND OVERRIDES
// =============================================================================

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Model.DefaultModel == "" {
		c.Model.DefaultModel = d.Model.DefaultModel
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = d.Storage.DataDir
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.FontSize == "" {
		c.UI.FontSize = d.UI.FontSize
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = d.UI.WordWrap
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// ApplyEnvOverrides applies GEMINI_API_KEY and ELENA_* variables.
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Model.APIKey = key
	}
	if key := os.Getenv("ELENA_API_KEY"); key != "" {
		c.Model.APIKey = key
	}
	if m := os.Getenv("ELENA_MODEL"); m != "" {
		c.Model.DefaultModel = m
	}
	if u := os.Getenv("ELENA_BASE_URL"); u != "" {
		c.Model.BaseURL = u
	}
	if dir := os.Getenv("ELENA_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if b := os.Getenv("ELENA_STORAGE"); b != "" {
		c.Storage.Backend = b
	}
	if lvl := os.Getenv("ELENA_LOG_LEVEL"); lvl != "" {
		c.Log.Level = lvl
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, ok := model.LookupModel(c.Model.DefaultModel); !ok {
		errs = append(errs, ValidationError{
			Field:   "model.default_model",
			Message: fmt.Sprintf("unknown model '%s', must be one of: %s", c.Model.DefaultModel, strings.Join(model.ModelIDs(), ", ")),
		})
	}
	if err := model.ValidateTemperature(c.Model.Temperature); err != nil {
		errs = append(errs, ValidationError{Field: "model.temperature", Message: err.Error()})
	}
	if c.Model.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "model.request_timeout_secs", Message: "must not be negative"})
	}
	if c.Model.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{Field: "model.requests_per_minute", Message: "must not be negative"})
	}
	if c.Model.BaseURL != "" {
		if u, err := url.Parse(c.Model.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{Field: "model.base_url", Message: fmt.Sprintf("invalid URL '%s'", c.Model.BaseURL)})
		}
	}

	switch storage.BackendKind(c.Storage.Backend) {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	if _, err := model.ParseTheme(c.UI.Theme); err != nil {
		errs = append(errs, ValidationError{Field: "ui.theme", Message: err.Error()})
	}
	if _, err := model.ParseFontSize(c.UI.FontSize); err != nil {
		errs = append(errs, ValidationError{Field: "ui.font_size", Message: err.Error()})
	}
	if c.UI.WordWrap < 20 || c.UI.WordWrap > 400 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: fmt.Sprintf("must be 20-400, got %d", c.UI.WordWrap)})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

// Redacted returns a copy with the API key masked.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Model.APIKey != "" {
		key := cp.Model.APIKey
		if len(key) > 8 {
			cp.Model.APIKey = key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
		} else {
			cp.Model.APIKey = strings.Repeat("*", len(key))
		}
	}
	return &cp
}

// String renders the redacted config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.Redacted()); err != nil {
		return fmt.Sprintf("<config encode error: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON
// =============================================================================

var (
	globalConfig   *Config
	globalConfigMu sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalConfigMu.RLock()
	cfg := globalConfig
	globalConfigMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	if globalConfig == nil {
		loaded, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			loaded = Default()
		}
		globalConfig = loaded
	}
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ReloadGlobal reloads the configuration from disk and replaces the global.
// The previous config is kept on error.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// ResetGlobalForTesting clears the global so the next Global call reloads.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
}
