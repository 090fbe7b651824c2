// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/elena/internal/config"
	"github.com/jeranaias/elena/internal/conversation"
	"github.com/jeranaias/elena/internal/gemini"
	"github.com/jeranaias/elena/internal/logging"
	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/session"
	"github.com/jeranaias/elena/internal/storage"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	dataDir    string
	model      string
	verbose    bool
	ephemeral  bool
}

// =============================================================================
// STREAM CLIENT
// =============================================================================

// streamClient is what the app needs from the model client.
type streamClient interface {
	conversation.Streamer
	UpdateConfig(cfg gemini.Config)
}

// newStreamClient builds the model client. Tests replace it.
var newStreamClient = func(cfg gemini.Config, logger *zap.Logger) streamClient {
	return gemini.NewClient(cfg, gemini.WithLogger(logger))
}

// geminiConfig maps the [model] section onto the client configuration.
func geminiConfig(cfg *config.Config) gemini.Config {
	return gemini.Config{
		APIKey:            cfg.Model.APIKey,
		DefaultModel:      cfg.Model.DefaultModel,
		BaseURL:           cfg.Model.BaseURL,
		SystemInstruction: cfg.Model.SystemInstruction,
		RequestTimeout:    cfg.RequestTimeout(),
		RequestsPerMinute: cfg.Model.RequestsPerMinute,
	}
}

// recordingStreamer remembers the error that ended the most recent turn.
// The controller turns stream failures into notices, so this is how line
// mode front ends learn which exit code to use.
type recordingStreamer struct {
	inner conversation.Streamer

	mu      sync.Mutex
	lastErr error
}

func (r *recordingStreamer) StreamChat(ctx context.Context, req gemini.ChatRequest) iter.Seq2[string, error] {
	r.mu.Lock()
	r.lastErr = nil
	r.mu.Unlock()

	seq := r.inner.StreamChat(ctx, req)
	return func(yield func(string, error) bool) {
		for chunk, err := range seq {
			if err != nil {
				r.mu.Lock()
				r.lastErr = err
				r.mu.Unlock()
			}
			if !yield(chunk, err) {
				return
			}
		}
	}
}

// Err returns the error of the last turn, or nil if it succeeded.
func (r *recordingStreamer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// =============================================================================
// CONFIG LOADING
// =============================================================================

// loadConfig loads the config file named by --config, or the default one,
// and applies the flag overrides. A missing file means defaults.
func loadConfig(flags *globalFlags) (*config.Config, string, error) {
	path := flags.configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, "", &ConfigError{Err: err}
		}
		path = p
	}

	var cfg *config.Config
	var err error
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg = config.Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
		err = cfg.Validate()
	} else {
		cfg, err = config.LoadFromPath(path)
	}
	if err != nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}

	if flags.dataDir != "" {
		cfg.Storage.DataDir = flags.dataDir
	}
	if flags.ephemeral {
		cfg.Storage.Backend = string(storage.BackendMemory)
	}
	if flags.model != "" {
		if _, ok := model.LookupModel(flags.model); !ok {
			return nil, path, &ConfigError{Err: fmt.Errorf("%w %q (choose from %v)", conversation.ErrUnknownModel, flags.model, model.ModelIDs())}
		}
		cfg.Model.DefaultModel = flags.model
	}
	if flags.verbose {
		cfg.Log.Level = "debug"
	}

	config.SetGlobal(cfg)
	return cfg, path, nil
}

// =============================================================================
// APP
// =============================================================================

// appOptions selects how a command runs the stack.
type appOptions struct {
	// tui sends logs to the log file whatever --verbose says.
	tui bool

	// ephemeral keeps everything in memory for this run.
	ephemeral bool
}

// app is the wired stack: config, logger, persistence, model client and
// the Conversation Controller.
type app struct {
	cfg     *config.Config
	cfgPath string
	flags   *globalFlags

	logger *zap.Logger
	level  zap.AtomicLevel

	gw       *storage.Gateway
	client   streamClient
	streamer *recordingStreamer
	ctrl     *conversation.Controller
	watcher  *config.Watcher
}

// openApp loads the configuration and builds the stack. The controller is
// started before it returns.
func openApp(flags *globalFlags, opts appOptions) (*app, error) {
	cfg, path, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	if opts.ephemeral {
		cfg.Storage.Backend = string(storage.BackendMemory)
	}

	logger, level, err := newLogger(cfg, flags.verbose && !opts.tui)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	gw, err := openGateway(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	client := newStreamClient(geminiConfig(cfg), logger.Named("gemini"))
	rec := &recordingStreamer{inner: client}
	store := session.NewStore(gw, session.WithLogger(logger.Named("session")))
	ctrl := conversation.New(store, gw, rec,
		conversation.WithLogger(logger.Named("conversation")),
		conversation.WithDefaults(cfg.Preferences()),
	)
	ctrl.Start()

	a := &app{
		cfg:      cfg,
		cfgPath:  path,
		flags:    flags,
		logger:   logger,
		level:    level,
		gw:       gw,
		client:   client,
		streamer: rec,
		ctrl:     ctrl,
	}

	if flags.model != "" && ctrl.Model() != flags.model {
		if err := ctrl.SetModel(flags.model); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// newLogger sends logs to stderr when toStderr is set, otherwise to the log
// file so they never interleave with terminal output.
func newLogger(cfg *config.Config, toStderr bool) (*zap.Logger, zap.AtomicLevel, error) {
	opts := logging.Options{Level: cfg.Log.Level}
	if !toStderr {
		opts.File = cfg.LogFile()
	}
	return logging.New(opts)
}

// openGateway opens the configured backend.
func openGateway(cfg *config.Config, logger *zap.Logger) (*storage.Gateway, error) {
	backend, err := storage.Open(storage.BackendKind(cfg.Storage.Backend), cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	return storage.NewGateway(backend, storage.WithLogger(logger.Named("storage"))), nil
}

// watch hot-reloads the config file. A watcher that cannot start is logged
// and otherwise ignored.
func (a *app) watch() {
	w, err := config.NewWatcher(a.cfgPath, config.DefaultDebounce, a.reload)
	if err != nil {
		a.logger.Debug("config watcher disabled", zap.String("path", a.cfgPath), zap.Error(err))
		return
	}
	a.watcher = w
	w.Start()
}

// reload applies a changed config file. Only the model client settings and
// the log level change at runtime; storage stays where it was opened.
func (a *app) reload(cfg *config.Config, err error) {
	if err != nil {
		a.logger.Warn("config reload failed", zap.String("path", a.cfgPath), zap.Error(err))
		return
	}
	if a.flags.model != "" {
		cfg.Model.DefaultModel = a.flags.model
	}
	if a.flags.verbose {
		cfg.Log.Level = "debug"
	}

	if lvl, err := logging.ParseLevel(cfg.Log.Level); err == nil {
		a.level.SetLevel(lvl)
	}
	a.client.UpdateConfig(geminiConfig(cfg))
	if err := a.ctrl.SetDefaultModel(cfg.Model.DefaultModel); err != nil {
		a.logger.Warn("ignoring configured model", zap.Error(err))
	}
	config.SetGlobal(cfg)
	a.logger.Info("config reloaded", zap.String("path", a.cfgPath))
}

// Close stops the watcher and releases storage.
func (a *app) Close() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if err := a.gw.Close(); err != nil {
		a.logger.Warn("failed to close storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}
