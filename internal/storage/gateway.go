// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jeranaias/elena/internal/model"
)

// Storage keys. They match the browser client's localStorage keys so data
// exported from either side is recognizable.
const (
	KeySessions      = "elena-chat-sessions"
	KeyActiveSession = "elena-current-session"
	KeyPreferences   = "elena-preferences"

	// KeySessionsBackup keeps the last session blob that failed to load
	// cleanly, so dropped records can be recovered by hand.
	KeySessionsBackup = KeySessions + ".bak"
)

// AllKeys lists every key the gateway writes.
var AllKeys = []string{KeySessions, KeyActiveSession, KeyPreferences, KeySessionsBackup}

// =============================================================================
// PERSISTENCE FAILURE
// =============================================================================

// PersistenceFailure describes a save or load that did not succeed. It is
// only ever reported on the gateway's side channel.
type PersistenceFailure struct {
	Op  string // "save", "load", "delete"
	Key string
	Err error
}

// Error implements error.
func (f *PersistenceFailure) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", f.Op, f.Key, f.Err)
}

// Unwrap returns the underlying error.
func (f *PersistenceFailure) Unwrap() error {
	return f.Err
}

// =============================================================================
// GATEWAY
// =============================================================================

// Gateway is the typed persistence layer. All methods are synchronous and
// safe for concurrent use.
type Gateway struct {
	backend   Backend
	logger    *zap.Logger
	onFailure func(*PersistenceFailure)

	failures atomic.Int64
	mu       sync.Mutex
	lastErr  *PersistenceFailure
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used to report failures.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithFailureHook registers a callback invoked after every failure.
func WithFailureHook(fn func(*PersistenceFailure)) Option {
	return func(g *Gateway) {
		g.onFailure = fn
	}
}

// NewGateway wraps a backend.
func NewGateway(backend Backend, opts ...Option) *Gateway {
	g := &Gateway{
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Failures returns the number of failures reported so far.
func (g *Gateway) Failures() int64 {
	return g.failures.Load()
}

// LastFailure returns the most recent failure, or nil.
func (g *Gateway) LastFailure() *PersistenceFailure {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// Close closes the backend.
func (g *Gateway) Close() error {
	return g.backend.Close()
}

func (g *Gateway) report(op, key string, err error) {
	f := &PersistenceFailure{Op: op, Key: key, Err: err}
	g.failures.Add(1)
	g.mu.Lock()
	g.lastErr = f
	g.mu.Unlock()

	g.logger.Warn("persistence failure",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
	if g.onFailure != nil {
		g.onFailure(f)
	}
}

// guard turns a panic inside a gateway call into a reported failure.
func (g *Gateway) guard(op, key string) {
	if r := recover(); r != nil {
		g.report(op, key, fmt.Errorf("panic: %v", r))
	}
}

func (g *Gateway) put(key string, v any) {
	defer g.guard("save", key)

	data, err := json.Marshal(v)
	if err != nil {
		g.report("save", key, err)
		return
	}
	if err := g.backend.Put(key, data); err != nil {
		g.report("save", key, err)
	}
}

func (g *Gateway) get(key string) ([]byte, bool) {
	data, found, err := g.backend.Get(key)
	if err != nil {
		g.report("load", key, err)
		return nil, false
	}
	return data, found
}

// =============================================================================
// SESSIONS
// =============================================================================

// SaveSessions persists the full session collection in order.
func (g *Gateway) SaveSessions(sessions []model.Session) {
	if sessions == nil {
		sessions = []model.Session{}
	}
	g.put(KeySessions, sessions)
}

// LoadSessions returns the persisted sessions, or nil when none are stored or
// the stored value is malformed. Sessions repeating an earlier ID are dropped.
func (g *Gateway) LoadSessions() (sessions []model.Session) {
	defer g.guard("load", KeySessions)

	data, found := g.get(KeySessions)
	if !found {
		return nil
	}
	decoded, bad, err := decodeSessions(data)
	if err != nil {
		g.report("load", KeySessions, err)
		g.backup(data)
		return nil
	}
	for _, e := range bad {
		g.report("load", KeySessions, e)
	}
	if len(bad) > 0 {
		g.backup(data)
	}

	seen := make(map[string]bool, len(decoded))
	for _, s := range decoded {
		if seen[s.ID] {
			g.report("load", KeySessions, fmt.Errorf("%w: duplicate session id %s", ErrInvalidFormat, s.ID))
			continue
		}
		seen[s.ID] = true
		sessions = append(sessions, s)
	}
	return sessions
}

// backup copies a session blob that did not load cleanly to
// KeySessionsBackup before the next save replaces it.
func (g *Gateway) backup(data []byte) {
	if err := g.backend.Put(KeySessionsBackup, data); err != nil {
		g.report("backup", KeySessionsBackup, err)
		return
	}
	g.logger.Warn("kept unreadable session data", zap.String("key", KeySessionsBackup))
}

// =============================================================================
// ACTIVE SESSION POINTER
// =============================================================================

// SaveActiveID persists the active session pointer. An empty id clears it.
func (g *Gateway) SaveActiveID(id string) {
	defer g.guard("save", KeyActiveSession)

	if id == "" {
		g.Remove(KeyActiveSession)
		return
	}
	if err := g.backend.Put(KeyActiveSession, []byte(id)); err != nil {
		g.report("save", KeyActiveSession, err)
	}
}

// LoadActiveID returns the persisted pointer, or "" when absent.
func (g *Gateway) LoadActiveID() string {
	defer g.guard("load", KeyActiveSession)

	data, found := g.get(KeyActiveSession)
	if !found {
		return ""
	}
	id := strings.TrimSpace(string(data))
	if strings.ContainsAny(id, " \t\r\n") {
		g.report("load", KeyActiveSession, fmt.Errorf("%w: malformed session id", ErrInvalidFormat))
		return ""
	}
	return id
}

// =============================================================================
// PREFERENCES
// =============================================================================

// SavePreferences persists the user's preferences.
func (g *Gateway) SavePreferences(p model.Preferences) {
	g.put(KeyPreferences, p)
}

// LoadPreferences returns the persisted preferences merged over the defaults.
// ok is false when nothing valid is stored.
func (g *Gateway) LoadPreferences() (p model.Preferences, ok bool) {
	defer g.guard("load", KeyPreferences)

	p = model.DefaultPreferences()
	data, found := g.get(KeyPreferences)
	if !found {
		return p, false
	}

	merged := model.DefaultPreferences()
	if err := json.Unmarshal(data, &merged); err != nil {
		g.report("load", KeyPreferences, fmt.Errorf("%w: %v", ErrInvalidFormat, err))
		return p, false
	}
	if err := merged.Validate(); err != nil {
		g.report("load", KeyPreferences, fmt.Errorf("%w: %v", ErrInvalidFormat, err))
		return p, false
	}
	return merged, true
}

// =============================================================================
// REMOVAL
// =============================================================================

// Remove deletes a single key.
func (g *Gateway) Remove(key string) {
	defer g.guard("delete", key)

	if err := g.backend.Delete(key); err != nil {
		g.report("delete", key, err)
	}
}

// Clear deletes every key the gateway owns.
func (g *Gateway) Clear() {
	for _, key := range AllKeys {
		g.Remove(key)
	}
}
