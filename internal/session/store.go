// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/storage"
)

// WelcomeTitle is the title of the session created on first run.
const WelcomeTitle = "Welcome Session"

// ErrNotFound is returned when a session ID does not exist.
var ErrNotFound = errors.New("session not found")

// =============================================================================
// STORE
// =============================================================================

// Store owns the session collection and the active-session pointer.
type Store struct {
	mu       sync.RWMutex
	gw       *storage.Gateway
	sessions []model.Session
	activeID string

	logger  *zap.Logger
	now     func() time.Time
	welcome func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithWelcome replaces the random welcome line picker.
func WithWelcome(fn func() string) Option {
	return func(s *Store) {
		s.welcome = fn
	}
}

// NewStore creates an empty store. Call Bootstrap before use.
func NewStore(gw *storage.Gateway, opts ...Option) *Store {
	s := &Store{
		gw:      gw,
		logger:  zap.NewNop(),
		now:     time.Now,
		welcome: RandomWelcome,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Welcome returns a welcome line from the configured picker.
func (s *Store) Welcome() string {
	return s.welcome()
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

// Bootstrap loads persisted state. On first run it creates the welcome
// session. A missing or dangling active pointer is repaired to the first
// session. Messages left streaming by an interrupted run are finalized with
// their last saved content.
func (s *Store) Bootstrap() (sessions []model.Session, activeID string, messages []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := s.gw.LoadSessions()
	if len(loaded) == 0 {
		welcome := model.NewSession(WelcomeTitle, s.now())
		welcome.Messages = []model.Message{model.NewSystemMessage(BootMessage(s.welcome()))}
		s.sessions = []model.Session{welcome}
		s.activeID = welcome.ID
		s.gw.SaveSessions(s.sessions)
		s.gw.SaveActiveID(s.activeID)
		s.logger.Info("created welcome session", zap.String("session_id", welcome.ID))
		return s.snapshotLocked(), s.activeID, model.CloneMessages(welcome.Messages)
	}

	if n := finalizeStale(loaded); n > 0 {
		s.logger.Warn("finalized interrupted messages", zap.Int("count", n))
		s.gw.SaveSessions(loaded)
	}
	s.sessions = loaded

	s.activeID = s.gw.LoadActiveID()
	if s.indexLocked(s.activeID) < 0 {
		s.logger.Info("repairing active session pointer",
			zap.String("stale_id", s.activeID),
			zap.String("session_id", loaded[0].ID),
		)
		s.activeID = loaded[0].ID
		s.gw.SaveActiveID(s.activeID)
	}

	active := s.sessions[s.indexLocked(s.activeID)]
	return s.snapshotLocked(), s.activeID, model.CloneMessages(active.Messages)
}

func finalizeStale(sessions []model.Session) int {
	n := 0
	for i := range sessions {
		for j := range sessions[i].Messages {
			if sessions[i].Messages[j].Streaming {
				sessions[i].Messages[j].Streaming = false
				n++
			}
		}
	}
	return n
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Create appends a new empty session and returns it. An empty title gets the
// dated default. The collection is not persisted until the caller activates
// or syncs the session.
func (s *Store) Create(title string) model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := model.NewSession(title, s.now())
	s.sessions = append(s.sessions, sess)
	return sess.Clone()
}

// SwitchActive makes id the active session and returns its messages.
func (s *Store) SwitchActive(id string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.activeID = id
	s.gw.SaveActiveID(id)
	return model.CloneMessages(s.sessions[i].Messages), nil
}

// Remove deletes a session and persists the collection. When the active
// session is removed the pointer is left empty for the caller to reassign.
func (s *Store) Remove(id string) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
	if s.activeID == id {
		s.activeID = ""
	}
	s.gw.SaveSessions(s.sessions)
	return s.snapshotLocked(), nil
}

// Sync replaces a session's messages, re-derives its title and persists the
// whole collection.
func (s *Store) Sync(id string, messages []model.Message) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.sessions[i].SetMessages(messages, s.now())
	s.gw.SaveSessions(s.sessions)
	return s.snapshotLocked(), nil
}

// Rename gives a session an explicit title that later syncs keep.
func (s *Store) Rename(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.sessions[i].Rename(title, s.now())
	s.gw.SaveSessions(s.sessions)
	return nil
}

// Import adds a previously exported session. A session with the same ID is
// replaced in place; otherwise the import is appended.
func (s *Store) Import(sess model.Session) (replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess = sess.Clone()
	if i := s.indexLocked(sess.ID); i >= 0 {
		s.sessions[i] = sess
		replaced = true
	} else {
		s.sessions = append(s.sessions, sess)
	}
	s.gw.SaveSessions(s.sessions)
	return replaced
}

// Persist saves the collection and the active pointer as they are.
func (s *Store) Persist() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.gw.SaveSessions(s.sessions)
	s.gw.SaveActiveID(s.activeID)
}

// =============================================================================
// QUERIES
// =============================================================================

// Sessions returns a copy of the collection in insertion order.
func (s *Store) Sessions() []model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get returns a copy of one session.
func (s *Store) Get(id string) (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Session{}, false
	}
	return s.sessions[i].Clone(), true
}

// ActiveID returns the active session ID, or "" after the active session was
// removed and before a new one is chosen.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []model.Session {
	out := make([]model.Session, len(s.sessions))
	for i := range s.sessions {
		out[i] = s.sessions[i].Clone()
	}
	return out
}
