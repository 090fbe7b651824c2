// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/elena/internal/gemini"
	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/session"
	"github.com/jeranaias/elena/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned when an intent arrives while a turn is in flight.
	ErrBusy = errors.New("a response is still streaming")

	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrEmptyTitle is returned by RenameSession for a blank title.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrUnknownModel is returned by SetModel for IDs outside the catalog.
	ErrUnknownModel = errors.New("unknown model")
)

// Streamer streams one chat turn.
type Streamer interface {
	StreamChat(ctx context.Context, req gemini.ChatRequest) iter.Seq2[string, error]
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives turns against a Streamer and owns the active session's
// message list. All methods are safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	store    *session.Store
	gw       *storage.Gateway
	streamer Streamer
	logger   *zap.Logger

	activeID string
	messages []model.Message
	status   Status
	prefs    model.Preferences

	defaults    model.Preferences
	subscribers []func(View)

	// seq numbers snapshots under mu. notifyMu serializes delivery so a
	// snapshot older than the last one delivered is dropped.
	seq       uint64
	notifyMu  sync.Mutex
	delivered uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaults sets the preferences used when none are persisted.
func WithDefaults(p model.Preferences) Option {
	return func(c *Controller) {
		c.defaults = p
	}
}

// New creates a controller. Call Start before any other method.
func New(store *session.Store, gw *storage.Gateway, streamer Streamer, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		gw:       gw,
		streamer: streamer,
		logger:   zap.NewNop(),
		defaults: model.DefaultPreferences(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start bootstraps the session store and loads preferences.
func (c *Controller) Start() View {
	c.mu.Lock()
	_, activeID, msgs := c.store.Bootstrap()
	c.activeID = activeID
	c.messages = msgs
	c.status = StatusIdle

	if prefs, ok := c.gw.LoadPreferences(); ok {
		c.prefs = prefs
		if !prefs.ModelPinned {
			c.prefs.Model = c.defaults.Model
		}
	} else {
		c.prefs = c.defaults
	}
	v := c.viewLocked()
	c.mu.Unlock()

	c.logger.Info("conversation started",
		zap.String("session_id", activeID),
		zap.Int("sessions", len(v.Sessions)),
		zap.String("model", v.Preferences.Model),
	)
	c.notify(v)
	return v
}

// Subscribe registers fn to receive a View after every state change. fn is
// called on the goroutine that made the change, in Seq order, and must not
// block or call intents.
func (c *Controller) Subscribe(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

func (c *Controller) notify(v View) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if v.Seq <= c.delivered {
		return
	}
	c.delivered = v.Seq

	c.mu.Lock()
	subs := append([]func(View){}, c.subscribers...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}

// commit snapshots the view, releases the lock and notifies subscribers.
func (c *Controller) commit() {
	v := c.viewLocked()
	c.mu.Unlock()
	c.notify(v)
}

func (c *Controller) viewLocked() View {
	c.seq++
	return View{
		Seq:             c.seq,
		Sessions:        c.store.Sessions(),
		ActiveSessionID: c.activeID,
		Messages:        model.CloneMessages(c.messages),
		Status:          c.status,
		Preferences:     c.prefs,
	}
}

// syncLocked persists the message list to the given session.
func (c *Controller) syncLocked(sessionID string) {
	if _, err := c.store.Sync(sessionID, c.messages); err != nil {
		c.logger.Error("sync failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// View returns the current snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Status returns the turn state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Preferences returns the current preferences.
func (c *Controller) Preferences() model.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefs
}

// Model returns the model the next turn will use.
func (c *Controller) Model() string {
	return c.Preferences().Model
}

// Temperature returns the preferred sampling temperature.
func (c *Controller) Temperature() float64 {
	return c.Preferences().Temperature
}

// =============================================================================
// TURNS
// =============================================================================

// Send runs one turn: it appends the user message and a streaming
// placeholder, folds every chunk into the placeholder and finalizes it. A
// stream failure becomes a system notice and is not returned; the only
// errors are ErrEmptyMessage and ErrBusy, both of which leave state
// untouched. Send blocks until the turn is over.
func (c *Controller) Send(ctx context.Context, content string, temperature float64) error {
	text := strings.TrimSpace(content)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.status.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	sessionID := c.activeID
	modelID := c.prefs.Model

	c.messages = append(c.messages, model.NewUserMessage(text))
	c.status = StatusThinking
	c.syncLocked(sessionID)
	c.commit()

	c.mu.Lock()
	placeholder := model.NewPlaceholder()
	history := buildHistory(c.messages)
	c.messages = append(c.messages, placeholder)
	c.syncLocked(sessionID)
	c.status = StatusStreaming
	c.commit()

	log := c.logger.With(zap.String("session_id", sessionID), zap.String("model", modelID))
	log.Debug("turn started", zap.Int("history", len(history)))

	var acc strings.Builder
	var streamErr error
	chunks := 0
	req := gemini.ChatRequest{Model: modelID, History: history, Temperature: temperature}
	for chunk, err := range c.streamer.StreamChat(ctx, req) {
		if err != nil {
			streamErr = err
			break
		}
		chunks++
		acc.WriteString(chunk)

		c.mu.Lock()
		c.setPlaceholderLocked(placeholder.ID, acc.String(), true)
		c.syncLocked(sessionID)
		c.commit()
	}

	if streamErr != nil {
		c.failTurn(sessionID, placeholder.ID, streamErr)
		return nil
	}

	c.mu.Lock()
	c.setPlaceholderLocked(placeholder.ID, acc.String(), false)
	c.status = StatusIdle
	c.syncLocked(sessionID)
	c.commit()

	log.Info("turn complete", zap.Int("chunks", chunks), zap.Int("chars", acc.Len()))
	return nil
}

// failTurn drops the placeholder, appends the notice for the failure kind
// and returns to Idle.
func (c *Controller) failTurn(sessionID, placeholderID string, err error) {
	kind := gemini.KindOf(err)
	c.logger.Warn("turn failed",
		zap.String("session_id", sessionID),
		zap.Stringer("kind", kind),
		zap.Error(err),
	)

	c.mu.Lock()
	c.status = StatusError
	c.commit()

	c.mu.Lock()
	kept := c.messages[:0]
	for _, m := range c.messages {
		if m.ID != placeholderID {
			kept = append(kept, m)
		}
	}
	c.messages = append(kept, model.NewSystemMessage(Notice(kind)))
	c.syncLocked(sessionID)
	c.status = StatusIdle
	c.commit()
}

func (c *Controller) setPlaceholderLocked(id, content string, streaming bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			c.messages[i].Content = content
			c.messages[i].Streaming = streaming
			return
		}
	}
}

// buildHistory converts the non-system messages to model turns in order.
func buildHistory(msgs []model.Message) []gemini.Turn {
	history := make([]gemini.Turn, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case model.RoleUser:
			history = append(history, gemini.Turn{Role: gemini.RoleUser, Content: m.Content})
		case model.RoleAssistant:
			history = append(history, gemini.Turn{Role: gemini.RoleAssistant, Content: m.Content})
		}
	}
	return history
}

// =============================================================================
// SESSION INTENTS
// =============================================================================

// NewSession creates a session with a welcome message and makes it active.
func (c *Controller) NewSession() (model.Session, error) {
	c.mu.Lock()
	if c.status.Busy() {
		c.mu.Unlock()
		return model.Session{}, ErrBusy
	}
	sess, err := c.newSessionLocked()
	if err != nil {
		c.mu.Unlock()
		return model.Session{}, err
	}
	c.commit()
	return sess, nil
}

func (c *Controller) newSessionLocked() (model.Session, error) {
	sess := c.store.Create("")
	msgs := []model.Message{model.NewSystemMessage(session.NewSessionMessage(c.store.Welcome()))}
	if _, err := c.store.Sync(sess.ID, msgs); err != nil {
		return model.Session{}, err
	}
	if _, err := c.store.SwitchActive(sess.ID); err != nil {
		return model.Session{}, err
	}
	c.activeID = sess.ID
	c.messages = msgs
	c.logger.Info("session created", zap.String("session_id", sess.ID))

	sess, _ = c.store.Get(sess.ID)
	return sess, nil
}

// SwitchSession makes id the active session. An unknown id returns
// session.ErrNotFound and leaves state unchanged.
func (c *Controller) SwitchSession(id string) error {
	c.mu.Lock()
	if c.status.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	msgs, err := c.store.SwitchActive(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.activeID = id
	c.messages = msgs
	c.commit()
	return nil
}

// DeleteSession removes a session. If it was active, the first remaining
// session becomes active, or a fresh one is created when none remain.
func (c *Controller) DeleteSession(id string) error {
	c.mu.Lock()
	if c.status.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	remaining, err := c.store.Remove(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.logger.Info("session deleted", zap.String("session_id", id), zap.Int("remaining", len(remaining)))

	if id == c.activeID {
		if len(remaining) > 0 {
			msgs, err := c.store.SwitchActive(remaining[0].ID)
			if err != nil {
				c.mu.Unlock()
				return fmt.Errorf("reassign active session: %w", err)
			}
			c.activeID = remaining[0].ID
			c.messages = msgs
		} else if _, err := c.newSessionLocked(); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("replace last session: %w", err)
		}
	}
	c.commit()
	return nil
}

// ClearActiveSession replaces the active session's messages with a single
// "session cleared" notice.
func (c *Controller) ClearActiveSession() error {
	c.mu.Lock()
	if c.status.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.messages = []model.Message{model.NewSystemMessage(session.ClearedMessage(c.store.Welcome()))}
	c.syncLocked(c.activeID)
	c.commit()
	return nil
}

// RenameSession sets an explicit title that later messages do not change.
func (c *Controller) RenameSession(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}

	c.mu.Lock()
	if err := c.store.Rename(id, title); err != nil {
		c.mu.Unlock()
		return err
	}
	c.commit()
	return nil
}

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

// ExportActiveSession returns the export filename and pretty-printed JSON
// for the active session.
func (c *Controller) ExportActiveSession() (filename string, data []byte, err error) {
	c.mu.Lock()
	id := c.activeID
	c.mu.Unlock()
	return c.ExportSession(id)
}

// ExportSession is ExportActiveSession for an arbitrary session.
func (c *Controller) ExportSession(id string) (filename string, data []byte, err error) {
	sess, ok := c.store.Get(id)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	data, err = storage.EncodeSession(sess)
	if err != nil {
		return "", nil, fmt.Errorf("encode session: %w", err)
	}
	return storage.ExportFilename(sess.ID), data, nil
}

// ImportSession adds an exported session and makes it active. Data that
// does not have the session shape returns storage.ErrInvalidFormat.
func (c *Controller) ImportSession(data []byte) (model.Session, error) {
	sess, err := storage.DecodeSession(data)
	if err != nil {
		return model.Session{}, err
	}
	for i := range sess.Messages {
		sess.Messages[i].Streaming = false
	}

	c.mu.Lock()
	if c.status.Busy() {
		c.mu.Unlock()
		return model.Session{}, ErrBusy
	}
	replaced := c.store.Import(sess)
	msgs, err := c.store.SwitchActive(sess.ID)
	if err != nil {
		c.mu.Unlock()
		return model.Session{}, err
	}
	c.activeID = sess.ID
	c.messages = msgs
	c.logger.Info("session imported", zap.String("session_id", sess.ID), zap.Bool("replaced", replaced))
	c.commit()
	return sess, nil
}

// =============================================================================
// PREFERENCES
// =============================================================================

// UpdatePreferences applies fn to a copy of the preferences, validates the
// result and persists it. Changes apply to the next turn.
func (c *Controller) UpdatePreferences(fn func(*model.Preferences)) error {
	c.mu.Lock()
	next := c.prefs
	fn(&next)
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.prefs = next
	c.gw.SavePreferences(next)
	c.commit()
	return nil
}

// SetModel selects the model for subsequent turns. The choice is kept
// across restarts and config changes.
func (c *Controller) SetModel(id string) error {
	info, ok := model.LookupModel(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return c.UpdatePreferences(func(p *model.Preferences) {
		p.Model = info.ID
		p.ModelPinned = true
	})
}

// SetDefaultModel replaces the configured default model. It takes effect
// from the next turn unless the user has picked a model with SetModel.
func (c *Controller) SetDefaultModel(id string) error {
	info, ok := model.LookupModel(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}

	c.mu.Lock()
	c.defaults.Model = info.ID
	if c.prefs.ModelPinned || c.prefs.Model == info.ID {
		c.mu.Unlock()
		return nil
	}
	c.prefs.Model = info.ID
	c.logger.Info("default model changed", zap.String("model", info.ID))
	c.commit()
	return nil
}

// SetTemperature sets the preferred sampling temperature.
func (c *Controller) SetTemperature(t float64) error {
	return c.UpdatePreferences(func(p *model.Preferences) { p.Temperature = t })
}
