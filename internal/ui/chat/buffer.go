// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	"github.com/jeranaias/elena/internal/conversation"
)

// =============================================================================
// VIEW BUFFER
// =============================================================================

// DefaultMaxFPS caps how often streaming snapshots are redrawn.
const DefaultMaxFPS = 30

// viewBuffer sits between the controller's subscriber and the Bubble Tea
// program. The controller publishes a View after every chunk; the buffer
// keeps only the newest one and hands it to the UI at most once per frame
// while a turn is streaming. Transitions out of a turn are delivered
// immediately.
//
// Put is called on the controller's goroutine and Take on the update loop,
// so every method locks.
type viewBuffer struct {
	mu        sync.Mutex
	latest    conversation.View
	has       bool
	pending   bool
	lastFlush time.Time
	seq       uint64

	minInterval time.Duration
}

// newViewBuffer creates a buffer that redraws at most maxFPS times a second.
func newViewBuffer(maxFPS int) *viewBuffer {
	if maxFPS <= 0 || maxFPS > 120 {
		maxFPS = DefaultMaxFPS
	}
	return &viewBuffer{minInterval: time.Second / time.Duration(maxFPS)}
}

// Put stores v and reports whether the UI has to be signalled. It returns
// false while an earlier signal is still unanswered, and for views older
// than one already stored.
func (b *viewBuffer) Put(v conversation.View) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if v.Seq != 0 && v.Seq < b.seq {
		return false
	}
	b.seq = max(b.seq, v.Seq)
	b.latest = v
	b.has = true
	if b.pending {
		return false
	}
	b.pending = true
	return true
}

// Take returns the newest view if one is due. When the frame interval has not
// elapsed yet it returns the remaining wait instead, and the signal stays
// pending.
func (b *viewBuffer) Take(now time.Time) (conversation.View, time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.has {
		b.pending = false
		return conversation.View{}, 0, false
	}
	if b.latest.Status.Busy() {
		if wait := b.minInterval - now.Sub(b.lastFlush); wait > 0 {
			return conversation.View{}, wait, false
		}
	}

	v := b.latest
	b.latest = conversation.View{}
	b.has = false
	b.pending = false
	b.lastFlush = now
	return v, 0, true
}
