// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/elena/internal/conversation"
	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/render"
)

// =============================================================================
// TURN PRINTER
// =============================================================================

// turnPrinter writes one turn's reply to a line-mode terminal. It is
// registered as a controller subscriber and only acts between begin and end.
//
// Without a renderer the reply is streamed as raw text, chunk by chunk,
// which keeps piped output clean. With one, a progress line is shown while
// chunks arrive and the finished reply is printed once as markdown.
type turnPrinter struct {
	out      io.Writer
	renderer *render.Terminal

	mu       sync.Mutex
	active   bool
	printed  int
	progress bool
}

func newTurnPrinter(out io.Writer, renderer *render.Terminal) *turnPrinter {
	return &turnPrinter{out: out, renderer: renderer}
}

// begin arms the printer for the next turn.
func (p *turnPrinter) begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
	p.printed = 0
	p.progress = false
}

// onView is the controller subscriber.
func (p *turnPrinter) onView(v conversation.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active || len(v.Messages) == 0 {
		return
	}
	last := v.Messages[len(v.Messages)-1]
	if last.Role != model.RoleAssistant || !last.Streaming {
		return
	}

	if p.renderer == nil {
		if len(last.Content) > p.printed {
			fmt.Fprint(p.out, last.Content[p.printed:])
			p.printed = len(last.Content)
		}
		return
	}

	fmt.Fprintf(p.out, "\r%s", infoStyle.Render(fmt.Sprintf("ELENA is responding... %d chars", len(last.Content))))
	p.progress = true
}

// end disarms the printer and prints whatever the turn left behind. It
// returns the text of the system notice when the turn failed.
func (p *turnPrinter) end(v conversation.View) (notice string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.active = false
	if p.progress {
		fmt.Fprint(p.out, "\r\033[K")
	}
	if len(v.Messages) == 0 {
		return ""
	}

	last := v.Messages[len(v.Messages)-1]
	switch last.Role {
	case model.RoleAssistant:
		if p.renderer == nil {
			if len(last.Content) > p.printed {
				fmt.Fprint(p.out, last.Content[p.printed:])
			}
			fmt.Fprintln(p.out)
			return ""
		}
		fmt.Fprintln(p.out, strings.TrimRight(p.renderer.Render(last.Content), "\n"))
		return ""
	case model.RoleSystem:
		if p.printed > 0 {
			fmt.Fprintln(p.out)
		}
		return last.Content
	default:
		return ""
	}
}
