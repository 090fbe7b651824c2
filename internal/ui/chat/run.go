// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen chat program and blocks until the user quits
// or ctx is cancelled. The controller must already be started.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	opts.Controller.Subscribe(m.Subscriber(p.Send))

	_, err := p.Run()
	m.cancelMgr.cancel()
	return err
}
