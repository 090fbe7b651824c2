// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat interface for elena.

The chat package is a Bubble Tea front end for the Conversation Controller.
It owns no conversation state: every frame is drawn from the latest
conversation.View the controller published, and every user action becomes a
controller intent or a slash command.

# Key Components

## Model (model.go)

The Model struct holds the UI-only state:
  - the last View snapshot and the rendered message cache
  - the input line with tab completion for slash commands
  - the viewport, sidebar and spinner

## Update Loop (update.go)

Turns run in a tea.Cmd so the update loop never blocks. The controller's
subscriber hands snapshots to a viewBuffer, which coalesces them to a capped
frame rate before they reach the program as viewReadyMsg.

## View Rendering (view.go)

  - Header with the active model and temperature
  - Session sidebar with the active session highlighted
  - Messages: user text verbatim, assistant text through glamour, system
    notices in a bordered block
  - Status bar with the turn state and the last command feedback

# Usage

	ctrl.Start()
	err := chat.Run(ctx, chat.Options{
	    Controller: ctrl,
	    Registry:   commands.NewRegistry(),
	    Context:    commands.NewContext(ctrl, exportDir),
	})
*/
package chat
