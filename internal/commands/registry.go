// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"sort"

	"github.com/atotto/clipboard"

	"github.com/jeranaias/elena/internal/conversation"
	"github.com/jeranaias/elena/internal/model"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/model <name>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler func(ctx *Context, args []string) (Result, error)

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString  ArgType = iota // Free-form string
	ArgTypeModel                  // Model id from the catalog
	ArgTypeSession                // Session id or list index
	ArgTypeFile                   // File path
	ArgTypeEnum                   // One of predefined values
)

// =============================================================================
// EXECUTION CONTEXT
// =============================================================================

// Action tells the front end what to do after a command ran.
type Action int

const (
	ActionNone    Action = iota
	ActionQuit           // exit the program
	ActionRestyle        // preferences that affect rendering changed
)

// Result is the outcome of a command.
type Result struct {
	// Output is shown to the user. It may contain markdown.
	Output string

	Action Action
}

// Context carries what handlers act on.
type Context struct {
	Controller *conversation.Controller

	// ExportDir receives /export files.
	ExportDir string

	// ReadFile loads /import files. Defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)

	// Clipboard receives /code copies. Defaults to the system clipboard.
	Clipboard func(text string) error

	registry *Registry
}

// NewContext returns a context with the default file and clipboard access.
func NewContext(c *conversation.Controller, exportDir string) *Context {
	return &Context{
		Controller: c,
		ExportDir:  exportDir,
		ReadFile:   os.ReadFile,
		Clipboard:  clipboard.WriteAll,
	}
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Execute validates and runs a parsed command.
func (r *Registry) Execute(ctx *Context, parsed ParseResult) (Result, error) {
	if parsed.Error != nil {
		return Result{}, parsed.Error
	}
	if parsed.Command == nil {
		return Result{}, nil
	}
	if err := ValidateArgs(parsed.Command, parsed.Args); err != nil {
		return Result{}, err
	}
	ctx.registry = r
	return parsed.Command.Handler(ctx, parsed.Args)
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Usage:       "/help [command]",
		Args:        []ArgDef{{Name: "command", Type: ArgTypeString, Description: "Command to describe"}},
		Category:    "Navigation",
		Handler:     handleHelp,
	})
	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit elena",
		Category:    "Navigation",
		Handler:     handleQuit,
	})

	// Sessions
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new session",
		Category:    "Sessions",
		Handler:     handleNew,
	})
	r.Register(&Command{
		Name:        "/sessions",
		Aliases:     []string{"/ls"},
		Description: "List sessions",
		Category:    "Sessions",
		Handler:     handleSessions,
	})
	r.Register(&Command{
		Name:        "/switch",
		Aliases:     []string{"/s"},
		Description: "Switch to another session",
		Usage:       "/switch <number|id>",
		Args:        []ArgDef{{Name: "session", Required: true, Type: ArgTypeSession, Description: "session number from /sessions or its id"}},
		Category:    "Sessions",
		Handler:     handleSwitch,
	})
	r.Register(&Command{
		Name:        "/delete",
		Aliases:     []string{"/del", "/rm"},
		Description: "Delete a session (default: the active one)",
		Usage:       "/delete [number|id]",
		Args:        []ArgDef{{Name: "session", Type: ArgTypeSession, Description: "session number from /sessions or its id"}},
		Category:    "Sessions",
		Handler:     handleDelete,
	})
	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Clear the active session",
		Category:    "Sessions",
		Handler:     handleClear,
	})
	r.Register(&Command{
		Name:        "/rename",
		Description: "Rename the active session",
		Usage:       "/rename <title>",
		Args:        []ArgDef{{Name: "title", Required: true, Type: ArgTypeString, Description: "new title"}},
		Category:    "Sessions",
		Handler:     handleRename,
	})
	r.Register(&Command{
		Name:        "/export",
		Aliases:     []string{"/e"},
		Description: "Export the active session",
		Usage:       "/export [json|md|html]",
		Args: []ArgDef{{
			Name:        "format",
			Type:        ArgTypeEnum,
			Values:      []string{"json", "md", "markdown", "html"},
			Description: "export format",
		}},
		Category: "Sessions",
		Handler:  handleExport,
	})
	r.Register(&Command{
		Name:        "/import",
		Description: "Import a session from a JSON export",
		Usage:       "/import <file>",
		Args:        []ArgDef{{Name: "file", Required: true, Type: ArgTypeFile, Description: "path to an elena-session-*.json file"}},
		Category:    "Sessions",
		Handler:     handleImport,
	})

	// Model
	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Show or set the model",
		Usage:       "/model [id]",
		Args:        []ArgDef{{Name: "id", Type: ArgTypeModel, Description: "model id"}},
		Category:    "Model",
		Handler:     handleModel,
	})
	r.Register(&Command{
		Name:        "/temp",
		Aliases:     []string{"/temperature", "/t"},
		Description: "Show or set the sampling temperature",
		Usage:       "/temp [0.0-2.0]",
		Args:        []ArgDef{{Name: "value", Type: ArgTypeString, Description: "temperature between 0.0 and 2.0"}},
		Category:    "Model",
		Handler:     handleTemperature,
	})

	// Display
	r.Register(&Command{
		Name:        "/theme",
		Description: "Change the color theme",
		Usage:       "/theme <dark|light|cyberpunk>",
		Args: []ArgDef{{
			Name:        "theme",
			Required:    true,
			Type:        ArgTypeEnum,
			Values:      []string{string(model.ThemeDark), string(model.ThemeLight), string(model.ThemeCyberpunk)},
			Description: "color theme",
		}},
		Category: "Display",
		Handler:  handleTheme,
	})
	r.Register(&Command{
		Name:        "/timestamps",
		Description: "Toggle message timestamps",
		Usage:       "/timestamps [on|off]",
		Args:        []ArgDef{{Name: "state", Type: ArgTypeEnum, Values: []string{"on", "off"}, Description: "on or off"}},
		Category:    "Display",
		Handler:     handleTimestamps,
	})
	r.Register(&Command{
		Name:        "/code",
		Aliases:     []string{"/copy-code"},
		Description: "List code blocks in the last reply, or copy one",
		Usage:       "/code [number]",
		Args:        []ArgDef{{Name: "number", Type: ArgTypeString, Description: "code block number"}},
		Category:    "Display",
		Handler:     handleCode,
	})
}
