// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jeranaias/elena/internal/conversation"
	"github.com/jeranaias/elena/internal/export"
	"github.com/jeranaias/elena/internal/model"
	"github.com/jeranaias/elena/internal/render"
	"github.com/jeranaias/elena/internal/session"
	"github.com/jeranaias/elena/internal/util"
)

// =============================================================================
// NAVIGATION HANDLERS
// =============================================================================

var categoryOrder = []string{"Navigation", "Sessions", "Model", "Display"}

func handleHelp(ctx *Context, args []string) (Result, error) {
	if len(args) > 0 {
		name := args[0]
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}
		cmd := ctx.registry.Get(strings.ToLower(name))
		if cmd == nil {
			return Result{}, fmt.Errorf("unknown command: %s", name)
		}
		return Result{Output: describe(cmd)}, nil
	}

	var sb strings.Builder
	groups := ctx.registry.ByCategory()
	for _, category := range categoryOrder {
		cmds := groups[category]
		if len(cmds) == 0 {
			continue
		}
		sb.WriteString(category + ":\n")
		for _, cmd := range cmds {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			sb.WriteString(fmt.Sprintf("  %-28s %s\n", usage, cmd.Description))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Anything that does not start with / is sent to the model.")
	return Result{Output: sb.String()}, nil
}

func describe(cmd *Command) string {
	var sb strings.Builder
	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	sb.WriteString(usage + "\n  " + cmd.Description)
	if len(cmd.Aliases) > 0 {
		sb.WriteString("\n  aliases: " + strings.Join(cmd.Aliases, ", "))
	}
	for _, arg := range cmd.Args {
		req := "optional"
		if arg.Required {
			req = "required"
		}
		sb.WriteString(fmt.Sprintf("\n  <%s> %s, %s", arg.Name, req, arg.Description))
	}
	return sb.String()
}

func handleQuit(ctx *Context, args []string) (Result, error) {
	return Result{Action: ActionQuit}, nil
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

func handleNew(ctx *Context, args []string) (Result, error) {
	sess, err := ctx.Controller.NewSession()
	if err != nil {
		return Result{}, err
	}
	return Result{Output: "Started " + sess.Title}, nil
}

func handleSessions(ctx *Context, args []string) (Result, error) {
	return Result{Output: FormatSessionList(ctx.Controller.View())}, nil
}

// FormatSessionList renders the numbered session list used by /sessions and
// the CLI.
func FormatSessionList(v conversation.View) string {
	var sb strings.Builder
	for i, s := range v.Sessions {
		marker := " "
		if s.ID == v.ActiveSessionID {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %2d. %-50s %3d msgs  %s  %s\n",
			marker, i+1, util.TruncateWidth(s.Title, 50), len(s.Messages),
			s.UpdatedAt.Time().Format("2006-01-02 15:04"), s.ID))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ResolveSession maps a list number, full id or unique id prefix to a
// session id.
func ResolveSession(v conversation.View, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(v.Sessions) {
			return "", fmt.Errorf("%w: no session number %d", session.ErrNotFound, n)
		}
		return v.Sessions[n-1].ID, nil
	}

	var match string
	for _, s := range v.Sessions {
		if s.ID == ref {
			return s.ID, nil
		}
		if strings.HasPrefix(s.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("ambiguous session id prefix %q", ref)
			}
			match = s.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", session.ErrNotFound, ref)
	}
	return match, nil
}

func handleSwitch(ctx *Context, args []string) (Result, error) {
	id, err := ResolveSession(ctx.Controller.View(), args[0])
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Controller.SwitchSession(id); err != nil {
		return Result{}, err
	}
	sess, _ := ctx.Controller.View().ActiveSession()
	return Result{Output: "Switched to " + sess.Title}, nil
}

func handleDelete(ctx *Context, args []string) (Result, error) {
	v := ctx.Controller.View()
	id := v.ActiveSessionID
	if len(args) > 0 {
		var err error
		if id, err = ResolveSession(v, args[0]); err != nil {
			return Result{}, err
		}
	}
	if err := ctx.Controller.DeleteSession(id); err != nil {
		return Result{}, err
	}
	return Result{Output: "Deleted session " + id}, nil
}

func handleClear(ctx *Context, args []string) (Result, error) {
	if err := ctx.Controller.ClearActiveSession(); err != nil {
		return Result{}, err
	}
	return Result{}, nil
}

func handleRename(ctx *Context, args []string) (Result, error) {
	title := strings.Join(args, " ")
	id := ctx.Controller.View().ActiveSessionID
	if err := ctx.Controller.RenameSession(id, title); err != nil {
		return Result{}, err
	}
	return Result{Output: "Renamed to " + strings.TrimSpace(title)}, nil
}

func handleExport(ctx *Context, args []string) (Result, error) {
	format := export.FormatJSON
	if len(args) > 0 {
		var err error
		if format, err = export.ParseFormat(args[0]); err != nil {
			return Result{}, err
		}
	}

	dir := ctx.ExportDir
	if dir == "" {
		dir = "."
	}

	if format == export.FormatJSON {
		filename, data, err := ctx.Controller.ExportActiveSession()
		if err != nil {
			return Result{}, err
		}
		path := filepath.Join(dir, filename)
		if err := util.AtomicWriteFileWithDir(path, data, 0600, 0755); err != nil {
			return Result{}, fmt.Errorf("write export: %w", err)
		}
		return Result{Output: "Exported to " + path}, nil
	}

	v := ctx.Controller.View()
	sess, ok := v.ActiveSession()
	if !ok {
		return Result{}, session.ErrNotFound
	}
	opts := export.DefaultOptions()
	opts.OutputDir = dir
	opts.Theme = v.Preferences.Theme
	opts.IncludeTimestamps = v.Preferences.ShowTimestamps

	exp, err := export.ForFormat(format, opts)
	if err != nil {
		return Result{}, err
	}
	path, err := export.WriteFile(sess, exp, opts)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: "Exported to " + path}, nil
}

func handleImport(ctx *Context, args []string) (Result, error) {
	path := util.ExpandHome(strings.Join(args, " "))
	data, err := ctx.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	sess, err := ctx.Controller.ImportSession(data)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: fmt.Sprintf("Imported %s (%d messages)", sess.Title, len(sess.Messages))}, nil
}

// =============================================================================
// MODEL HANDLERS
// =============================================================================

func handleModel(ctx *Context, args []string) (Result, error) {
	if len(args) == 0 {
		current := ctx.Controller.Model()
		var sb strings.Builder
		for _, m := range model.Models {
			marker := " "
			if m.ID == current {
				marker = "*"
			}
			sb.WriteString(fmt.Sprintf("%s %-24s %s\n", marker, m.ID, m.Description))
		}
		return Result{Output: strings.TrimRight(sb.String(), "\n")}, nil
	}

	if err := ctx.Controller.SetModel(args[0]); err != nil {
		if errors.Is(err, conversation.ErrUnknownModel) {
			return Result{}, fmt.Errorf("%w (available: %s)", err, strings.Join(model.ModelIDs(), ", "))
		}
		return Result{}, err
	}
	return Result{Output: "Model set to " + ctx.Controller.Model()}, nil
}

func handleTemperature(ctx *Context, args []string) (Result, error) {
	if len(args) == 0 {
		return Result{Output: fmt.Sprintf("Temperature: %.1f", ctx.Controller.Temperature())}, nil
	}
	t, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return Result{}, fmt.Errorf("invalid temperature %q", args[0])
	}
	if err := ctx.Controller.SetTemperature(t); err != nil {
		return Result{}, err
	}
	return Result{Output: fmt.Sprintf("Temperature set to %.1f", t)}, nil
}

// =============================================================================
// DISPLAY HANDLERS
// =============================================================================

func handleTheme(ctx *Context, args []string) (Result, error) {
	theme, err := model.ParseTheme(strings.ToLower(args[0]))
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Controller.UpdatePreferences(func(p *model.Preferences) { p.Theme = theme }); err != nil {
		return Result{}, err
	}
	return Result{Output: "Theme set to " + string(theme), Action: ActionRestyle}, nil
}

func handleTimestamps(ctx *Context, args []string) (Result, error) {
	show := !ctx.Controller.Preferences().ShowTimestamps
	if len(args) > 0 {
		show = strings.EqualFold(args[0], "on")
	}
	if err := ctx.Controller.UpdatePreferences(func(p *model.Preferences) { p.ShowTimestamps = show }); err != nil {
		return Result{}, err
	}
	state := "off"
	if show {
		state = "on"
	}
	return Result{Output: "Timestamps " + state, Action: ActionRestyle}, nil
}

// lastReply returns the newest finished assistant message.
func lastReply(msgs []model.Message) (model.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant && !msgs[i].Streaming {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

func handleCode(ctx *Context, args []string) (Result, error) {
	reply, ok := lastReply(ctx.Controller.View().Messages)
	if !ok {
		return Result{}, errors.New("no reply to take code from")
	}
	blocks := render.CodeBlocks(reply.Content)
	if len(blocks) == 0 {
		return Result{Output: "The last reply has no code blocks."}, nil
	}

	if len(args) == 0 {
		var sb strings.Builder
		for i, b := range blocks {
			lang := b.Language
			if lang == "" {
				lang = "text"
			}
			first := util.TruncateRunes(util.SingleLine(b.Code), 60)
			sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, lang, first))
		}
		sb.WriteString("Use /code <number> to copy a block.")
		return Result{Output: sb.String()}, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(blocks) {
		return Result{}, fmt.Errorf("code block number must be 1-%d", len(blocks))
	}
	block := blocks[n-1]
	if err := ctx.Clipboard(block.Code); err != nil {
		return Result{Output: render.Highlight(block.Code, block.Language) + "\n(clipboard unavailable: " + err.Error() + ")"}, nil
	}
	return Result{Output: fmt.Sprintf("Copied code block %d to the clipboard.", n)}, nil
}
