// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/sentinel-syx/internal/config"
	"github.com/jeranaias/sentinel-syx/internal/conversation"
	"github.com/jeranaias/sentinel-syx/internal/document"
	"github.com/jeranaias/sentinel-syx/internal/export"
	"github.com/jeranaias/sentinel-syx/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	youLabel       = color.New(color.FgCyan, color.Bold).SprintFunc()
	assistantLabel = color.New(color.FgMagenta, color.Bold).SprintFunc()
	infoText       = color.New(color.FgHiBlack).SprintFunc()
	okText         = color.New(color.FgGreen).SprintFunc()
	errText        = color.New(color.FgRed, color.Bold).SprintFunc()
)

const replHelp = `Commands:
  /help               show this help
  /internet           toggle internet mode
  /document           toggle document mode
  /attach <path>      attach a plain-text document
  /regen              regenerate the last reply
  /copy               copy the conversation to the clipboard
  /export <fmt> [path] write the conversation (text, markdown, json, yaml, html)
  /clear              clear the conversation
  /quit               leave`

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if !util.IsBlank(input) {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Confirm asks a y/N question.
func (c *ChatCLI) Confirm(question string) bool {
	answer, err := c.line.Prompt(question + " (y/N) ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// SaveHistory persists command history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

func (a *App) newChatCommand() *cobra.Command {
	var internet bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Line-mode chat with history and slash commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd, internet)
		},
	}
	cmd.Flags().BoolVarP(&internet, "internet", "i", false, "start with internet mode on")
	return cmd
}

func (a *App) runChat(cmd *cobra.Command, internet bool) error {
	if !a.stdinIsTerminal() {
		return &TTYRequiredError{Operation: "chat", Hint: "use `sentinel ask` for piped input"}
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.openLogger(true, cmd.ErrOrStderr()); err != nil {
		return err
	}
	creds, err := a.openCredentials(ctx)
	if err != nil {
		return err
	}

	input := NewChatCLI()
	defer input.Close()

	r := newREPL(a.newSession(creds), cmd.OutOrStdout())
	r.useInternet = internet
	r.confirm = input.Confirm

	fmt.Fprintf(r.out, "%s  %s\n", assistantLabel(r.session.AssistantName()), infoText("type /help for commands"))
	if !creds.Credentials().HasCompletionKey() {
		fmt.Fprintln(r.out, errText("No DeepSeek API key stored. Run `sentinel setup` first."))
	}

	for {
		line, err := input.ReadInput(r.prompt())
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed terminal all end the session.
			fmt.Fprintln(r.out)
			return nil
		}
		if r.handleLine(ctx, line) {
			return nil
		}
	}
}

// =============================================================================
// REPL
// =============================================================================

// repl holds the line-mode chat state. It is separate from the liner
// input so it can be driven by tests.
type repl struct {
	session *conversation.Session
	out     io.Writer

	useInternet bool
	useDocument bool

	confirm   func(question string) bool
	clipboard func(string) error
}

func newREPL(session *conversation.Session, out io.Writer) *repl {
	return &repl{
		session:   session,
		out:       out,
		confirm:   func(string) bool { return true },
		clipboard: clipboard.WriteAll,
	}
}

func (r *repl) prompt() string {
	var modes []string
	if r.useInternet {
		modes = append(modes, "web")
	}
	if r.useDocument {
		modes = append(modes, "doc")
	}
	if len(modes) == 0 {
		return "you> "
	}
	return "you [" + strings.Join(modes, ",") + "]> "
}

// handleLine processes one input line. It reports true when the user asked
// to quit.
func (r *repl) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "/") {
		return r.handleSlashCommand(ctx, line)
	}
	if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
		return true
	}

	r.runTurn(ctx, func(ctx context.Context) (string, error) {
		reply, err := r.session.SubmitTurn(ctx, line, conversation.TurnOptions{
			UseInternet: r.useInternet,
			UseDocument: r.useDocument,
		})
		return reply.Content, err
	})
	return false
}

// runTurn runs fn with a context that Ctrl+C cancels.
func (r *repl) runTurn(ctx context.Context, fn func(ctx context.Context) (string, error)) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(r.out, infoText("thinking..."))
	reply, err := fn(turnCtx)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(r.out, errText("[cancelled]"))
	case err != nil:
		fmt.Fprintf(r.out, "%s %v\n", errText("[error]"), err)
	default:
		fmt.Fprintf(r.out, "%s %s\n\n", assistantLabel(r.session.AssistantName()+":"), reply)
	}
}

func (r *repl) handleSlashCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/help", "/?":
		fmt.Fprintln(r.out, replHelp)

	case "/quit", "/exit", "/q":
		return true

	case "/internet":
		r.useInternet = !r.useInternet
		r.status("internet mode", r.useInternet)

	case "/document", "/doc":
		r.useDocument = !r.useDocument
		r.status("document mode", r.useDocument)
		if _, ok := r.session.Document(); r.useDocument && !ok {
			fmt.Fprintln(r.out, infoText("no document attached; use /attach <path>"))
		}

	case "/attach":
		if len(args) == 0 {
			fmt.Fprintln(r.out, errText("usage: /attach <path>"))
			return false
		}
		doc, err := document.ExtractText(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(r.out, "%s %v\n", errText("[error]"), err)
			return false
		}
		r.session.AttachDocument(doc)
		r.useDocument = true
		fmt.Fprintf(r.out, "%s %s (%d chars), document mode on\n", okText("attached"), doc.Name, len(doc.Text))

	case "/regen", "/regenerate":
		r.runTurn(ctx, func(ctx context.Context) (string, error) {
			reply, err := r.session.RegenerateLast(ctx)
			return reply.Content, err
		})

	case "/copy":
		if r.session.Len() == 0 {
			fmt.Fprintln(r.out, infoText("nothing to copy"))
			return false
		}
		if err := r.clipboard(r.session.ExportAsText()); err != nil {
			fmt.Fprintf(r.out, "%s %v\n", errText("[error]"), err)
			return false
		}
		fmt.Fprintln(r.out, okText("conversation copied to clipboard"))

	case "/export":
		r.export(args)

	case "/clear":
		if r.session.Len() == 0 {
			return false
		}
		if r.confirm("Clear the whole conversation?") {
			r.session.Clear()
			fmt.Fprintln(r.out, okText("conversation cleared"))
		}

	default:
		fmt.Fprintf(r.out, "%s unknown command %s; type /help\n", errText("[error]"), name)
	}
	return false
}

func (r *repl) export(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%s usage: /export <%s> [path]\n", errText("[error]"), strings.Join(export.Formats(), "|"))
		return
	}
	exporter, err := export.ForFormat(args[0], export.DefaultOptions())
	if err != nil {
		fmt.Fprintf(r.out, "%s %v\n", errText("[error]"), err)
		return
	}
	path := ""
	if len(args) > 1 {
		path = strings.Join(args[1:], " ")
	}
	written, err := export.WriteFile(r.session.Transcript(), exporter, path)
	if err != nil {
		fmt.Fprintf(r.out, "%s %v\n", errText("[error]"), err)
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", okText("exported to"), written)
}

func (r *repl) status(what string, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	fmt.Fprintf(r.out, "%s %s\n", what, okText(state))
}
