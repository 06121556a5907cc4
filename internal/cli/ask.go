// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/sentinel-syx/internal/conversation"
	"github.com/jeranaias/sentinel-syx/internal/document"
)

// maxStdinQuestion caps a question read from a pipe.
const maxStdinQuestion = 64 * 1024

// errNoQuestion is returned when neither arguments nor piped input hold a
// question.
var errNoQuestion = errors.New("no question given; pass it as arguments or pipe it on stdin")

type askOptions struct {
	internet bool
	file     string
	raw      bool
}

func (a *App) newAskCommand() *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a single question and print the reply",
		Long: `Ask a single question and print the reply.

With no arguments and a non-terminal stdin, the question is read from stdin.
Replies are rendered as markdown when stdout is a terminal.`,
		Example: `  sentinel ask "What is a goroutine?"
  sentinel ask --internet "Latest Go release"
  sentinel ask --file notes.txt "Summarize this"
  git diff | sentinel ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.internet, "internet", "i", false, "search the web first")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "attach a plain-text document")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print the reply without markdown rendering")
	return cmd
}

func (a *App) runAsk(cmd *cobra.Command, args []string, opts askOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.openLogger(true, cmd.ErrOrStderr()); err != nil {
		return err
	}

	question, err := a.readQuestion(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	creds, err := a.openCredentials(ctx)
	if err != nil {
		return err
	}
	if !creds.Credentials().HasCompletionKey() {
		fmt.Fprintln(cmd.ErrOrStderr(), "No DeepSeek API key stored. Run `sentinel setup` first.")
	}

	session := a.newSession(creds)
	turn := conversation.TurnOptions{UseInternet: opts.internet}
	if opts.file != "" {
		doc, err := document.ExtractText(opts.file)
		if err != nil {
			return err
		}
		session.AttachDocument(doc)
		turn.UseDocument = true
	}

	reply, err := session.SubmitTurn(ctx, question, turn)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.raw || !a.stdoutIsTerminal() {
		fmt.Fprintln(out, reply.Content)
		return nil
	}
	fmt.Fprintln(out, renderMarkdown(reply.Content, GetTerminalWidth()))
	return nil
}

// readQuestion joins the arguments, or reads stdin when there are none and
// stdin is not a terminal.
func (a *App) readQuestion(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if a.stdinIsTerminal() {
		return "", errNoQuestion
	}

	data, err := io.ReadAll(io.LimitReader(stdin, maxStdinQuestion))
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	question := strings.TrimSpace(string(data))
	if question == "" {
		return "", errNoQuestion
	}
	return question, nil
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders content for terminal display. Returns the original
// content if rendering fails.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
