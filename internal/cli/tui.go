// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sentinel-syx/internal/conversation"
	"github.com/jeranaias/sentinel-syx/internal/ui/chat"
	"github.com/jeranaias/sentinel-syx/internal/ui/styles"
)

// runTUI starts the full-screen chat. The TUI owns the terminal, so logs
// always go to the log file.
func (a *App) runTUI(ctx context.Context) error {
	if !a.stdinIsTerminal() {
		return &TTYRequiredError{Operation: "start the chat screen", Hint: "use `sentinel ask` for piped input"}
	}
	if err := a.openLogger(false, nil); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	creds, err := a.openCredentials(ctx)
	if err != nil {
		return err
	}

	notifier := chat.NewNotifier()
	session := a.newSession(creds, conversation.WithOnChange(notifier.Notify))

	m := chat.New(chat.Options{
		Session:     session,
		Credentials: creds,
		Notifier:    notifier,
		Theme:       styles.NewTheme(),
		Logger:      a.logger,
	})

	a.logger.Info().Str("version", Version).Msg("starting chat screen")
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat screen: %w", err)
	}
	return nil
}
