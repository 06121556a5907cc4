// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sentinel-syx/internal/model"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionChangedMsg reports that the session log or busy state changed.
type SessionChangedMsg struct{}

// TurnDoneMsg is sent when a submit or regenerate call returns.
type TurnDoneMsg struct {
	Reply model.Message
	Err   error
}

// CredentialsSavedMsg is sent after the setup form was persisted.
type CredentialsSavedMsg struct {
	Err error
}

// ExportDoneMsg is sent after /export wrote a file.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// noticeMsg sets the status bar notice.
type noticeMsg struct {
	text  string
	isErr bool
}

// =============================================================================
// CHANGE NOTIFIER
// =============================================================================

// Notifier turns session change callbacks into Bubble Tea messages.
// Pass Notify to conversation.WithOnChange and the Notifier to the Model.
type Notifier struct {
	ch chan struct{}
}

// NewNotifier creates a notifier. Bursts of changes collapse into one
// pending message.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Notify records a change without blocking.
func (n *Notifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Wait returns a command that blocks until the next change.
func (n *Notifier) Wait() tea.Cmd {
	return func() tea.Msg {
		<-n.ch
		return SessionChangedMsg{}
	}
}
