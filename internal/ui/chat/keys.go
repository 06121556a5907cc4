// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the chat screen.
type KeyMap struct {
	Submit         key.Binding
	Regenerate     key.Binding
	Copy           key.Binding
	Clear          key.Binding
	ToggleInternet key.Binding
	ToggleDocument key.Binding
	Setup          key.Binding
	PageUp         key.Binding
	PageDown       key.Binding
	Quit           key.Binding

	// Dialog keys
	Confirm    key.Binding
	Deny       key.Binding
	NextField  key.Binding
	CloseSetup key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "regenerate"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "clear"),
		),
		ToggleInternet: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "internet"),
		),
		ToggleDocument: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "document"),
		),
		Setup: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("C-k", "api keys"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "up", "down"),
			key.WithHelp("tab", "next field"),
		),
		CloseSetup: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Submit, k.ToggleInternet, k.ToggleDocument, k.Regenerate,
		k.Copy, k.Clear, k.Setup, k.Quit,
	}
}

// FullHelp returns the bindings grouped for the /help notice.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Regenerate, k.Copy, k.Clear},
		{k.ToggleInternet, k.ToggleDocument, k.Setup},
		{k.PageUp, k.PageDown, k.Quit},
	}
}
