// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea model of the sentinel chat screen.

# Layout

	+--------------------------------------------------+
	| S.E.N.T.I.N.E.L S.Y.X  INTERNET  DOC notes.txt   |  header + mode badges
	+--------------------------------------------------+
	| You 14:02 [internet]                              |
	| | what changed in go 1.24?                        |  viewport
	| S.E.N.T.I.N.E.L S.Y.X 14:02                       |  (replies rendered
	| | Go 1.24 adds ...                                |   with glamour)
	+--------------------------------------------------+
	| / Searching and thinking...                       |  activity
	| > _                                               |  textarea
	+--------------------------------------------------+
	| enter send  C-o internet  C-t document  ...       |  status bar
	+--------------------------------------------------+

# Keys

	enter   send              ctrl+o  toggle internet mode
	ctrl+r  regenerate        ctrl+t  toggle document mode
	ctrl+y  copy transcript   ctrl+k  API key form
	ctrl+l  clear (y/n)       pgup/pgdown  scroll
	ctrl+c  quit

Input starting with "/" is a command: /attach <path>, /detach,
/export [format] [path], /clear and /help.

# Session wiring

Turns run inside tea.Cmd goroutines, so the UI never blocks on the network.
A Notifier passed to conversation.WithOnChange turns session changes into
SessionChangedMsg values, which lets the user message appear before the
reply arrives:

	notifier := chat.NewNotifier()
	session := conversation.NewSession(completer, searcher, creds,
		conversation.WithOnChange(notifier.Notify))
	m := chat.New(chat.Options{Session: session, Credentials: creds, Notifier: notifier})
	tea.NewProgram(m, tea.WithAltScreen()).Run()
*/
package chat
