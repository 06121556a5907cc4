// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the sentinel command tree.
//
// Commands:
//
//	sentinel                  full-screen chat (requires a terminal)
//	sentinel ask [question]   one question, reply on stdout; reads stdin when piped
//	sentinel chat             line-mode chat with history and slash commands
//	sentinel setup            store the DeepSeek and Serper API keys
//	sentinel config ...       show, path, init, get, set, keys
//	sentinel version          build information
//
// Every command shares an App, which loads the configuration once in the
// root's PersistentPreRunE and owns the logger and local store for the
// lifetime of the process.
package cli
