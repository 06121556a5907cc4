// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: one role-tagged entry of the visible conversation
//   - Turn: the {role, content} projection sent to the completion API
//   - Log: the ordered, append-only message log owned by a session
//   - Credentials: the completion and search API keys
//
// # Usage
//
//	var log model.Log
//	log.Append(model.NewUserMessage("Hello!", model.Flags{}))
//	turns := log.Turns()
package model
