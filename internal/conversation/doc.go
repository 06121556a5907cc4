// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation drives a chat session.
//
// A Session owns the visible message log and runs the per-turn pipeline:
// append the user message, optionally splice document and web-search
// context into the outgoing request, call the completion service, append
// the reply. Failures never escape as errors; they become fixed reply text
// and a log line.
//
// # Concurrency
//
// Turns are serialized: a SubmitTurn that arrives while another turn is in
// flight waits for it, and only appends its own user message once it runs.
// Clear invalidates the in-flight turn and any queued ones; they return
// ErrSessionCleared without touching the log.
//
// Synthetic turns (document text, search results, tone) are sent with one
// request only. They are never stored in the log.
package conversation
