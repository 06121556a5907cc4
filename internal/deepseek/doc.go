// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package deepseek provides the chat-completion client.
//
// The client speaks the OpenAI-compatible chat completions protocol that
// DeepSeek exposes. One call is one HTTP request: the full turn history,
// a temperature and a bearer key go out, the first choice's text comes
// back. There is no retry and no streaming.
//
// The API key is passed per call so a single Client can outlive credential
// changes made during a session. Keys are never logged; Fingerprint gives
// a stable short identifier for log lines.
package deepseek
