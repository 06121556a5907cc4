// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search provides the web-search client (Serper) and the plain-text
// rendering of its results that is spliced into completion requests.
package search
