// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export provides transcript export for sentinel.
//
// A Transcript is the in-memory session log plus presentation metadata.
// Exporters render it to bytes; WriteFile places the result on disk
// atomically.
//
// # Supported Formats
//
//   - text: "You: ..." / "<assistant>: ..." paragraphs, the same rendering
//     as the in-app copy action
//   - markdown: YAML frontmatter plus one section per message
//   - json: the full message list, including IDs, timestamps and flags
//   - yaml: same data as json
//   - html: a single self-contained page
//
// # Usage
//
//	exp, err := export.ForFormat("markdown", nil)
//	if err != nil {
//	    return err
//	}
//	path, err := export.WriteFile(transcript, exp, "")
package export
