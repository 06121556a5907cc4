// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds the small helpers shared by sentinel's packages.
//
// String Utilities:
//   - TruncateWidth: display-width aware truncation with ellipsis
//   - OneLine: collapse a message into a single preview line
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	preview := util.TruncateWidth(util.OneLine(msg.Content), 40)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
