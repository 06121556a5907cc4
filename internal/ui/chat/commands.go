// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sentinel-syx/internal/document"
	"github.com/jeranaias/sentinel-syx/internal/export"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const helpText = "/attach <path>  /detach  /export [format] [path]  /help"

// runCommand handles input starting with "/". Unknown commands only set a
// notice; they never reach the session.
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/help", "/?":
		m.setNotice(helpText, false)

	case "/attach":
		if len(args) == 0 {
			m.setNotice("Usage: /attach <path>", true)
			return m, nil
		}
		path := strings.Join(args, " ")
		doc, err := document.ExtractText(path)
		if err != nil {
			m.logger.Warn().Err(err).Str("path", path).Msg("attach failed")
			m.setNotice("Attach failed: "+err.Error(), true)
			return m, nil
		}
		m.session.AttachDocument(doc)
		m.useDocument = true
		m.setNotice(fmt.Sprintf("Attached %s (%d chars)", doc.Name, len(doc.Text)), false)

	case "/detach":
		m.session.DetachDocument()
		m.useDocument = false
		m.setNotice("Document detached", false)

	case "/export":
		format := "markdown"
		if len(args) > 0 {
			format = args[0]
		}
		path := m.exportDir
		if len(args) > 1 {
			path = strings.Join(args[1:], " ")
		}
		return m, m.exportCmd(format, path)

	case "/clear":
		if m.session.Len() > 0 {
			m.confirmClear = true
		}

	default:
		m.setNotice("Unknown command "+name+". "+helpText, true)
	}
	return m, nil
}

// exportCmd writes the transcript off the UI goroutine.
func (m Model) exportCmd(format, path string) tea.Cmd {
	transcript := m.session.Transcript()
	return func() tea.Msg {
		exporter, err := export.ForFormat(format, export.DefaultOptions())
		if err != nil {
			return ExportDoneMsg{Err: err}
		}
		written, err := export.WriteFile(transcript, exporter, path)
		return ExportDoneMsg{Path: written, Err: err}
	}
}
