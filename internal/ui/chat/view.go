// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sentinel-syx/internal/model"
	"github.com/jeranaias/sentinel-syx/internal/ui/styles"
	"github.com/jeranaias/sentinel-syx/internal/util"
)

const emptyStateText = "Ask me anything.\n" +
	"ctrl+o searches the internet first, /attach <path> adds a document."

// =============================================================================
// MAIN LAYOUT
// =============================================================================

func (m Model) render() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	status := m.renderStatusBar()

	var body string
	switch {
	case m.showSetup:
		body = m.renderCentered(m.setup.view(m.theme, m.creds.Credentials()))
	case m.confirmClear:
		body = m.renderCentered(m.theme.ConfirmBox.Render("Clear the whole conversation? (y/n)"))
	default:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.viewport.View(),
			m.renderActivity(),
			m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

// renderCentered places a dialog in the space between header and status bar.
func (m Model) renderCentered(dialog string) string {
	h := m.height - headerHeight - statusBarHeight
	if h < lipgloss.Height(dialog) {
		h = lipgloss.Height(dialog)
	}
	return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, dialog)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(m.session.AssistantName())
	badges := m.renderBadges()

	line := title + badges
	if m.theme.GetLayoutMode() == styles.LayoutWide {
		line += "  " + m.theme.HeaderHint.Render("DeepSeek + Serper")
	}
	return m.theme.Header.Width(m.width).MaxHeight(headerHeight).Render(line)
}

func (m Model) renderBadges() string {
	var b strings.Builder
	if m.useInternet {
		b.WriteString(m.theme.BadgeInternet.Render("INTERNET"))
	} else {
		b.WriteString(m.theme.BadgeOff.Render("internet off"))
	}

	doc, attached := m.session.Document()
	switch {
	case m.useDocument && attached:
		b.WriteString(m.theme.BadgeDocument.Render("DOC " + doc.Preview(24)))
	case m.useDocument:
		b.WriteString(m.theme.BadgeDocument.Render("DOC (none)"))
	case attached:
		b.WriteString(m.theme.BadgeOff.Render("doc off: " + doc.Preview(24)))
	}
	return b.String()
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m Model) renderMessages(width int) string {
	if m.session == nil || m.session.Len() == 0 {
		return m.theme.EmptyState.Render(emptyStateText)
	}

	msgs := m.session.Messages()
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, m.renderMessage(msg, width))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderMessage(msg model.Message, width int) string {
	contentWidth := max(width-4, 10)
	stamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	if msg.Role == model.RoleUser {
		label := m.theme.UserLabel.Render("You") + " " + stamp + modeSuffix(msg)
		body := m.theme.UserBubble.Width(contentWidth).Render(msg.Content)
		return label + "\n" + body
	}

	label := m.theme.AssistantLabel.Render(m.session.AssistantName()) + " " + stamp
	body := m.theme.AssistantBubble.Render(m.markdown.Render(msg.Content, contentWidth))
	return label + "\n" + body
}

func modeSuffix(msg model.Message) string {
	var modes []string
	if msg.UseInternet {
		modes = append(modes, "internet")
	}
	if msg.UseDocument {
		modes = append(modes, "document")
	}
	if len(modes) == 0 {
		return ""
	}
	return " [" + strings.Join(modes, ", ") + "]"
}

// =============================================================================
// ACTIVITY, STATUS BAR
// =============================================================================

func (m Model) renderActivity() string {
	if !m.busy() {
		return ""
	}
	text := "Thinking..."
	if m.useInternet {
		text = "Searching and thinking..."
	}
	if m.pending > 1 {
		text += " (queued)"
	}
	return m.spinner.View() + " " + m.theme.Thinking.Render(text)
}

func (m Model) renderStatusBar() string {
	notice := util.TruncateWidth(util.OneLine(m.notice), max(m.width-2, 1))

	var line string
	switch {
	case notice != "" && m.noticeErr:
		line = m.theme.NoticeError.Render(notice)
	case notice != "":
		line = m.theme.Notice.Render(notice)
	case m.theme.GetLayoutMode() == styles.LayoutNarrow:
		line = m.theme.ShortcutDsc.Render("C-k keys  C-c quit")
	default:
		line = m.renderShortcuts()
	}
	return m.theme.StatusBar.Width(m.width).MaxHeight(statusBarHeight).Render(line)
}

func (m Model) renderShortcuts() string {
	bindings := m.keys.ShortHelp()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDsc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
