// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sentinel-syx/internal/model"
	"github.com/jeranaias/sentinel-syx/internal/ui/styles"
)

// =============================================================================
// SETUP FORM
// =============================================================================

const (
	fieldCompletion = iota
	fieldSearch
	fieldCount
)

// setupForm collects the two API keys with masked inputs. Empty fields keep
// the stored value.
type setupForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newSetupForm() setupForm {
	var f setupForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		ti.CharLimit = 256
		ti.Width = 48
		ti.Prompt = "> "
		f.inputs[i] = ti
	}
	f.inputs[fieldCompletion].Placeholder = "DeepSeek API key"
	f.inputs[fieldSearch].Placeholder = "Serper API key (optional)"
	f.inputs[fieldCompletion].Focus()
	return f
}

// reset clears both fields and focuses the first one.
func (f *setupForm) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
		f.inputs[i].Blur()
	}
	f.focus = fieldCompletion
	f.err = ""
	f.inputs[f.focus].Focus()
}

func (f *setupForm) next() {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + 1) % fieldCount
	f.inputs[f.focus].Focus()
}

// credentials returns the entered keys, trimmed.
func (f setupForm) credentials() model.Credentials {
	return model.Credentials{
		CompletionKey: strings.TrimSpace(f.inputs[fieldCompletion].Value()),
		SearchKey:     strings.TrimSpace(f.inputs[fieldSearch].Value()),
	}
}

func (f setupForm) update(msg tea.Msg, keys KeyMap) (setupForm, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, keys.NextField) {
		f.next()
		return f, textinput.Blink
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f setupForm) view(theme *styles.Theme, current model.Credentials) string {
	var b strings.Builder
	b.WriteString(theme.DialogTitle.Render("API keys"))
	b.WriteString("\n")

	labels := [fieldCount]string{"DeepSeek API key", "Serper API key"}
	stored := [fieldCount]bool{current.HasCompletionKey(), current.HasSearchKey()}
	for i := range f.inputs {
		label := labels[i]
		if stored[i] {
			label += " (stored, leave empty to keep)"
		}
		style := theme.DialogLabel
		if i == f.focus {
			style = theme.FocusedLabel
		}
		b.WriteString(style.Render(label))
		b.WriteString("\n")
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n\n")
	}

	if f.err != "" {
		b.WriteString(styles.RenderError(f.err))
		b.WriteString("\n")
	}
	b.WriteString(theme.DialogHelp.Render("tab: next field  enter: save  esc: close"))

	return theme.Dialog.Render(b.String())
}
