// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"

	"github.com/jeranaias/sentinel-syx/internal/model"
)

// FormatText renders messages as "You: ..." and "<assistantName>: ..."
// paragraphs joined by a blank line.
func FormatText(messages []model.Message, assistantName string) string {
	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = speaker(m.Role, assistantName) + ": " + m.Content
	}
	return strings.Join(parts, "\n\n")
}

// TextExporter exports transcripts as plain text.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a new plain-text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export renders the transcript with FormatText and a trailing newline.
func (e *TextExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}
	return []byte(FormatText(t.Messages, t.AssistantName) + "\n"), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}
