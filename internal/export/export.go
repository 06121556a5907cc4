// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/sentinel-syx/internal/model"
	"github.com/jeranaias/sentinel-syx/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a session log ready for export.
type Transcript struct {
	Title         string          `json:"title" yaml:"title"`
	AssistantName string          `json:"assistant" yaml:"assistant"`
	ExportedAt    time.Time       `json:"exported_at" yaml:"exported_at"`
	Messages      []model.Message `json:"messages" yaml:"messages"`
}

// NewTranscript builds a transcript titled after the first user message.
func NewTranscript(assistantName string, messages []model.Message) *Transcript {
	title := "Conversation"
	for _, m := range messages {
		if m.Role == model.RoleUser {
			title = m.Preview(60)
			break
		}
	}
	return &Transcript{
		Title:         title,
		AssistantName: assistantName,
		ExportedAt:    time.Now(),
		Messages:      messages,
	}
}

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

func validate(t *Transcript) error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export renders the transcript in the target format.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a header (title, date, message count).
	IncludeMetadata bool

	// IncludeTimestamps adds per-message timestamps.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

var constructors = map[string]func(*Options) Exporter{
	"text":     func(o *Options) Exporter { return NewTextExporter(o) },
	"markdown": func(o *Options) Exporter { return NewMarkdownExporter(o) },
	"json":     func(o *Options) Exporter { return NewJSONExporter(o) },
	"yaml":     func(o *Options) Exporter { return NewYAMLExporter(o) },
	"html":     func(o *Options) Exporter { return NewHTMLExporter(o) },
}

var aliases = map[string]string{
	"txt": "text",
	"md":  "markdown",
	"yml": "yaml",
	"htm": "html",
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFormat returns the exporter for a format name or common alias.
func ForFormat(name string, opts *Options) (Exporter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (supported: %s)", name, strings.Join(Formats(), ", "))
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	return ctor(opts), nil
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// WriteFile renders t with exporter and writes it atomically. An empty path
// writes "sentinel_<title>_<timestamp><ext>" in the current directory; a
// path naming an existing directory writes that file name inside it.
// Returns the path written.
func WriteFile(t *Transcript, exporter Exporter, path string) (string, error) {
	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if path == "" || isDir(path) {
		name := fmt.Sprintf("sentinel_%s_%s%s",
			sanitizeFilename(t.Title),
			time.Now().Format("20060102_150405"),
			exporter.FileExtension(),
		)
		path = filepath.Join(path, name)
	}

	if err := util.AtomicWriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	maxLen := 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// speaker returns the display label for a message author.
func speaker(role model.Role, assistantName string) string {
	if role == model.RoleUser {
		return "You"
	}
	return assistantName
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// modeBadges lists the per-turn modes set on msg.
func modeBadges(msg model.Message) []string {
	var badges []string
	if msg.UseInternet {
		badges = append(badges, "internet")
	}
	if msg.UseDocument {
		badges = append(badges, "document")
	}
	return badges
}
