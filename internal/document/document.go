// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document reads user-attached documents as plain text.
//
// Only UTF-8 text files are supported. There is no PDF or office-format
// extraction.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/sentinel-syx/internal/util"
)

// MaxSize is the largest document accepted, in bytes.
const MaxSize = 1024 * 1024

var (
	// ErrUnsupported indicates the file is not UTF-8 text.
	ErrUnsupported = errors.New("unsupported document: only UTF-8 text is supported")

	// ErrTooLarge indicates the file exceeds MaxSize.
	ErrTooLarge = errors.New("document too large")

	// ErrEmpty indicates the file has no text content.
	ErrEmpty = errors.New("document is empty")
)

// Document is an attached text document.
type Document struct {
	// Name is the base file name.
	Name string
	// Path is the path the document was read from.
	Path string
	// Text is the full document content.
	Text string
}

// Preview returns the first line of the document, at most maxWidth columns.
func (d Document) Preview(maxWidth int) string {
	return util.TruncateWidth(util.OneLine(d.Text), maxWidth)
}

// PromptText renders the document as the user turn sent to the model.
func (d Document) PromptText() string {
	return fmt.Sprintf("Here is the content of the attached document %q:\n\n%s", d.Name, d.Text)
}

// ExtractText reads the file at path as plain text.
func ExtractText(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat document: %w", err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%w: %s is a directory", ErrUnsupported, path)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxSize+1))
	if err != nil {
		return Document{}, fmt.Errorf("failed to read document: %w", err)
	}
	if len(data) > MaxSize {
		return Document{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, MaxSize)
	}

	return FromBytes(filepath.Base(path), path, data)
}

// FromBytes validates data as text and wraps it in a Document.
func FromBytes(name, path string, data []byte) (Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return Document{}, ErrUnsupported
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if util.IsBlank(text) {
		return Document{}, ErrEmpty
	}
	return Document{Name: name, Path: path, Text: text}, nil
}
