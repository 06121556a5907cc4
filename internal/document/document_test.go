// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestExtractText(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("\xef\xbb\xbfline one\r\nline two\r\n"))

	doc, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, "line one\nline two\n", doc.Text)
	assert.Equal(t, "line one line two", doc.Preview(80))
	assert.Contains(t, doc.PromptText(), `"notes.txt"`)
	assert.Contains(t, doc.PromptText(), "line two")
}

func TestExtractText_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"binary", []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}, ErrUnsupported},
		{"nul byte", []byte("text\x00more"), ErrUnsupported},
		{"invalid utf8", []byte{0xff, 0xfe, 0xfd}, ErrUnsupported},
		{"blank", []byte(" \n\t "), ErrEmpty},
		{"too large", bytes.Repeat([]byte("a"), MaxSize+1), ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractText(writeFile(t, "f", tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtractText_ExactlyMaxSize(t *testing.T) {
	doc, err := ExtractText(writeFile(t, "big.txt", bytes.Repeat([]byte("a"), MaxSize)))
	require.NoError(t, err)
	assert.Len(t, doc.Text, MaxSize)
}

func TestExtractText_Missing(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractText_Directory(t *testing.T) {
	_, err := ExtractText(t.TempDir())
	assert.ErrorIs(t, err, ErrUnsupported)
}
