// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/sentinel-syx/internal/model"
)

func sampleTranscript() *Transcript {
	ts := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)
	return &Transcript{
		Title:         "What is Go?",
		AssistantName: "SYX",
		ExportedAt:    ts,
		Messages: []model.Message{
			{ID: "1", Role: model.RoleUser, Content: "What is Go?", Timestamp: ts, Flags: model.Flags{UseInternet: true}},
			{ID: "2", Role: model.RoleAssistant, Content: "A language.\n\n```go\nfmt.Println(\"<hi>\")\n```", Timestamp: ts, Flags: model.Flags{UseInternet: true}},
		},
	}
}

func TestNewTranscript_Title(t *testing.T) {
	msgs := []model.Message{
		model.NewAssistantMessage("hello", model.Flags{}),
		model.NewUserMessage("first\nquestion", model.Flags{}),
	}
	tr := NewTranscript("SYX", msgs)
	assert.Equal(t, "first question", tr.Title)
	assert.Equal(t, "Conversation", NewTranscript("SYX", nil).Title)
}

func TestForFormat(t *testing.T) {
	for _, name := range []string{"text", "txt", "markdown", "MD", "json", "yaml", "yml", "html"} {
		exp, err := ForFormat(name, nil)
		require.NoError(t, err, name)
		assert.NotEmpty(t, exp.FileExtension())
	}

	_, err := ForFormat("pdf", nil)
	assert.ErrorContains(t, err, "unknown export format")
	assert.Equal(t, []string{"html", "json", "markdown", "text", "yaml"}, Formats())
}

func TestExporters_RejectEmpty(t *testing.T) {
	for _, name := range Formats() {
		exp, _ := ForFormat(name, nil)
		_, err := exp.Export(&Transcript{})
		assert.ErrorIs(t, err, ErrEmptyTranscript, name)
		_, err = exp.Export(nil)
		assert.Error(t, err, name)
	}
}

func TestTextExporter(t *testing.T) {
	out, err := NewTextExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "You: What is Go?\n\nSYX: A language."))
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	s := string(out)

	require.True(t, strings.HasPrefix(s, "---\n"))
	end := strings.Index(s[4:], "---\n")
	require.Positive(t, end)

	var fm frontmatter
	require.NoError(t, yaml.Unmarshal([]byte(s[4:4+end]), &fm))
	assert.Equal(t, "What is Go?", fm.Title)
	assert.Equal(t, 2, fm.Messages)

	assert.Contains(t, s, "# What is Go?")
	assert.Contains(t, s, "### You <sub>14:30:00</sub>")
	assert.Contains(t, s, "<sub>Modes: internet</sub>")
	assert.Contains(t, s, "```go\nfmt.Println")
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(sampleTranscript())
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(out), "---"))
	assert.Contains(t, string(out), "### SYX\n")
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	var got Transcript
	require.NoError(t, json.Unmarshal(out, &got))
	require.Len(t, got.Messages, 2)
	assert.True(t, got.Messages[0].UseInternet)
	assert.Equal(t, model.RoleAssistant, got.Messages[1].Role)
}

func TestYAMLExporter(t *testing.T) {
	out, err := NewYAMLExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	var got Transcript
	require.NoError(t, yaml.Unmarshal(out, &got))
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "What is Go?", got.Messages[0].Content)
	assert.True(t, got.Messages[0].UseInternet)
	assert.Contains(t, string(out), "use_internet: true")
}

func TestHTMLExporter_Escapes(t *testing.T) {
	tr := sampleTranscript()
	tr.Title = "<script>alert(1)</script>"
	out, err := NewHTMLExporter(&Options{IncludeMetadata: true, Theme: "light"}).Export(tr)
	require.NoError(t, err)
	s := string(out)

	assert.NotContains(t, s, "<script>")
	assert.Contains(t, s, "&lt;script&gt;")
	assert.Contains(t, s, `class="light-theme"`)
	assert.Contains(t, s, `<code class="language-go">fmt.Println(&#34;&lt;hi&gt;&#34;)</code>`)
	assert.Contains(t, s, `<span class="badge">internet</span>`)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteFile(sampleTranscript(), NewJSONExporter(nil), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "sentinel_What_is_Go-_"))
	assert.True(t, strings.HasSuffix(path, ".json"))

	explicit := filepath.Join(dir, "sub", "chat.md")
	path, err = WriteFile(sampleTranscript(), NewMarkdownExporter(nil), explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
	_, err = os.Stat(explicit)
	assert.NoError(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "conversation", sanitizeFilename(""))
	assert.Equal(t, "a-b_c", sanitizeFilename("a/b c"))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("x", 80))), 50)
}
