// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sentinel-syx/internal/conversation"
	"github.com/jeranaias/sentinel-syx/internal/credentials"
	"github.com/jeranaias/sentinel-syx/internal/model"
)

type echoCompleter struct {
	calls int
}

func (c *echoCompleter) Complete(_ context.Context, turns []model.Turn, _ float64, _ string) (string, error) {
	c.calls++
	return "echo " + turns[len(turns)-1].Content, nil
}

func newTestREPL() (*repl, *bytes.Buffer, *echoCompleter) {
	var out bytes.Buffer
	completer := &echoCompleter{}
	session := conversation.NewSession(completer, nil, credentials.Static{CompletionKey: "sk"})
	return newREPL(session, &out), &out, completer
}

func TestREPL_SubmitsTurns(t *testing.T) {
	r, out, _ := newTestREPL()
	ctx := context.Background()

	assert.False(t, r.handleLine(ctx, "hello"))
	assert.Contains(t, out.String(), "echo hello")
	assert.Equal(t, 2, r.session.Len())

	assert.False(t, r.handleLine(ctx, "   "))
	assert.Equal(t, 2, r.session.Len())
}

func TestREPL_Quit(t *testing.T) {
	r, _, _ := newTestREPL()
	for _, line := range []string{"/quit", "/exit", "exit", "QUIT"} {
		assert.True(t, r.handleLine(context.Background(), line), line)
	}
}

func TestREPL_ToggleModes(t *testing.T) {
	r, out, _ := newTestREPL()
	ctx := context.Background()
	assert.Equal(t, "you> ", r.prompt())

	r.handleLine(ctx, "/internet")
	assert.True(t, r.useInternet)
	r.handleLine(ctx, "/document")
	assert.True(t, r.useDocument)
	assert.Contains(t, out.String(), "no document attached")
	assert.Equal(t, "you [web,doc]> ", r.prompt())

	r.handleLine(ctx, "question")
	msgs := r.session.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].UseInternet)
	assert.True(t, msgs[0].UseDocument)

	r.handleLine(ctx, "/internet")
	assert.False(t, r.useInternet)
}

func TestREPL_Attach(t *testing.T) {
	r, out, _ := newTestREPL()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes"), 0o600))

	r.handleLine(ctx, "/attach")
	assert.Contains(t, out.String(), "usage: /attach")

	r.handleLine(ctx, "/attach "+path)
	doc, ok := r.session.Document()
	require.True(t, ok)
	assert.Equal(t, "notes.md", doc.Name)
	assert.True(t, r.useDocument)

	out.Reset()
	r.handleLine(ctx, "/attach "+filepath.Join(t.TempDir(), "missing.txt"))
	assert.Contains(t, out.String(), "[error]")
}

func TestREPL_Regenerate(t *testing.T) {
	r, out, completer := newTestREPL()
	ctx := context.Background()

	r.handleLine(ctx, "/regen")
	assert.Contains(t, out.String(), conversation.ErrNoUserTurn.Error())

	r.handleLine(ctx, "one")
	r.handleLine(ctx, "/regen")
	assert.Equal(t, 2, r.session.Len())
	assert.Equal(t, 2, completer.calls)
}

func TestREPL_ClearAsksFirst(t *testing.T) {
	r, out, _ := newTestREPL()
	ctx := context.Background()
	r.handleLine(ctx, "hi")

	var asked []string
	r.confirm = func(q string) bool {
		asked = append(asked, q)
		return false
	}
	r.handleLine(ctx, "/clear")
	assert.Len(t, asked, 1)
	assert.Equal(t, 2, r.session.Len())

	r.confirm = func(string) bool { return true }
	r.handleLine(ctx, "/clear")
	assert.Equal(t, 0, r.session.Len())
	assert.Contains(t, out.String(), "conversation cleared")
}

func TestREPL_Copy(t *testing.T) {
	r, out, _ := newTestREPL()
	ctx := context.Background()
	var copied []string
	r.clipboard = func(s string) error {
		copied = append(copied, s)
		return nil
	}

	r.handleLine(ctx, "/copy")
	assert.Empty(t, copied)
	assert.Contains(t, out.String(), "nothing to copy")

	r.handleLine(ctx, "hi")
	r.handleLine(ctx, "/copy")
	require.Len(t, copied, 1)
	assert.True(t, strings.HasPrefix(copied[0], "You: hi\n\n"))

	r.clipboard = func(string) error { return errors.New("no clipboard") }
	r.handleLine(ctx, "/copy")
	assert.Contains(t, out.String(), "no clipboard")
}

func TestREPL_Export(t *testing.T) {
	r, out, _ := newTestREPL()
	ctx := context.Background()
	r.handleLine(ctx, "hi")

	r.handleLine(ctx, "/export")
	assert.Contains(t, out.String(), "usage: /export")

	path := filepath.Join(t.TempDir(), "chat.md")
	r.handleLine(ctx, "/export markdown "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "echo hi")

	out.Reset()
	r.handleLine(ctx, "/export docx")
	assert.Contains(t, out.String(), "[error]")
}

func TestREPL_UnknownCommand(t *testing.T) {
	r, out, _ := newTestREPL()
	assert.False(t, r.handleLine(context.Background(), "/bogus"))
	assert.Contains(t, out.String(), "unknown command /bogus")

	out.Reset()
	r.handleLine(context.Background(), "/help")
	assert.Contains(t, out.String(), "/attach <path>")
}
