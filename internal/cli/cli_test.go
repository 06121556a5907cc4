// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sentinel-syx/internal/conversation"
	"github.com/jeranaias/sentinel-syx/internal/credentials"
	"github.com/jeranaias/sentinel-syx/internal/deepseek"
	"github.com/jeranaias/sentinel-syx/internal/localstore"
	"github.com/jeranaias/sentinel-syx/internal/model"
)

// =============================================================================
// HELPERS
// =============================================================================

// TestMain isolates the package from the user's ~/.sentinel and SENTINEL_*
// overrides. Tests that need a fresh home call t.Setenv.
func TestMain(m *testing.M) {
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "SENTINEL_") {
			os.Unsetenv(name)
		}
	}
	home, err := os.MkdirTemp("", "sentinel-cli-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("SENTINEL_HOME", home)

	code := m.Run()
	os.RemoveAll(home)
	os.Exit(code)
}

// newTestApp fakes the terminal.
func newTestApp(t *testing.T, stdinTTY bool) *App {
	t.Helper()
	a := NewApp()
	a.stdinIsTerminal = func() bool { return stdinTTY }
	a.stdoutIsTerminal = func() bool { return false }
	t.Cleanup(func() { a.Close() })
	return a
}

type result struct {
	stdout string
	stderr string
	err    error
}

func run(a *App, stdin string, args ...string) result {
	cmd := a.RootCommand()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

// runOnce runs a command in a fresh App that is closed afterwards, so the
// local store is released between invocations.
func runOnce(t *testing.T, stdinTTY bool, stdin string, args ...string) result {
	t.Helper()
	a := newTestApp(t, stdinTTY)
	res := run(a, stdin, args...)
	require.NoError(t, a.Close())
	return res
}

// completionServer fakes the chat completions endpoint and records requests.
type completionServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

type recordedRequest struct {
	Auth     string
	Messages []model.Turn
}

func newCompletionServer(t *testing.T, reply string) *completionServer {
	t.Helper()
	s := &completionServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body struct {
			Messages []model.Turn `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{Auth: r.Header.Get("Authorization"), Messages: body.Messages})
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
	t.Cleanup(s.Close)
	t.Setenv("SENTINEL_COMPLETION_URL", s.URL)
	return s
}

func (s *completionServer) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

// =============================================================================
// ROOT / VERSION
// =============================================================================

func TestVersionCommand(t *testing.T) {
	res := runOnce(t, false, "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "sentinel "+Version)
	assert.Contains(t, res.stdout, "commit: "+GitCommit)
}

func TestRoot_RefusesNonTerminal(t *testing.T) {
	res := runOnce(t, false, "")
	var ttyErr *TTYRequiredError
	require.ErrorAs(t, res.err, &ttyErr)
	assert.Contains(t, ttyErr.Error(), "sentinel ask")
}

func TestChat_RefusesNonTerminal(t *testing.T) {
	res := runOnce(t, false, "", "chat")
	var ttyErr *TTYRequiredError
	assert.ErrorAs(t, res.err, &ttyErr)
}

func TestRoot_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[completion]\ntemperature = 9\n"), 0o600))

	res := runOnce(t, false, "", "--config", path, "version")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid config")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigInitAndPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SENTINEL_HOME", home)

	res := runOnce(t, false, "", "config", "init")
	require.NoError(t, res.err)
	assert.FileExists(t, filepath.Join(home, "config.toml"))

	res = runOnce(t, false, "", "config", "init")
	assert.ErrorContains(t, res.err, "already exists")

	res = runOnce(t, false, "", "config", "init", "--force")
	assert.NoError(t, res.err)

	res = runOnce(t, false, "", "config", "path")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, filepath.Join(home, "config.toml"))
	assert.Contains(t, res.stdout, filepath.Join(home, "localstore.db")+" (sqlite)")
	assert.Contains(t, res.stdout, filepath.Join(home, "sentinel.log"))
}

func TestConfigSetGet(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())

	res := runOnce(t, false, "", "config", "set", "assistant.tone", "friendly")
	require.NoError(t, res.err)
	assert.Equal(t, "assistant.tone = friendly\n", res.stdout)

	res = runOnce(t, false, "", "config", "get", "assistant.tone")
	require.NoError(t, res.err)
	assert.Equal(t, "friendly\n", res.stdout)

	res = runOnce(t, false, "", "config", "set", "assistant.tone", "grumpy")
	assert.Error(t, res.err)

	res = runOnce(t, false, "", "config", "get", "assistant.nope")
	assert.Error(t, res.err)
}

func TestConfigShowAndKeys(t *testing.T) {
	res := runOnce(t, false, "", "config", "show")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[completion]")
	assert.Contains(t, res.stdout, "deepseek-chat")

	res = runOnce(t, false, "", "config", "keys")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "storage.backend\n")
}

// =============================================================================
// SETUP
// =============================================================================

func TestSetup_RefusesNonTerminalWithoutFlags(t *testing.T) {
	res := runOnce(t, false, "", "setup")
	var ttyErr *TTYRequiredError
	require.ErrorAs(t, res.err, &ttyErr)
	assert.Contains(t, ttyErr.Error(), "--completion-key")
}

func TestSetup_FromFlags(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SENTINEL_HOME", home)

	res := runOnce(t, false, "", "setup", "--completion-key", " sk-test ", "--search-key", "serper")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, deepseek.Fingerprint("sk-test"))
	assert.NotContains(t, res.stdout, "sk-test")

	store, err := localstore.Open(filepath.Join(home, "localstore.db"))
	require.NoError(t, err)
	defer store.Close()
	creds, err := credentials.Load(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, model.Credentials{CompletionKey: "sk-test", SearchKey: "serper"}, creds)
}

func TestSetup_KeepsOtherKey(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())

	require.NoError(t, runOnce(t, false, "", "setup", "--completion-key", "sk-1", "--search-key", "s-1").err)
	res := runOnce(t, false, "", "setup", "--search-key", "s-2")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, deepseek.Fingerprint("sk-1"))
	assert.Contains(t, res.stdout, deepseek.Fingerprint("s-2"))
}

func TestSetup_Forget(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())

	require.NoError(t, runOnce(t, false, "", "setup", "--completion-key", "sk-1").err)
	res := runOnce(t, false, "", "setup", "--forget")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "removed")

	res = runOnce(t, false, "", "setup", "--search-key", "s")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "DeepSeek key: not set")
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PipedQuestion(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())
	server := newCompletionServer(t, "Goroutines are cheap threads.")

	require.NoError(t, runOnce(t, false, "", "setup", "--completion-key", "sk-test").err)

	res := runOnce(t, false, "  what is a goroutine?\n", "ask")
	require.NoError(t, res.err)
	assert.Equal(t, "Goroutines are cheap threads.\n", res.stdout)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer sk-test", reqs[0].Auth)
	assert.Equal(t, []model.Turn{model.UserTurn("what is a goroutine?")}, reqs[0].Messages)
}

func TestAsk_ArgumentsWinOverStdin(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())
	server := newCompletionServer(t, "ok")
	require.NoError(t, runOnce(t, false, "", "setup", "--completion-key", "sk").err)

	res := runOnce(t, false, "ignored", "ask", "hello", "there")
	require.NoError(t, res.err)
	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "hello there", reqs[0].Messages[0].Content)
}

func TestAsk_WithDocument(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())
	server := newCompletionServer(t, "summary")
	require.NoError(t, runOnce(t, false, "", "setup", "--completion-key", "sk").err)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\r\nline two"), 0o600))

	res := runOnce(t, false, "", "ask", "--file", path, "summarize")
	require.NoError(t, res.err)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	msgs := reqs[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "summarize", msgs[0].Content)
	assert.Contains(t, msgs[1].Content, `"notes.txt"`)
	assert.Contains(t, msgs[1].Content, "line one\nline two")
}

func TestAsk_BadDocument(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())
	res := runOnce(t, false, "", "ask", "--file", "/does/not/exist", "hi")
	assert.Error(t, res.err)
}

func TestAsk_NoKeyPrintsConfigurePrompt(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())
	server := newCompletionServer(t, "unused")

	res := runOnce(t, false, "", "ask", "hello")
	require.NoError(t, res.err)
	assert.Equal(t, conversation.ConfigurePrompt+"\n", res.stdout)
	assert.Contains(t, res.stderr, "sentinel setup")
	assert.Empty(t, server.Requests())
}

func TestAsk_NoQuestion(t *testing.T) {
	res := runOnce(t, true, "", "ask")
	assert.True(t, errors.Is(res.err, errNoQuestion))

	res = runOnce(t, false, "   \n", "ask")
	assert.True(t, errors.Is(res.err, errNoQuestion))
}

func TestAsk_BoltBackend(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SENTINEL_HOME", home)
	t.Setenv("SENTINEL_STORE_BACKEND", "bolt")
	server := newCompletionServer(t, "from bolt")

	require.NoError(t, runOnce(t, false, "", "setup", "--completion-key", "sk-bolt").err)
	res := runOnce(t, false, "", "ask", "hi")
	require.NoError(t, res.err)
	assert.Equal(t, "from bolt\n", res.stdout)
	assert.Equal(t, "Bearer sk-bolt", server.Requests()[0].Auth)

	store, err := localstore.OpenBackend(filepath.Join(home, "localstore.db"), localstore.BackendBolt)
	require.NoError(t, err)
	defer store.Close()
	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{credentials.CompletionKeyName}, keys)
}

func TestAsk_VerboseLogsToStderr(t *testing.T) {
	t.Setenv("SENTINEL_HOME", t.TempDir())
	newCompletionServer(t, "ok")
	require.NoError(t, runOnce(t, false, "", "setup", "--completion-key", "sk-secret").err)

	res := runOnce(t, false, "", "--verbose", "ask", "hi")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "credentials loaded")
	assert.NotContains(t, res.stderr, "sk-secret")
}
