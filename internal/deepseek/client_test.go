// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sentinel-syx/internal/model"
)

const okBody = `{
	"id": "test-id",
	"model": "deepseek-chat",
	"choices": [{
		"message": {"role": "assistant", "content": "hello there"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient().WithBaseURL(server.URL + "/")
}

// =============================================================================
// REQUEST SHAPE
// =============================================================================

func TestComplete_RequestShape(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(okBody))
	})

	turns := []model.Turn{
		model.UserTurn("hi"),
		model.AssistantTurn("hello"),
		model.UserTurn("how are you"),
	}
	reply, err := client.Complete(context.Background(), turns, 0.7, "sk-test")
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.Equal(t, turns, got.Messages)
}

func TestComplete_ZeroTemperatureIsSent(t *testing.T) {
	var raw map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(okBody))
	})

	_, err := client.Complete(context.Background(), []model.Turn{model.UserTurn("x")}, 0, "k")
	require.NoError(t, err)
	assert.Contains(t, raw, "temperature")
	assert.Equal(t, 0.0, raw["temperature"])
}

func TestComplete_CustomModelAndMaxTokens(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(okBody))
	}))
	defer server.Close()

	client := NewClient().WithBaseURL(server.URL).WithModel("deepseek-reasoner").WithMaxTokens(512)
	_, err := client.Complete(context.Background(), nil, 1, "k")
	require.NoError(t, err)
	assert.Equal(t, "deepseek-reasoner", got.Model)
	assert.Equal(t, 512, got.MaxTokens)
	assert.NotNil(t, got.Messages)
}

// =============================================================================
// LOCAL VALIDATION
// =============================================================================

func TestComplete_NoKeyMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.Complete(context.Background(), []model.Turn{model.UserTurn("x")}, 0.5, "  ")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, calls.Load())
}

func TestComplete_InvalidTemperature(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	for _, temp := range []float64{-0.1, 1.01, 2} {
		_, err := client.Complete(context.Background(), nil, temp, "k")
		assert.ErrorIs(t, err, ErrInvalidTemperature)
	}
	assert.Zero(t, calls.Load())
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

func TestComplete_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		class  string
	}{
		{"unauthorized", 401, `{"error":{"message":"bad key","type":"authentication_error"}}`, ErrAuthFailed, "auth"},
		{"forbidden", 403, ``, ErrAuthFailed, "auth"},
		{"payment", 402, `{"error":{"message":"Insufficient Balance"}}`, ErrInsufficientCredits, "credits"},
		{"rate limit", 429, `{"error":{"message":"slow down"}}`, ErrRateLimited, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), nil, 0.5, "k")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.class, Classify(err))
		})
	}
}

func TestComplete_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded","code":"server_busy"}}`))
	})

	_, err := client.Complete(context.Background(), nil, 0.5, "k")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.Status)
	assert.Equal(t, "server_busy", apiErr.Code)
	assert.Equal(t, "overloaded", apiErr.Message)
	assert.Equal(t, "api_503", Classify(err))
}

func TestComplete_APIErrorPlainBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Complete(context.Background(), nil, 0.5, "k")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusText(500), apiErr.Message)
}

func TestComplete_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := client.Complete(context.Background(), nil, 0.5, "k")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_MalformedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := client.Complete(context.Background(), nil, 0.5, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestComplete_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, nil, 0.5, "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "cancelled", Classify(err))
}

func TestComplete_OversizedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chunk := strings.Repeat("a", 1024*1024)
		for i := 0; i <= MaxResponseSize/len(chunk); i++ {
			w.Write([]byte(chunk))
		}
	})

	_, err := client.Complete(context.Background(), nil, 0.5, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

// =============================================================================
// FINGERPRINT
// =============================================================================

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "none", Fingerprint(""))

	fp := Fingerprint("sk-secret-key")
	assert.Len(t, fp, 8)
	assert.NotContains(t, fp, "secret")
	assert.Equal(t, fp, Fingerprint("sk-secret-key"))
	assert.NotEqual(t, fp, Fingerprint("sk-other-key"))
}

func TestClassify_Transport(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, "transport", Classify(errors.New("dial tcp: refused")))
}
