// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package deepseek

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/sentinel-syx/internal/model"
)

// Configuration constants for the DeepSeek API.
const (
	// DefaultBaseURL is the API root; "/chat/completions" is appended.
	DefaultBaseURL = "https://api.deepseek.com/v1"

	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "deepseek-chat"

	// DefaultMaxTokens caps the size of each reply.
	DefaultMaxTokens = 2000

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	userAgent = "sentinel/1.0"
)

// Error variables for common completion errors.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("DeepSeek API key not configured")

	// ErrInvalidTemperature indicates a temperature outside [0, 1].
	ErrInvalidTemperature = errors.New("temperature must be between 0.0 and 1.0")

	// ErrAuthFailed indicates authentication failed (invalid or revoked key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrInsufficientCredits indicates the account balance is exhausted.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmptyResponse indicates a 2xx reply without any choices.
	ErrEmptyResponse = errors.New("response contained no choices")
)

// APIError represents a non-2xx reply not covered by a sentinel error.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("DeepSeek error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("DeepSeek error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// chatRequest is the body of a chat completions request.
type chatRequest struct {
	Model       string       `json:"model"`
	Messages    []model.Turn `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
}

// chatResponse is the part of a chat completions response we consume.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      model.Turn `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// apiErrorResponse represents an error response from the API.
type apiErrorResponse struct {
	Error struct {
		Code    any    `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a DeepSeek chat completions client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client with default endpoint, model and timeout.
func NewClient() *Client {
	return &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		maxTokens:  DefaultMaxTokens,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zerolog.Nop(),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithModel sets the model identifier sent with every request.
func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

// WithMaxTokens sets the reply size cap.
func (c *Client) WithMaxTokens(n int) *Client {
	if n > 0 {
		c.maxTokens = n
	}
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger sets the logger used for request/response lines.
func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	c.logger = logger.With().Str("component", "deepseek").Logger()
	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Fingerprint returns a short SHA-256 fingerprint of key for logging.
// The key itself must never be logged.
func Fingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}

// Complete sends turns to the chat completions endpoint and returns the
// first choice's content.
func (c *Client) Complete(ctx context.Context, turns []model.Turn, temperature float64, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrNotConfigured
	}
	if temperature < 0 || temperature > 1 {
		return "", fmt.Errorf("%w: got %g", ErrInvalidTemperature, temperature)
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    turns,
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	}
	if reqBody.Messages == nil {
		reqBody.Messages = []model.Turn{}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	requestURL := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("model", c.model).
		Int("turns", len(turns)).
		Str("key_fp", Fingerprint(key)).
		Msg("completion request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("completion response")

	body, err := readResponse(resp)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return chatResp.Choices[0].Message.Content, nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	code := ""

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
		if apiErr.Error.Code != nil {
			code = fmt.Sprint(apiErr.Error.Code)
		} else {
			code = apiErr.Error.Type
		}
	}

	var sentinel error
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrAuthFailed
	case http.StatusPaymentRequired:
		sentinel = ErrInsufficientCredits
	case http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	default:
		if msg == "" {
			msg = http.StatusText(statusCode)
		}
		return &APIError{Status: statusCode, Code: code, Message: msg}
	}

	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// Classify returns a short label for err suitable for log fields.
func Classify(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrAuthFailed):
		return "auth"
	case errors.Is(err, ErrInsufficientCredits):
		return "credits"
	case errors.Is(err, ErrRateLimited):
		return "rate_limit"
	case errors.Is(err, ErrInvalidTemperature):
		return "invalid_temperature"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("api_%d", apiErr.Status)
	default:
		return "transport"
	}
}
