// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Configuration constants for the Serper API.
const (
	// DefaultBaseURL is the API root; "/search" is appended.
	DefaultBaseURL = "https://google.serper.dev"

	DefaultCountry    = "us"
	DefaultLanguage   = "en"
	DefaultNumResults = 5

	// DefaultTimeout is the default timeout for search requests.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 2 * 1024 * 1024
)

// Error variables for common search errors.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("Serper API key not configured")

	// ErrEmptyQuery indicates a blank query.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrAuthFailed indicates the key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")
)

// APIError represents a non-2xx reply not covered by a sentinel error.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("Serper error (HTTP %d): %s", e.Status, e.Message)
}

// Result is one organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
}

// searchRequest is the body of a search request.
type searchRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl"`
	HL  string `json:"hl"`
	Num int    `json:"num"`
}

// searchResponse is the part of a search response we consume.
type searchResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a Serper search client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	country    string
	language   string
	numResults int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a client with default endpoint and parameters.
func NewClient() *Client {
	return &Client{
		baseURL:    DefaultBaseURL,
		country:    DefaultCountry,
		language:   DefaultLanguage,
		numResults: DefaultNumResults,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zerolog.Nop(),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithLocale sets the country ("gl") and language ("hl") parameters.
func (c *Client) WithLocale(country, language string) *Client {
	if country != "" {
		c.country = country
	}
	if language != "" {
		c.language = language
	}
	return c
}

// WithNumResults sets the number of results requested.
func (c *Client) WithNumResults(n int) *Client {
	if n > 0 {
		c.numResults = n
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

// WithRateLimit throttles requests to perSecond (burst 1). Zero or less
// disables throttling.
func (c *Client) WithRateLimit(perSecond float64) *Client {
	if perSecond <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	return c
}

// WithLogger sets the logger used for request/response lines.
func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	c.logger = logger.With().Str("component", "search").Logger()
	return c
}

// Search runs query against the search endpoint and returns the organic
// results in rank order.
func (c *Client) Search(ctx context.Context, query, key string) ([]Result, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	bodyBytes, err := json.Marshal(searchRequest{
		Q:   query,
		GL:  c.country,
		HL:  c.language,
		Num: c.numResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", key)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("X-API-KEY")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Int("query_len", len(query)).
		Msg("search response")

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrAuthFailed
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Organic))
	for _, o := range parsed.Organic {
		results = append(results, Result{
			Title:   strings.TrimSpace(o.Title),
			Link:    strings.TrimSpace(o.Link),
			Snippet: strings.TrimSpace(o.Snippet),
		})
	}
	return results, nil
}
