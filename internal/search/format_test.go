// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatResults_Empty(t *testing.T) {
	assert.Equal(t, "No search results found.", FormatResults(nil))
	assert.Equal(t, "No search results found.", FormatResults([]Result{}))
}

func TestFormatResults(t *testing.T) {
	got := FormatResults([]Result{
		{Title: "Go", Link: "https://go.dev", Snippet: "The Go language"},
		{Title: "Tour", Link: "https://go.dev/tour"},
	})

	want := "Here are the search results:\n\n" +
		"1. Go\n   https://go.dev\n   The Go language\n\n" +
		"2. Tour\n   https://go.dev/tour\n\n"
	assert.Equal(t, want, got)
}

func TestFormatResults_KeepsOrder(t *testing.T) {
	results := make([]Result, 12)
	for i := range results {
		results[i] = Result{Title: string(rune('A' + i)), Link: "l"}
	}
	got := FormatResults(results)
	assert.Contains(t, got, "1. A\n")
	assert.Contains(t, got, "12. L\n")
	assert.Less(t, strings.Index(got, "2. B"), strings.Index(got, "3. C"))
}

