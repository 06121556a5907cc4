// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"strconv"
	"strings"
)

// NoResultsMessage is the rendering of an empty result list.
const NoResultsMessage = "No search results found."

const resultsHeader = "Here are the search results:\n\n"

// FormatResults renders results as a numbered plain-text list. It never
// fails; nil and empty input yield NoResultsMessage.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return NoResultsMessage
	}

	var b strings.Builder
	b.WriteString(resultsHeader)
	for i, r := range results {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(r.Title)
		b.WriteString("\n   ")
		b.WriteString(r.Link)
		b.WriteString("\n")
		if r.Snippet != "" {
			b.WriteString("   ")
			b.WriteString(r.Snippet)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
