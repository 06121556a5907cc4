// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export_test

import (
	"fmt"

	"github.com/jeranaias/sentinel-syx/internal/export"
	"github.com/jeranaias/sentinel-syx/internal/model"
)

// ExampleFormatText demonstrates the plain-text transcript rendering.
func ExampleFormatText() {
	messages := []model.Message{
		model.NewUserMessage("What is Go?", model.Flags{}),
		model.NewAssistantMessage("A programming language.", model.Flags{}),
	}

	fmt.Println(export.FormatText(messages, "S.E.N.T.I.N.E.L S.Y.X"))
	// Output:
	// You: What is Go?
	//
	// S.E.N.T.I.N.E.L S.Y.X: A programming language.
}

// ExampleForFormat demonstrates looking up an exporter by name.
func ExampleForFormat() {
	exp, err := export.ForFormat("md", nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(exp.FileExtension(), exp.MimeType())
	// Output: .md text/markdown
}
