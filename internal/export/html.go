// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
)

var (
	codeBlockRegex  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a self-contained HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(t.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"sentinel\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n    <div class=\"container\">\n", theme))

	if e.options.IncludeMetadata {
		sb.WriteString("        <header class=\"header\">\n")
		sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(t.Title)))
		sb.WriteString(fmt.Sprintf("            <div class=\"metadata\">Exported %s &middot; %d messages</div>\n",
			formatTimestamp(t.ExportedAt), len(t.Messages)))
		sb.WriteString("        </header>\n")
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range t.Messages {
		sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", msg.Role))
		sb.WriteString("                <div class=\"message-header\">\n")
		sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s</span>\n",
			html.EscapeString(speaker(msg.Role, t.AssistantName))))
		for _, badge := range modeBadges(msg) {
			sb.WriteString(fmt.Sprintf("                    <span class=\"badge\">%s</span>\n", badge))
		}
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp)))
		}
		sb.WriteString("                </div>\n")
		sb.WriteString("                <div class=\"message-content\">\n")
		sb.WriteString(formatHTMLContent(msg.Content))
		sb.WriteString("\n                </div>\n            </div>\n")
	}
	sb.WriteString("        </main>\n")

	sb.WriteString(fmt.Sprintf("        <footer class=\"footer\">Exported from sentinel on %s</footer>\n",
		t.ExportedAt.Format(time.RFC1123)))
	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// formatHTMLContent escapes content and turns fenced and inline code into
// code elements. Other text becomes paragraphs split on blank lines.
func formatHTMLContent(content string) string {
	var out []string
	rest := content
	for {
		loc := codeBlockRegex.FindStringSubmatchIndex(rest)
		if loc == nil {
			out = append(out, paragraphs(rest)...)
			break
		}
		out = append(out, paragraphs(rest[:loc[0]])...)

		lang := rest[loc[2]:loc[3]]
		code := strings.TrimRight(rest[loc[4]:loc[5]], "\n")
		label := ""
		if lang != "" {
			label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", html.EscapeString(lang))
		}
		out = append(out, fmt.Sprintf("<div class=\"code-block\">%s<pre><code class=\"language-%s\">%s</code></pre></div>",
			label, html.EscapeString(lang), html.EscapeString(code)))

		rest = rest[loc[1]:]
	}
	return strings.Join(out, "\n")
}

func paragraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		escaped := html.EscapeString(block)
		escaped = inlineCodeRegex.ReplaceAllString(escaped, "<code class=\"inline-code\">$1</code>")
		escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")
		out = append(out, "<p>"+escaped+"</p>")
	}
	return out
}

// css is the embedded stylesheet.
const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        .dark-theme {
            --bg-primary: #1a1b26; --bg-secondary: #24283b; --bg-tertiary: #414868;
            --text-primary: #c0caf5; --text-muted: #565f89;
            --user-bg: #1f2335; --assistant-bg: #24283b; --code-bg: #1a1b26;
            --accent: #7aa2f7;
        }
        .light-theme {
            --bg-primary: #ffffff; --bg-secondary: #f7f8fa; --bg-tertiary: #e1e4e8;
            --text-primary: #24292e; --text-muted: #6a737d;
            --user-bg: #f6f8fa; --assistant-bg: #ffffff; --code-bg: #f6f8fa;
            --accent: #0366d6;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            line-height: 1.6; color: var(--text-primary); background: var(--bg-primary); padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 32px; background: var(--bg-tertiary); }
        .header h1 { font-size: 28px; margin-bottom: 8px; }
        .metadata, .timestamp, .footer { font-size: 14px; color: var(--text-muted); }
        .conversation { padding: 24px; }
        .message { padding: 16px 20px; margin-bottom: 16px; border-radius: 8px; }
        .user-message { background: var(--user-bg); border-left: 4px solid var(--accent); }
        .assistant-message { background: var(--assistant-bg); }
        .message-header { display: flex; gap: 12px; align-items: baseline; margin-bottom: 8px; }
        .role-label { font-weight: 600; }
        .badge { font-size: 12px; padding: 0 6px; border-radius: 4px; background: var(--bg-tertiary); }
        .message-content p { margin-bottom: 12px; }
        .code-block { margin: 12px 0; background: var(--code-bg); border-radius: 6px; overflow-x: auto; }
        .code-lang { font-size: 12px; padding: 4px 12px; color: var(--text-muted); }
        pre { padding: 12px; font-family: "SF Mono", Monaco, "Fira Code", monospace; font-size: 14px; }
        .inline-code { font-family: monospace; background: var(--code-bg); padding: 1px 4px; border-radius: 3px; }
        .footer { padding: 16px 32px; text-align: center; }
    </style>
`
