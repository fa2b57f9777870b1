// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/jeranaias/supportwidget/pkg/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports the transcript as a standalone HTML document.
// All user-provided content is entity-escaped; unescaped export is a
// correctness bug, not a style choice.
type HTMLExporter struct {
	// Title is the document title.
	Title string
}

// Export converts a message log to HTML.
func (e *HTMLExporter) Export(messages []*model.Message) ([]byte, error) {
	title := e.Title
	if title == "" {
		title = "Conversation transcript"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(title)))
	sb.WriteString("<style>\n")
	sb.WriteString("body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; }\n")
	sb.WriteString(".msg { margin: 0.75rem 0; padding: 0.5rem 0.75rem; border-radius: 8px; }\n")
	sb.WriteString(".customer { background: #e8f0fe; }\n")
	sb.WriteString(".agent { background: #f1f3f4; }\n")
	sb.WriteString(".system { color: #666; font-style: italic; }\n")
	sb.WriteString(".meta { font-size: 0.8rem; color: #555; }\n")
	sb.WriteString("</style>\n</head>\n<body>\n")
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(title)))

	for _, msg := range messages {
		sb.WriteString(fmt.Sprintf("<div class=\"msg %s\">\n", html.EscapeString(string(msg.Origin))))
		sb.WriteString(fmt.Sprintf("<div class=\"meta\">%s &middot; %s</div>\n",
			html.EscapeString(msg.Origin.DisplayName()),
			formatTimestamp(msg.CreatedAt)))
		sb.WriteString(fmt.Sprintf("<p>%s</p>\n", html.EscapeString(msg.Text)))

		if msg.Attachment != nil {
			sb.WriteString(fmt.Sprintf("<div class=\"meta\">File: %s (%d bytes)</div>\n",
				html.EscapeString(msg.Attachment.Name), msg.Attachment.SizeBytes))
		}
		if msg.Audio != nil {
			sb.WriteString(fmt.Sprintf("<div class=\"meta\">Voice message (%ds)</div>\n", msg.AudioSeconds))
		}
		sb.WriteString("</div>\n")
	}

	sb.WriteString("</body>\n</html>\n")
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
