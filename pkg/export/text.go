// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/supportwidget/pkg/model"
)

// =============================================================================
// PLAIN TEXT EXPORTER
// =============================================================================

// TextExporter exports the transcript as plain text, one message per
// block with origin label and timestamp.
type TextExporter struct{}

// Export converts a message log to plain text.
func (e *TextExporter) Export(messages []*model.Message) ([]byte, error) {
	var sb strings.Builder

	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("[%s] %s:\n", formatTimestamp(msg.CreatedAt), msg.Origin.DisplayName()))
		sb.WriteString(msg.Text)
		sb.WriteString("\n")

		if msg.Attachment != nil {
			sb.WriteString(fmt.Sprintf("  (file: %s, %d bytes)\n", msg.Attachment.Name, msg.Attachment.SizeBytes))
		}
		if msg.Audio != nil {
			sb.WriteString(fmt.Sprintf("  (voice message, %ds)\n", msg.AudioSeconds))
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}
