// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/supportwidget/pkg/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports the transcript as JSON.
// The output is a faithful representation of the log at export time:
// parsing it back yields the same message list, so it can serve as a
// re-import format.
type JSONExporter struct{}

// jsonTranscript is the exported document shape.
type jsonTranscript struct {
	ExportedAt time.Time        `json:"exported_at"`
	Messages   []*model.Message `json:"messages"`
}

// Export converts a message log to pretty-printed JSON.
func (e *JSONExporter) Export(messages []*model.Message) ([]byte, error) {
	if messages == nil {
		messages = []*model.Message{}
	}
	return json.MarshalIndent(jsonTranscript{
		ExportedAt: time.Now(),
		Messages:   messages,
	}, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
