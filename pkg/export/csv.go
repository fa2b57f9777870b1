// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/jeranaias/supportwidget/pkg/model"
)

// =============================================================================
// CSV EXPORTER
// =============================================================================

// CSVExporter exports the transcript as CSV. encoding/csv performs
// RFC 4180 quote-doubling, so message text containing commas, quotes,
// or newlines round-trips intact.
type CSVExporter struct{}

// csvHeader is the fixed column set.
var csvHeader = []string{
	"id", "created_at", "origin", "kind", "delivery_status",
	"text", "attachment_name", "attachment_url", "audio_seconds",
}

// Export converts a message log to CSV.
func (e *CSVExporter) Export(messages []*model.Message) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, msg := range messages {
		record := []string{
			msg.ID,
			msg.CreatedAt.Format(time.RFC3339),
			string(msg.Origin),
			string(msg.Kind),
			string(msg.DeliveryStatus),
			msg.Text,
			"", "", "",
		}
		if msg.Attachment != nil {
			record[6] = msg.Attachment.Name
			record[7] = msg.Attachment.RemoteURL
		}
		if msg.Audio != nil {
			record[7] = msg.Audio.RemoteURL
			record[8] = strconv.Itoa(msg.AudioSeconds)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for CSV.
func (e *CSVExporter) FileExtension() string {
	return ".csv"
}

// MimeType returns the MIME type for CSV.
func (e *CSVExporter) MimeType() string {
	return "text/csv"
}
