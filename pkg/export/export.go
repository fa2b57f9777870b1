// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"time"

	"github.com/jeranaias/supportwidget/internal/util"
	"github.com/jeranaias/supportwidget/pkg/model"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a message log snapshot to the target format.
	Export(messages []*model.Message) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g. ".csv").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Format names a supported transcript format.
type Format string

const (
	FormatPlainText Format = "plainText"
	FormatJSON      Format = "json"
	FormatHTML      Format = "html"
	FormatCSV       Format = "csv"
)

// =============================================================================
// ARTIFACT
// =============================================================================

// Artifact is a downloadable transcript: content plus the metadata the
// host needs to hand it to the user.
type Artifact struct {
	Filename string
	MimeType string
	Content  []byte
}

// =============================================================================
// EXPORT ENTRY POINT
// =============================================================================

// New returns the exporter for a format.
func New(format Format) (Exporter, error) {
	switch format {
	case FormatPlainText:
		return &TextExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	case FormatHTML:
		return &HTMLExporter{Title: "Conversation transcript"}, nil
	case FormatCSV:
		return &CSVExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// Transcript exports a message log snapshot as a downloadable artifact
// in the chosen format.
func Transcript(format Format, title string, messages []*model.Message) (*Artifact, error) {
	exporter, err := New(format)
	if err != nil {
		return nil, err
	}

	content, err := exporter.Export(messages)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	if title == "" {
		title = "transcript"
	}
	filename := fmt.Sprintf("%s_%s%s",
		util.SanitizeFilename(title),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	return &Artifact{
		Filename: filename,
		MimeType: exporter.MimeType(),
		Content:  content,
	}, nil
}

// formatTimestamp formats a per-message timestamp for display formats.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
