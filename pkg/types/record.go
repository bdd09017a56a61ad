// Copyright SoenkevL, 2026. All rights reserved.

package types

import "time"

// ConversionRecord is one logged past conversion. Records are created once
// per successful job, never mutated, and dropped only when they age past the
// history cap.
type ConversionRecord struct {
	// ID uniquely identifies the record for preview and download lookups.
	ID string `json:"id"`

	// Filename is the base name of the source PDF.
	Filename string `json:"filename"`

	// PDFPath is the path of the source PDF as submitted.
	PDFPath string `json:"pdf_path"`

	// OutputPath is the directory holding the converted output.
	OutputPath string `json:"output_path"`

	// Timestamp is the record creation time.
	Timestamp time.Time `json:"timestamp"`

	// HasPreview indicates a previewable primary document is expected
	// under OutputPath.
	HasPreview bool `json:"has_preview"`
}
