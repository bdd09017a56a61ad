// Copyright SoenkevL, 2026. All rights reserved.

package types

// RenderedDocument is the result of one engine conversion: Markdown text
// plus any side artifacts extracted from the PDF. Callers treat it as
// opaque except for handing it to the write-out step.
type RenderedDocument struct {
	// Markdown is the converted document text.
	Markdown string

	// Images maps artifact filenames to raw image bytes.
	Images map[string][]byte

	// Metadata carries engine-reported details (page count, table of
	// contents, timings) written alongside the primary document.
	Metadata map[string]any
}
