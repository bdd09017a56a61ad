// Copyright SoenkevL, 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/SoenkevL/pdf2md/pkg/types"
)

// TextEngine is the dependency-free fallback: plain text extraction with
// the pure-Go pdf library, one paragraph block per page. No layout
// analysis, no images. Useful where neither a marker server nor a
// container runtime is available.
type TextEngine struct{}

// Convert extracts the plain text of every page and joins the pages with
// blank lines.
func (TextEngine) Convert(ctx context.Context, pdfPath string, _ types.ConversionConfig) (*types.RenderedDocument, error) {
	f, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	pages := reader.NumPage()
	var b strings.Builder
	extracted := 0

	for i := 1; i <= pages; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting text from %s page %d: %w", pdfPath, i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if extracted > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
		extracted++
	}

	if b.Len() == 0 {
		return nil, fmt.Errorf("no extractable text in %s", pdfPath)
	}

	return &types.RenderedDocument{
		Markdown: b.String(),
		Metadata: map[string]any{"pages": pages},
	}, nil
}
