// Copyright SoenkevL, 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/SoenkevL/pdf2md/internal/container"
	"github.com/SoenkevL/pdf2md/pkg/types"
)

const imageMarkitdown = "markitdown:latest"

// MarkitdownEngine converts PDFs by piping them through the markitdown
// container image. It yields Markdown only; markitdown extracts no images,
// so the rendered document carries no side artifacts.
type MarkitdownEngine struct {
	runtime container.Runtime
}

// NewMarkitdownEngine creates an engine backed by the given container
// runtime. It verifies that the markitdown image exists locally before
// returning.
func NewMarkitdownEngine(rt container.Runtime) (*MarkitdownEngine, error) {
	if err := rt.ImageExists(imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownEngine{runtime: rt}, nil
}

// Convert pipes the PDF at pdfPath through the markitdown container and
// returns the resulting Markdown. The conversion configuration is accepted
// for interface compatibility; markitdown has no tunable options.
func (e *MarkitdownEngine) Convert(ctx context.Context, pdfPath string, _ types.ConversionConfig) (*types.RenderedDocument, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := e.runtime.Run(ctx, imageMarkitdown, f, &out); err != nil {
		return nil, fmt.Errorf("converting %s with markitdown: %w", pdfPath, err)
	}

	if out.Len() == 0 {
		return nil, fmt.Errorf("markitdown produced empty output for %s", pdfPath)
	}

	return &types.RenderedDocument{Markdown: out.String()}, nil
}
