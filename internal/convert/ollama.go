// Copyright SoenkevL, 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/SoenkevL/pdf2md/pkg/types"
)

// Cleaner runs an LLM pass over converted Markdown, repairing artifacts
// the mechanical extraction leaves behind: broken lines, lost headings,
// garbled hyphenation.
type Cleaner interface {
	Clean(ctx context.Context, markdown string, cfg types.ConversionConfig) (string, error)
}

// cleanerFor selects the cleanup backend named by the llm_service option.
func cleanerFor(service string) (Cleaner, error) {
	switch service {
	case "", "ollama":
		return &OllamaCleaner{}, nil
	default:
		return nil, fmt.Errorf("unsupported llm service %q", service)
	}
}

const cleanupSystem = `You are a Markdown cleanup assistant. The user message is a Markdown
document produced by automatic PDF conversion. Fix broken line wraps,
restore heading levels, merge hyphenated words split across lines, and
repair obviously garbled tables. Do not summarize, translate, or drop
content. Reply with the corrected Markdown only.`

// OllamaCleaner cleans Markdown through an Ollama server. The server base
// URL and model come from the per-job configuration.
type OllamaCleaner struct {
	// HTTPClient is used for requests to the Ollama server. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Clean sends the document through a single non-streaming generate call
// and returns the model's output. An empty model reply leaves the input
// unchanged rather than discarding the document.
func (c *OllamaCleaner) Clean(ctx context.Context, markdown string, cfg types.ConversionConfig) (string, error) {
	base, err := url.Parse(cfg.OllamaBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid ollama base URL %q: %w", cfg.OllamaBaseURL, err)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := api.NewClient(base, httpClient)

	stream := false
	req := &api.GenerateRequest{
		Model:  cfg.OllamaModel,
		System: cleanupSystem,
		Prompt: markdown,
		Stream: &stream,
	}

	var b strings.Builder
	err = client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		b.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama cleanup via %s: %w", cfg.OllamaBaseURL, err)
	}

	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return markdown, nil
	}
	return cleaned + "\n", nil
}
