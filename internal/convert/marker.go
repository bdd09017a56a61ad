// Copyright SoenkevL, 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/SoenkevL/pdf2md/internal/httputil"
	"github.com/SoenkevL/pdf2md/pkg/types"
)

// MarkerEngine converts PDFs through a marker conversion server reachable
// over HTTP. The server does the heavy lifting (layout analysis, OCR, image
// extraction); this engine uploads the PDF together with the resolved
// configuration and decodes the rendered result. Busy-server responses are
// retried with backoff.
type MarkerEngine struct {
	// BaseURL is the root of the marker server (e.g. "http://localhost:8001").
	BaseURL string

	// Client is the HTTP client for requests. Defaults to http.DefaultClient.
	Client *http.Client

	// APIKey, when set, is sent as the X-Api-Key header. Hosted marker
	// servers require it; local ones ignore it.
	APIKey string

	// MaxRetries bounds retries on 429/503 responses. 0 uses the
	// httputil default.
	MaxRetries int
}

// markerResponse is the wire shape of a marker server conversion result.
type markerResponse struct {
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
	Format   string            `json:"format,omitempty"`
	Output   string            `json:"output"`
	Images   map[string]string `json:"images,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`
}

// Convert uploads the PDF and the full option set (recognized keys and
// pass-through extras alike) to the marker server and returns the decoded
// rendered document.
func (e *MarkerEngine) Convert(ctx context.Context, pdfPath string, cfg types.ConversionConfig) (*types.RenderedDocument, error) {
	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(pdfPath))
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	if _, err := part.Write(pdfData); err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}

	for key, value := range cfg.ToMap() {
		if err := mw.WriteField(key, fmt.Sprint(value)); err != nil {
			return nil, fmt.Errorf("building upload request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}

	endpoint := strings.TrimRight(e.BaseURL, "/") + "/convert"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if e.APIKey != "" {
		req.Header.Set("X-Api-Key", e.APIKey)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, e.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("marker server request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("marker server returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var mr markerResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("parsing marker response: %w", err)
	}
	if !mr.Success {
		return nil, fmt.Errorf("marker server reported failure: %s", mr.Error)
	}
	if mr.Output == "" {
		return nil, fmt.Errorf("marker server produced empty output for %s", pdfPath)
	}

	rendered := &types.RenderedDocument{
		Markdown: mr.Output,
		Metadata: mr.Metadata,
	}
	if len(mr.Images) > 0 {
		rendered.Images = make(map[string][]byte, len(mr.Images))
		for name, enc := range mr.Images {
			data, err := base64.StdEncoding.DecodeString(enc)
			if err != nil {
				return nil, fmt.Errorf("decoding image %s: %w", name, err)
			}
			rendered.Images[name] = data
		}
	}
	return rendered, nil
}
