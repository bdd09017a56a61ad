// Copyright SoenkevL, 2026. All rights reserved.

package convert

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SoenkevL/pdf2md/internal/httputil"
	"github.com/SoenkevL/pdf2md/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMarkerEngine_Convert(t *testing.T) {
	pdfPath := writePDF(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/convert" {
			t.Errorf("path = %q, want /convert", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		file.Close()
		if header.Filename != "sample.pdf" {
			t.Errorf("uploaded filename = %q", header.Filename)
		}

		// Recognized options and pass-through extras travel as form fields.
		if got := r.FormValue("output_format"); got != "markdown" {
			t.Errorf("output_format field = %q", got)
		}
		if got := r.FormValue("ollama_model"); got != "qwen2.5:14b" {
			t.Errorf("ollama_model field = %q", got)
		}
		if got := r.FormValue("page_range"); got != "1-3" {
			t.Errorf("page_range field = %q", got)
		}

		json.NewEncoder(w).Encode(markerResponse{
			Success: true,
			Format:  "markdown",
			Output:  "# Sample\n\nConverted.",
			Images: map[string]string{
				"figure_1.png": base64.StdEncoding.EncodeToString([]byte{0x89, 0x50}),
			},
			Metadata: map[string]any{"pages": 2},
		})
	}))
	defer ts.Close()

	engine := &MarkerEngine{BaseURL: ts.URL, Client: ts.Client()}
	cfg := types.ConversionConfig{
		OutputFormat: types.FormatMarkdown,
		OllamaModel:  "qwen2.5:14b",
		Extra:        map[string]any{"page_range": "1-3"},
	}

	rendered, err := engine.Convert(context.Background(), pdfPath, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if rendered.Markdown != "# Sample\n\nConverted." {
		t.Errorf("markdown = %q", rendered.Markdown)
	}
	if len(rendered.Images["figure_1.png"]) != 2 {
		t.Errorf("image bytes = %v", rendered.Images["figure_1.png"])
	}
	if rendered.Metadata["pages"] != float64(2) {
		t.Errorf("metadata pages = %v", rendered.Metadata["pages"])
	}
}

func TestMarkerEngine_RetriesBusyServer(t *testing.T) {
	pdfPath := writePDF(t)

	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		// The retried request must carry the full multipart body again.
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("retried request missing file part: %v", err)
		}
		json.NewEncoder(w).Encode(markerResponse{Success: true, Output: "# Done"})
	}))
	defer ts.Close()

	engine := &MarkerEngine{BaseURL: ts.URL, Client: ts.Client(), MaxRetries: 3}
	rendered, err := engine.Convert(context.Background(), pdfPath, types.ConversionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if rendered.Markdown != "# Done" {
		t.Errorf("markdown = %q", rendered.Markdown)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestMarkerEngine_ServerFailure(t *testing.T) {
	pdfPath := writePDF(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "conversion worker crashed", http.StatusInternalServerError)
			},
		},
		{
			name: "reported failure",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(markerResponse{Success: false, Error: "unreadable pdf"})
			},
		},
		{
			name: "empty output",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(markerResponse{Success: true, Output: ""})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			engine := &MarkerEngine{BaseURL: ts.URL, Client: ts.Client()}
			if _, err := engine.Convert(context.Background(), pdfPath, types.ConversionConfig{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMarkerEngine_MissingFile(t *testing.T) {
	engine := &MarkerEngine{BaseURL: "http://localhost:0"}
	_, err := engine.Convert(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), types.ConversionConfig{})
	if err == nil {
		t.Error("expected error for missing file")
	}
}
