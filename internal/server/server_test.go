// Copyright SoenkevL, 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/SoenkevL/pdf2md/internal/convert"
	"github.com/SoenkevL/pdf2md/internal/history"
	"github.com/SoenkevL/pdf2md/pkg/types"
)

// stubEngine returns fixed Markdown for every conversion.
type stubEngine struct {
	markdown string
	err      error
}

func (s *stubEngine) Convert(_ context.Context, _ string, _ types.ConversionConfig) (*types.RenderedDocument, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.RenderedDocument{Markdown: s.markdown}, nil
}

func newTestServer(t *testing.T, engine convert.Engine) (*Server, *history.Store) {
	t.Helper()
	tmpDir := t.TempDir()

	store := history.NewStore(filepath.Join(tmpDir, "conversion_history.json"))
	cfg := types.ServerConfig{
		Addr:           ":0",
		UploadDir:      filepath.Join(tmpDir, "uploads"),
		OutputDir:      filepath.Join(tmpDir, "output"),
		HistoryFile:    filepath.Join(tmpDir, "conversion_history.json"),
		MaxUploadBytes: 1 << 20,
	}

	srv, err := New(cfg, &convert.Runner{Engine: engine}, store, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return srv, store
}

// uploadRequest builds a multipart POST to /convert with the given file.
func uploadRequest(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte("%PDF-1.4 fake content")); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// flashMessages follows the redirect cookie and extracts flashed messages.
func flashMessages(t *testing.T, resp *http.Response) []string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}
	var msgs []string
	for _, f := range readFlashes(req) {
		msgs = append(msgs, f.Message)
	}
	return msgs
}

func TestIndex_Empty(t *testing.T) {
	srv, _ := newTestServer(t, &stubEngine{markdown: "# Doc"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No conversions yet") {
		t.Error("empty index should say there are no conversions")
	}
}

func TestConvert_Success(t *testing.T) {
	srv, store := newTestServer(t, &stubEngine{markdown: "# Report\n\nDone."})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "report.pdf", map[string]string{
		"llm_model":     "llama3:8b",
		"output_format": "markdown",
	}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect", rec.Code)
	}

	records := store.Recent()
	if len(records) != 1 {
		t.Fatalf("history has %d records, want 1", len(records))
	}
	if records[0].Filename != "report.pdf" {
		t.Errorf("recorded filename = %q", records[0].Filename)
	}

	data, err := os.ReadFile(filepath.Join(records[0].OutputPath, "report.md"))
	if err != nil {
		t.Fatalf("reading converted output: %v", err)
	}
	if string(data) != "# Report\n\nDone." {
		t.Errorf("converted output = %q", data)
	}
}

func TestConvert_NoFile(t *testing.T) {
	srv, store := newTestServer(t, &stubEngine{markdown: "# Doc"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect", rec.Code)
	}
	msgs := flashMessages(t, rec.Result())
	if len(msgs) == 0 || !strings.Contains(msgs[0], "No file selected") {
		t.Errorf("flash = %v", msgs)
	}
	if len(store.Recent()) != 0 {
		t.Error("no record should be created")
	}
}

func TestConvert_RejectsNonPDF(t *testing.T) {
	srv, store := newTestServer(t, &stubEngine{markdown: "# Doc"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "notes.txt", nil))

	msgs := flashMessages(t, rec.Result())
	if len(msgs) == 0 || !strings.Contains(msgs[0], "Invalid file type") {
		t.Errorf("flash = %v", msgs)
	}
	if len(store.Recent()) != 0 {
		t.Error("no record should be created for a rejected upload")
	}
}

func TestConvert_EngineFailureFlashed(t *testing.T) {
	srv, store := newTestServer(t, &stubEngine{err: errors.New("backend unreachable")})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "report.pdf", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect (never a raw error)", rec.Code)
	}
	msgs := flashMessages(t, rec.Result())
	if len(msgs) == 0 || !strings.Contains(msgs[0], "backend unreachable") {
		t.Errorf("flash = %v", msgs)
	}
	if len(store.Recent()) != 0 {
		t.Error("failed conversions must not be recorded")
	}
}

func TestPreview(t *testing.T) {
	srv, store := newTestServer(t, &stubEngine{markdown: "# Heading\n\nParagraph."})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "doc.pdf", nil))

	id := store.Recent()[0].ID
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview/"+id, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<h1") {
		t.Error("preview should contain rendered markdown")
	}
}

func TestPreview_UnknownID(t *testing.T) {
	srv, _ := newTestServer(t, &stubEngine{markdown: "# Doc"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview/nope", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect", rec.Code)
	}
	msgs := flashMessages(t, rec.Result())
	if len(msgs) == 0 || !strings.Contains(msgs[0], "not found") {
		t.Errorf("flash = %v", msgs)
	}
}

func TestDownload(t *testing.T) {
	srv, store := newTestServer(t, &stubEngine{markdown: "# Download me"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "doc.pdf", nil))

	id := store.Recent()[0].ID
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+id+"/md", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "doc.md") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body, _ := io.ReadAll(rec.Result().Body)
	if string(body) != "# Download me" {
		t.Errorf("downloaded body = %q", body)
	}
}

func TestDownload_InvalidType(t *testing.T) {
	srv, store := newTestServer(t, &stubEngine{markdown: "# Doc"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "doc.pdf", nil))

	id := store.Recent()[0].ID
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+id+"/exe", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd.pdf", "passwd.pdf"},
		{"my file (final).pdf", "my_file__final_.pdf"},
		{"Ünïcode.pdf", "Ünïcode.pdf"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
