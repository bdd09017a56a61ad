// Copyright SoenkevL, 2026. All rights reserved.

// Package server provides the web upload interface: a form for submitting
// PDFs with per-job conversion options, plus preview and download of past
// conversions from the history log. It is a thin orchestration layer over
// the same resolve, run, record pipeline the CLI uses.
package server

import (
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/SoenkevL/pdf2md/internal/convert"
	"github.com/SoenkevL/pdf2md/internal/history"
	"github.com/SoenkevL/pdf2md/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// modelChoices lists the Ollama models offered in the upload form.
var modelChoices = []struct{ Value, Label string }{
	{"qwen2.5:14b", "Qwen 2.5 (14B)"},
	{"qwen2.5:7b", "Qwen 2.5 (7B)"},
	{"llama3:8b", "Llama 3 (8B)"},
	{"mistral:7b", "Mistral (7B)"},
}

// Server handles the web interface routes.
type Server struct {
	cfg    types.ServerConfig
	runner *convert.Runner
	store  *history.Store
	log    *zap.Logger
	tmpl   *template.Template
	mux    *http.ServeMux
}

// New builds a Server and creates the upload and output directories.
func New(cfg types.ServerConfig, runner *convert.Runner, store *history.Store, log *zap.Logger) (*Server, error) {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	for _, dir := range []string{cfg.UploadDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"year":     func() int { return time.Now().Year() },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		runner: runner,
		store:  store,
		log:    log,
		tmpl:   tmpl,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /convert", s.handleConvert)
	s.mux.HandleFunc("GET /preview/{id}", s.handlePreview)
	s.mux.HandleFunc("GET /download/{id}/{type}", s.handleDownload)

	return s, nil
}

// Handler returns the routed handler with request logging attached.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe blocks serving the web interface on the configured address.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("web interface listening", zap.String("addr", s.cfg.Addr))
	return srv.ListenAndServe()
}

// statusWriter captures the response status for the request log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// flash is a one-shot message carried across a redirect.
type flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

const flashCookie = "pdf2md_flash"

// addFlash appends a message to the flash cookie.
func addFlash(w http.ResponseWriter, r *http.Request, level, message string) {
	flashes := readFlashes(r)
	flashes = append(flashes, flash{Level: level, Message: message})
	data, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.URLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
	})
}

// readFlashes decodes the flash cookie without clearing it.
func readFlashes(r *http.Request) []flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	data, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}

// popFlashes returns pending messages and clears the cookie.
func popFlashes(w http.ResponseWriter, r *http.Request) []flash {
	flashes := readFlashes(r)
	if len(flashes) > 0 {
		http.SetCookie(w, &http.Cookie{
			Name:   flashCookie,
			Path:   "/",
			MaxAge: -1,
		})
	}
	return flashes
}
