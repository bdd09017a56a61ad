// Copyright SoenkevL, 2026. All rights reserved.

package server

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/SoenkevL/pdf2md/internal/config"
	"github.com/SoenkevL/pdf2md/internal/convert"
	"github.com/SoenkevL/pdf2md/pkg/types"
)

type indexData struct {
	Flashes []flash
	Recent  []types.ConversionRecord
	Models  []struct{ Value, Label string }
	Formats []types.OutputFormat
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Flashes: popFlashes(w, r),
		Recent:  s.store.Recent(),
		Models:  modelChoices,
		Formats: []types.OutputFormat{types.FormatMarkdown, types.FormatHTML},
	}
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.log.Error("rendering index", zap.Error(err))
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.failf(w, r, "Upload too large or malformed: %v", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.failf(w, r, "No file selected")
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		s.failf(w, r, "Invalid file type, please upload a PDF")
		return
	}

	pdfPath := filepath.Join(s.cfg.UploadDir, filename)
	dst, err := os.Create(pdfPath)
	if err != nil {
		s.failf(w, r, "Saving upload failed: %v", err)
		return
	}
	if _, err := dst.ReadFrom(file); err != nil {
		dst.Close()
		s.failf(w, r, "Saving upload failed: %v", err)
		return
	}
	if err := dst.Close(); err != nil {
		s.failf(w, r, "Saving upload failed: %v", err)
		return
	}

	jobCfg := config.ResolveMap(overridesFromForm(r))

	outputRoot := r.FormValue("output_dir")
	if outputRoot == "" {
		outputRoot = s.cfg.OutputDir
	}

	outDir, err := s.runner.Run(r.Context(), pdfPath, outputRoot, jobCfg)
	if err != nil {
		s.log.Error("conversion failed", zap.String("pdf", pdfPath), zap.Error(err))
		s.failf(w, r, "Error during conversion: %v", err)
		return
	}

	id, err := s.store.Add(pdfPath, outDir)
	if err != nil {
		s.log.Error("recording conversion", zap.String("pdf", pdfPath), zap.Error(err))
		s.failf(w, r, "Conversion succeeded but could not be recorded: %v", err)
		return
	}

	s.log.Info("conversion finished",
		zap.String("pdf", pdfPath),
		zap.String("output", outDir),
		zap.String("id", id),
	)
	addFlash(w, r, "success", "PDF converted successfully!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type previewData struct {
	Filename string
	ID       string
	Content  template.HTML
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		s.failf(w, r, "Conversion not found")
		return
	}

	mdPath := primaryDocument(rec)
	data, err := os.ReadFile(mdPath)
	if err != nil {
		s.failf(w, r, "Markdown file not found")
		return
	}

	html, err := convert.MarkdownToHTML(string(data))
	if err != nil {
		s.failf(w, r, "Error loading preview: %v", err)
		return
	}

	pd := previewData{
		Filename: rec.Filename,
		ID:       rec.ID,
		Content:  template.HTML(html),
	}
	if err := s.tmpl.ExecuteTemplate(w, "preview.html", pd); err != nil {
		s.log.Error("rendering preview", zap.Error(err))
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		s.failf(w, r, "Conversion not found")
		return
	}
	if r.PathValue("type") != "md" {
		s.failf(w, r, "Invalid file type")
		return
	}

	mdPath := primaryDocument(rec)
	if _, err := os.Stat(mdPath); err != nil {
		s.failf(w, r, "File not found")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(mdPath)))
	http.ServeFile(w, r, mdPath)
}

// failf flashes an error message and redirects back to the submission view.
// Raw errors never reach the browser as a bare response.
func (s *Server) failf(w http.ResponseWriter, r *http.Request, format string, args ...any) {
	addFlash(w, r, "error", fmt.Sprintf(format, args...))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// primaryDocument returns the path of the converted Markdown for a record.
func primaryDocument(rec types.ConversionRecord) string {
	base := strings.TrimSuffix(rec.Filename, filepath.Ext(rec.Filename))
	return filepath.Join(rec.OutputPath, base+".md")
}

// overridesFromForm maps upload form fields onto conversion option keys.
// Empty text fields are omitted so the defaults fill them in; use_llm is
// always set because unchecked checkboxes are absent from the form data.
func overridesFromForm(r *http.Request) map[string]any {
	overrides := make(map[string]any)
	// Checkbox semantics: the field is present only when checked.
	overrides["use_llm"] = r.FormValue("use_llm") == "on"
	if v := r.FormValue("output_format"); v != "" {
		overrides["output_format"] = v
	}
	if v := r.FormValue("llm_model"); v != "" {
		overrides["ollama_model"] = v
	}
	if v := r.FormValue("ollama_base_url"); v != "" {
		overrides["ollama_base_url"] = v
	}
	return overrides
}

// sanitizeFilename reduces an uploaded filename to a safe base name:
// path components are stripped and anything outside letters, digits,
// dot, dash and underscore becomes an underscore.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.ToSlash(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
