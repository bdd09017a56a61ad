// Copyright SoenkevL, 2026. All rights reserved.

// Package convert implements PDF-to-Markdown conversion with pluggable
// engines. An Engine turns a PDF into a rendered document; the Runner owns
// the surrounding job mechanics: input validation, output directory
// derivation, the optional LLM cleanup pass, and writing the document plus
// its side artifacts to disk.
package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/SoenkevL/pdf2md/pkg/types"
)

// Engine transforms a PDF file into a rendered document. Different
// backends (marker, markitdown, text) implement this interface.
type Engine interface {
	// Convert reads the PDF at pdfPath and returns the rendered document.
	Convert(ctx context.Context, pdfPath string, cfg types.ConversionConfig) (*types.RenderedDocument, error)
}

// Runner executes conversion jobs through an Engine.
type Runner struct {
	// Engine performs the actual conversion.
	Engine Engine

	// Cleaner overrides the LLM cleanup backend. When nil the backend is
	// chosen from the job's llm_service setting.
	Cleaner Cleaner

	// Log receives progress lines. Defaults to io.Discard.
	Log io.Writer
}

func (r *Runner) logf(format string, args ...any) {
	w := r.Log
	if w == nil {
		w = io.Discard
	}
	fmt.Fprintf(w, format, args...)
}

// Run converts one PDF and returns the directory holding the output files.
// The directory is outputRoot/<pdf name without extension>; a missing or
// empty outputRoot falls back to the current working directory. A missing
// source file fails before any directory is created. Re-running with the
// same source and root overwrites prior output for that name.
func (r *Runner) Run(ctx context.Context, pdfPath, outputRoot string, cfg types.ConversionConfig) (string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("pdf file not found: %s: %w", pdfPath, fs.ErrNotExist)
		}
		return "", fmt.Errorf("checking pdf file %s: %w", pdfPath, err)
	}

	if outputRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		outputRoot = cwd
	} else if _, err := os.Stat(outputRoot); err != nil {
		cwd, wdErr := os.Getwd()
		if wdErr != nil {
			return "", fmt.Errorf("resolving working directory: %w", wdErr)
		}
		r.logf("output root %s does not exist, using %s\n", outputRoot, cwd)
		outputRoot = cwd
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	outDir := filepath.Join(outputRoot, base)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	r.logf("converting %s\n", pdfPath)
	rendered, err := r.Engine.Convert(ctx, pdfPath, cfg)
	if err != nil {
		return "", fmt.Errorf("converting %s: %w", pdfPath, err)
	}

	if cfg.UseLLM {
		cleaner := r.Cleaner
		if cleaner == nil {
			cleaner, err = cleanerFor(cfg.LLMService)
			if err != nil {
				return "", fmt.Errorf("converting %s: %w", pdfPath, err)
			}
		}
		r.logf("cleaning up with %s model %s\n", cfg.LLMService, cfg.OllamaModel)
		cleaned, err := cleaner.Clean(ctx, rendered.Markdown, cfg)
		if err != nil {
			return "", fmt.Errorf("converting %s: %w", pdfPath, err)
		}
		rendered.Markdown = cleaned
	}

	if err := SaveOutput(rendered, outDir, base, cfg.OutputFormat); err != nil {
		return "", fmt.Errorf("converting %s: %w", pdfPath, err)
	}

	r.logf("output written to %s\n", outDir)
	return outDir, nil
}

// SaveOutput writes the rendered document into dir, named after base: the
// primary document as base.md or base.html depending on format, each
// extracted image under its artifact name, and engine metadata as
// base_meta.json. Existing files with the same names are overwritten.
func SaveOutput(rendered *types.RenderedDocument, dir, base string, format types.OutputFormat) error {
	content := rendered.Markdown
	if format == types.FormatHTML {
		html, err := MarkdownToHTML(content)
		if err != nil {
			return fmt.Errorf("rendering HTML output: %w", err)
		}
		content = html
	}

	primary := filepath.Join(dir, base+format.Extension())
	if err := os.WriteFile(primary, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", primary, err)
	}

	for name, data := range rendered.Images {
		// Artifact names come from the engine; keep only the base name so
		// they cannot escape the output directory.
		path := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing image %s: %w", path, err)
		}
	}

	if len(rendered.Metadata) > 0 {
		meta, err := json.MarshalIndent(rendered.Metadata, "", "    ")
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
		metaPath := filepath.Join(dir, base+"_meta.json")
		if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", metaPath, err)
		}
	}

	return nil
}

// md renders GitHub-flavored Markdown; tables and fenced code blocks show
// up constantly in converted PDFs.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// MarkdownToHTML renders Markdown to an HTML fragment. The web preview and
// the html output format share this.
func MarkdownToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}
