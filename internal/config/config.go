// Copyright SoenkevL, 2026. All rights reserved.

// Package config resolves the per-job conversion configuration: built-in
// defaults shallow-merged with an optional override file. Override files
// are JSON (the original format) or YAML, chosen by extension. Keys the
// tool does not recognize are passed through to the engine unmodified.
package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/SoenkevL/pdf2md/pkg/types"
)

// Default values for every recognized option. Resolution always yields a
// configuration with each of these keys set.
const (
	DefaultLLMService    = "ollama"
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "qwen2.5:14b"
)

// ParseError reports an override file that exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing config file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Defaults returns the built-in conversion configuration.
func Defaults() types.ConversionConfig {
	return types.ConversionConfig{
		OutputFormat:  types.FormatMarkdown,
		UseLLM:        true,
		LLMService:    DefaultLLMService,
		OllamaBaseURL: DefaultOllamaBaseURL,
		OllamaModel:   DefaultOllamaModel,
	}
}

// Resolve produces the configuration for one conversion job. With an empty
// path it returns the defaults. Otherwise the file at path is parsed and
// shallow-merged over the defaults: every key present in the file wins, and
// unrecognized keys are kept in the Extra bucket. A missing file is an
// error wrapping fs.ErrNotExist; an unparsable file is a *ParseError.
func Resolve(path string) (types.ConversionConfig, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.ConversionConfig{}, fmt.Errorf("config file not found: %s: %w", path, fs.ErrNotExist)
		}
		return types.ConversionConfig{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	overrides, err := parseOverrides(path, data)
	if err != nil {
		return types.ConversionConfig{}, &ParseError{Path: path, Err: err}
	}

	cfg.FromMap(overrides)
	return cfg, nil
}

// ResolveMap merges an in-memory override mapping over the defaults. The
// web interface uses this with form-derived values; nil overrides yield the
// defaults unchanged.
func ResolveMap(overrides map[string]any) types.ConversionConfig {
	cfg := Defaults()
	cfg.FromMap(overrides)
	return cfg
}

// parseOverrides decodes the override file into a flat mapping, picking the
// codec by file extension. Anything that is not .yaml/.yml is treated as JSON.
func parseOverrides(path string, data []byte) (map[string]any, error) {
	var m map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WriteDefault writes the default configuration to path as indented JSON,
// the shape Resolve reads back. Parent directories must already exist.
func WriteDefault(path string) error {
	data, err := json.MarshalIndent(Defaults(), "", "    ")
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing default config %s: %w", path, err)
	}
	return nil
}
