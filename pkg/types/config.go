// Copyright SoenkevL, 2026. All rights reserved.

// Package types defines shared data structures for the pdf2md pipeline:
// the conversion configuration handed to engines, the rendered document
// they produce, and the history record kept for each finished job.
package types

import (
	"encoding/json"
	"time"
)

// OutputFormat selects the primary document format written after conversion.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
)

// Extension returns the file extension for the format, including the dot.
func (f OutputFormat) Extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// Valid reports whether the format is one of the recognized values.
func (f OutputFormat) Valid() bool {
	return f == FormatMarkdown || f == FormatHTML
}

// ConversionConfig is the resolved configuration for a single conversion
// job. The named fields are the recognized options; Extra carries any
// unrecognized keys from an override file through unmodified, so newer
// engine options pass through older builds of this tool.
type ConversionConfig struct {
	// OutputFormat is the primary document format: markdown or html.
	OutputFormat OutputFormat

	// UseLLM enables the LLM cleanup pass over the rendered document.
	UseLLM bool

	// LLMService names the backend adapter used for cleanup (e.g. "ollama").
	LLMService string

	// OllamaBaseURL is the base URL of the Ollama server.
	OllamaBaseURL string

	// OllamaModel is the model identifier passed to Ollama.
	OllamaModel string

	// Extra holds override keys that are not recognized options.
	Extra map[string]any
}

// Recognized option keys in config files and engine requests.
const (
	keyOutputFormat  = "output_format"
	keyUseLLM        = "use_llm"
	keyLLMService    = "llm_service"
	keyOllamaBaseURL = "ollama_base_url"
	keyOllamaModel   = "ollama_model"
)

// ToMap flattens the configuration to a single key/value mapping, the shape
// engines and config files speak. Recognized fields and extras share one
// namespace; recognized fields win on collision.
func (c ConversionConfig) ToMap() map[string]any {
	m := make(map[string]any, len(c.Extra)+5)
	for k, v := range c.Extra {
		m[k] = v
	}
	m[keyOutputFormat] = string(c.OutputFormat)
	m[keyUseLLM] = c.UseLLM
	m[keyLLMService] = c.LLMService
	m[keyOllamaBaseURL] = c.OllamaBaseURL
	m[keyOllamaModel] = c.OllamaModel
	return m
}

// FromMap fills the configuration from a flat key/value mapping. Recognized
// keys populate the named fields when their value has the expected dynamic
// type; everything else lands in Extra.
func (c *ConversionConfig) FromMap(m map[string]any) {
	for k, v := range m {
		switch k {
		case keyOutputFormat:
			if s, ok := v.(string); ok {
				c.OutputFormat = OutputFormat(s)
				continue
			}
		case keyUseLLM:
			if b, ok := v.(bool); ok {
				c.UseLLM = b
				continue
			}
		case keyLLMService:
			if s, ok := v.(string); ok {
				c.LLMService = s
				continue
			}
		case keyOllamaBaseURL:
			if s, ok := v.(string); ok {
				c.OllamaBaseURL = s
				continue
			}
		case keyOllamaModel:
			if s, ok := v.(string); ok {
				c.OllamaModel = s
				continue
			}
		}
		if c.Extra == nil {
			c.Extra = make(map[string]any)
		}
		c.Extra[k] = v
	}
}

// MarshalJSON writes the flat key/value form used by config files.
func (c ConversionConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

// UnmarshalJSON reads the flat key/value form used by config files.
func (c *ConversionConfig) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.FromMap(m)
	return nil
}

// EngineConfig holds app-level settings for the conversion engine, separate
// from the per-job ConversionConfig.
type EngineConfig struct {
	// Backend selects the conversion engine: marker, markitdown, or text.
	Backend string `json:"backend" yaml:"backend"`

	// MarkerURL is the base URL of the marker conversion server.
	MarkerURL string `json:"marker_url" yaml:"marker_url"`

	// Timeout bounds a single engine HTTP request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ServerConfig holds settings for the web upload interface.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":5000").
	Addr string `json:"addr" yaml:"addr"`

	// UploadDir receives uploaded PDFs.
	UploadDir string `json:"upload_dir" yaml:"upload_dir"`

	// OutputDir is the default root for conversion output directories.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// HistoryFile is the path of the persisted conversion history.
	HistoryFile string `json:"history_file" yaml:"history_file"`

	// MaxUploadBytes caps the size of a single uploaded file.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}
