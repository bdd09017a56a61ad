// Copyright SoenkevL, 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SoenkevL/pdf2md/internal/config"
	"github.com/SoenkevL/pdf2md/internal/container"
	"github.com/SoenkevL/pdf2md/internal/convert"
	"github.com/SoenkevL/pdf2md/internal/history"
	"github.com/SoenkevL/pdf2md/internal/secrets"
	"github.com/SoenkevL/pdf2md/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdf]",
	Short: "Convert a PDF file to Markdown",
	Long: `Convert transforms a single PDF file into Markdown. Output is written to
a subdirectory of the output root named after the input file, alongside any
extracted images. With LLM cleanup enabled (the default), the converted
Markdown is post-processed by a local Ollama model before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	cfg, err := config.Resolve(cfgFile)
	if err != nil {
		return err
	}
	applyConvertFlags(cmd, &cfg)

	engine, err := buildEngine(engineConfigFromFlags(cmd))
	if err != nil {
		return err
	}

	runner := &convert.Runner{Engine: engine, Log: os.Stderr}

	outputRoot, _ := cmd.Flags().GetString("output")
	outDir, err := runner.Run(cmd.Context(), pdfPath, outputRoot, cfg)
	if err != nil {
		return err
	}

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		historyFile, _ := cmd.Flags().GetString("history-file")
		if _, err := history.NewStore(historyFile).Add(pdfPath, outDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not record conversion: %v\n", err)
		}
	}

	fmt.Printf("Converted %s -> %s\n", pdfPath, outDir)
	return nil
}

// applyConvertFlags layers explicitly-set command flags over the resolved config.
func applyConvertFlags(cmd *cobra.Command, cfg *types.ConversionConfig) {
	if cmd.Flags().Changed("format") {
		format, _ := cmd.Flags().GetString("format")
		cfg.OutputFormat = types.OutputFormat(format)
	}
	if cmd.Flags().Changed("no-llm") {
		noLLM, _ := cmd.Flags().GetBool("no-llm")
		cfg.UseLLM = !noLLM
	}
	if cmd.Flags().Changed("model") {
		cfg.OllamaModel, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("ollama-url") {
		cfg.OllamaBaseURL, _ = cmd.Flags().GetString("ollama-url")
	}
}

// engineConfigFromFlags reads the shared engine flags, falling back to the
// viper config for the marker URL.
func engineConfigFromFlags(cmd *cobra.Command) types.EngineConfig {
	cfg := types.EngineConfig{}
	cfg.Backend, _ = cmd.Flags().GetString("engine")
	cfg.MarkerURL, _ = cmd.Flags().GetString("marker-url")
	cfg.Timeout, _ = cmd.Flags().GetDuration("timeout")
	if cfg.MarkerURL == "" {
		cfg.MarkerURL = viper.GetString("marker_url")
	}
	if cfg.MarkerURL == "" {
		cfg.MarkerURL = "http://localhost:8024"
	}
	return cfg
}

// buildEngine constructs the configured conversion backend.
func buildEngine(cfg types.EngineConfig) (convert.Engine, error) {
	switch cfg.Backend {
	case "marker":
		return &convert.MarkerEngine{
			BaseURL: cfg.MarkerURL,
			Client:  &http.Client{Timeout: cfg.Timeout},
			APIKey:  secretDefault(secrets.MarkerAPIKey, viper.GetString("marker_api_key")),
		}, nil
	case "markitdown":
		runtime, err := container.Detect()
		if err != nil {
			return nil, err
		}
		eng, err := convert.NewMarkitdownEngine(runtime)
		if err != nil {
			return nil, err
		}
		return eng, nil
	case "text":
		return &convert.TextEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q: use marker, markitdown, or text", cfg.Backend)
	}
}

func init() {
	convertCmd.Flags().String("output", "output", "output root directory")
	convertCmd.Flags().String("engine", "marker", "conversion engine: marker, markitdown, or text")
	convertCmd.Flags().String("marker-url", "", "base URL of the marker conversion server")
	convertCmd.Flags().Duration("timeout", 5*time.Minute, "per-conversion timeout for remote engines")
	convertCmd.Flags().String("format", "", "output format: markdown or html")
	convertCmd.Flags().Bool("no-llm", false, "skip LLM cleanup of the converted output")
	convertCmd.Flags().String("model", "", "Ollama model for LLM cleanup")
	convertCmd.Flags().String("ollama-url", "", "base URL of the Ollama server")
	convertCmd.Flags().Bool("no-history", false, "do not record this conversion in history")
	convertCmd.Flags().String("history-file", "conversion_history.json", "path to the conversion history file")

	rootCmd.AddCommand(convertCmd)
}
