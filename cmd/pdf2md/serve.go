// Copyright SoenkevL, 2026. All rights reserved.

package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SoenkevL/pdf2md/internal/convert"
	"github.com/SoenkevL/pdf2md/internal/history"
	"github.com/SoenkevL/pdf2md/internal/server"
	"github.com/SoenkevL/pdf2md/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pdf2md web interface",
	Long: `Serve starts an HTTP server with a small web interface for uploading
PDF files, converting them, and previewing or downloading the results.
Recent conversions are listed on the index page.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	uploadDir, _ := cmd.Flags().GetString("upload-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	historyFile, _ := cmd.Flags().GetString("history-file")

	engineCfg := engineConfigFromFlags(cmd)
	engine, err := buildEngine(engineCfg)
	if err != nil {
		return err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	srv, err := server.New(types.ServerConfig{
		Addr:        addr,
		UploadDir:   uploadDir,
		OutputDir:   outputDir,
		HistoryFile: historyFile,
	}, &convert.Runner{Engine: engine}, history.NewStore(historyFile), log)
	if err != nil {
		return err
	}

	log.Info("starting pdf2md server", zap.String("addr", addr), zap.String("engine", engineCfg.Backend))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func init() {
	serveCmd.Flags().String("addr", ":5000", "listen address")
	serveCmd.Flags().String("upload-dir", "uploads", "directory for uploaded PDF files")
	serveCmd.Flags().String("output-dir", "output", "output root directory for conversions")
	serveCmd.Flags().String("history-file", "conversion_history.json", "path to the conversion history file")
	serveCmd.Flags().String("engine", "marker", "conversion engine: marker, markitdown, or text")
	serveCmd.Flags().String("marker-url", "", "base URL of the marker conversion server")
	serveCmd.Flags().Duration("timeout", 5*time.Minute, "per-conversion timeout for remote engines")

	rootCmd.AddCommand(serveCmd)
}
