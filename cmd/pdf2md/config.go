// Copyright SoenkevL, 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SoenkevL/pdf2md/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pdf2md configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long: `Init writes a configuration file populated with the default settings to
the given path (default pdf2md.json). Edit the file to change the output
format, the Ollama model, or to disable LLM cleanup.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "pdf2md.json"
		if len(args) > 0 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
