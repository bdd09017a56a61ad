// Copyright SoenkevL, 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SoenkevL/pdf2md/internal/history"
	"github.com/SoenkevL/pdf2md/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversions",
	Long: `History lists the most recent conversions recorded by the convert command
and the web interface, newest first. At most the last ten conversions are
retained.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	historyFile, _ := cmd.Flags().GetString("history-file")
	records := history.NewStore(historyFile).Recent()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistoryOutput(records, jsonOutput)
}

func formatHistoryOutput(records []types.ConversionRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No conversions recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-19s  %-30s  %s\n", "When", "File", "Output")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))

	for _, r := range records {
		name := r.Filename
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-19s  %-30s  %s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), name, r.OutputPath)
	}

	fmt.Fprintf(os.Stdout, "\n%d conversion(s)\n", len(records))
	return nil
}

func init() {
	historyCmd.Flags().String("history-file", "conversion_history.json", "path to the conversion history file")
	historyCmd.Flags().Bool("json", false, "output records as JSON")

	rootCmd.AddCommand(historyCmd)
}
