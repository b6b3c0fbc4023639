package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/innerlight-hq/distill/internal/pipeline"
)

var batchJSON bool

var batchCmd = &cobra.Command{
	Use:   "batch <manifest.json>",
	Short: "Process a manifest of sessions with pacing",
	Long: `Process every session in a JSON manifest, one at a time, with the
configured pacing delay between sessions. A session's failure is recorded
in its own result and never stops the rest of the batch.

The manifest is a JSON array of session inputs:

  [
    {"source_locator": "a.txt", "client_consented": true, "session_date": "2026-03-01"},
    {"source_locator": "b.txt", "client_consented": true}
  ]

Examples:
  distill batch manifest.json
  distill batch manifest.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "Print the full report as JSON instead of a summary")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var inputs []pipeline.SessionInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("manifest is empty")
	}

	ctx := context.Background()
	proc, _, cleanup, err := buildProcessor(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	report := proc.ProcessBatch(ctx, inputs)

	if batchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		fmt.Print(pipeline.FormatBatchSummary(report))
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d sessions failed", report.Failed, len(report.Results))
	}
	return nil
}
