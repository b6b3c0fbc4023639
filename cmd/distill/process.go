package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/innerlight-hq/distill/internal/pipeline"
)

var (
	processSource     string
	processDate       string
	processMinutes    int
	processModalities []string
	processConsent    bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a single session transcript",
	Long: `Run one transcript through the full pipeline and print the result
as JSON.

The --consent flag is the client's explicit consent to processing. Without
it the session is refused before the transcript is even read.

Examples:
  distill process --source session.txt --consent --date 2026-03-01 --minutes 50
  distill process --source session.txt --consent --modality IFS --modality somatic`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processSource, "source", "", "Path to the raw transcript (required)")
	processCmd.Flags().StringVar(&processDate, "date", "", "Session date (YYYY-MM-DD)")
	processCmd.Flags().IntVar(&processMinutes, "minutes", 0, "Session length in minutes")
	processCmd.Flags().StringArrayVar(&processModalities, "modality", nil, "Modality used (repeatable)")
	processCmd.Flags().BoolVar(&processConsent, "consent", false, "Client has consented to processing")
	processCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	proc, _, cleanup, err := buildProcessor(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	res := proc.ProcessSession(ctx, pipeline.SessionInput{
		SourceLocator:   processSource,
		SessionDate:     processDate,
		SessionMinutes:  processMinutes,
		Modalities:      processModalities,
		ClientConsented: processConsent,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("session failed at stage %s", res.Stage)
	}
	return nil
}
