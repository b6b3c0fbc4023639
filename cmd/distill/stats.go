package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/innerlight-hq/distill/internal/library"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show wisdom library statistics",
	Long: `Print the library's aggregate counts as JSON. Stats are derived
from the pattern collection at read time, never cached.

Examples:
  distill stats
  DISTILL_LIBRARY_PATH=/data/wisdom-library.json distill stats`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	lib, err := library.Load(cfg.LibraryPath)
	if err != nil {
		return fmt.Errorf("load wisdom library: %w", err)
	}

	out := struct {
		Path  string        `json:"path"`
		Stats library.Stats `json:"stats"`
	}{
		Path:  lib.Path(),
		Stats: lib.Stats(),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return nil
}
