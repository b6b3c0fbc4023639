package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/innerlight-hq/distill/internal/library"
)

// BatchReport collects per-session results plus the library's aggregate
// stats after the run.
type BatchReport struct {
	RunID          string             `json:"run_id"`
	Results        []ProcessingResult `json:"results"`
	Succeeded      int                `json:"succeeded"`
	Failed         int                `json:"failed"`
	PatternsMerged int                `json:"patterns_merged"`
	LibraryStats   library.Stats      `json:"library_stats"`
}

// ProcessBatch runs sessions one at a time, in input order. One session's
// failure lands in its own result and never stops the batch. A pacing delay
// between sessions keeps pressure off the rate-limited analysis service.
func (p *Processor) ProcessBatch(ctx context.Context, inputs []SessionInput) BatchReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := BatchReport{RunID: uuid.New().String()}
	before := p.lib.Len()

	p.logger.Info("batch starting", "run_id", report.RunID, "sessions", len(inputs))

	for i, in := range inputs {
		if i > 0 && p.cfg.PacingDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(p.cfg.PacingDelay):
			}
		}
		if ctx.Err() != nil {
			p.logger.Info("batch interrupted", "run_id", report.RunID, "processed", i)
			break
		}

		res := p.processSession(ctx, in)
		p.recordOutcome(ctx, res)
		report.Results = append(report.Results, res)
		if res.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	report.PatternsMerged = p.lib.Len() - before
	report.LibraryStats = p.lib.Stats()

	summary := FormatBatchSummary(report)
	p.logger.Info("batch complete",
		"run_id", report.RunID,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"patterns_merged", report.PatternsMerged,
		"library_total", report.LibraryStats.Total,
	)
	if p.notify != nil {
		if err := p.notify.PostBatchSummary(ctx, summary); err != nil {
			p.logger.Warn("batch summary post failed", "error", err)
		}
	}

	return report
}

// FormatBatchSummary renders an operator-facing summary: per-session outcome
// plus the totals needed to spot sessions stuck in manual review.
func FormatBatchSummary(report BatchReport) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Batch %s*\n", report.RunID)
	fmt.Fprintf(&sb, "Sessions: %d succeeded, %d failed\n", report.Succeeded, report.Failed)
	fmt.Fprintf(&sb, "Patterns merged: %d (library total: %d)\n", report.PatternsMerged, report.LibraryStats.Total)

	for i, r := range report.Results {
		status := "ok"
		if !r.Success {
			status = "FAILED"
		}
		fmt.Fprintf(&sb, "  %d. %s [%s]", i+1, status, r.Stage)
		if r.Anonymized != nil {
			fmt.Fprintf(&sb, " %s", r.Anonymized.OriginalID)
		}
		fmt.Fprintf(&sb, " patterns=%d deleted=%v", r.PatternCount, r.OriginalDeleted)
		if len(r.Errors) > 0 {
			fmt.Fprintf(&sb, ": %s", r.Errors[0])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
