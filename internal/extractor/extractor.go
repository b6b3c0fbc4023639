package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/innerlight-hq/distill/internal/anonymizer"
	"github.com/innerlight-hq/distill/internal/anthropic"
)

// Config bounds extraction output. The cap and floor are applied as
// deterministic post-filters regardless of what the model returns.
type Config struct {
	ConfidenceFloor float64
	PatternCap      int
}

type Extractor struct {
	llm    *anthropic.Client
	cfg    Config
	logger *slog.Logger
}

func New(llm *anthropic.Client, cfg Config, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, cfg: cfg, logger: logger}
}

// candidate is the raw model output shape, before any pattern is constructed.
type candidate struct {
	PatternType string  `json:"pattern_type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

type llmResponse struct {
	Patterns []candidate `json:"patterns"`
}

// Extract produces at most PatternCap patterns from a verified transcript.
// Candidates below the confidence floor are discarded before a
// TransformationPattern is ever constructed.
func (e *Extractor) Extract(ctx context.Context, anon *anonymizer.AnonymizedTranscript) ([]TransformationPattern, error) {
	if anon.VerificationStatus != anonymizer.StatusVerified {
		return nil, fmt.Errorf("transcript %s has status %s, extraction requires verified input",
			anon.OriginalID, anon.VerificationStatus)
	}

	prompt := fmt.Sprintf(extractionUserPrompt, anon.AnonymizedText)

	e.logger.Info("extracting patterns",
		"original_id", anon.OriginalID,
		"transcript_len", len(anon.AnonymizedText),
	)

	raw, err := e.llm.Complete(ctx, systemPrompt, []anthropic.Message{
		{Role: "user", Content: prompt},
	}, 4096)
	if err != nil {
		return nil, fmt.Errorf("llm extraction: %w", err)
	}

	var resp llmResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		e.logger.Error("failed to parse extraction response", "error", err, "raw", raw)
		return nil, fmt.Errorf("parse extraction: %w", err)
	}

	patterns := e.filter(anon.OriginalID, resp.Patterns)

	e.logger.Info("extraction complete",
		"original_id", anon.OriginalID,
		"candidates", len(resp.Patterns),
		"patterns", len(patterns),
	)

	return patterns, nil
}

// filter applies the deterministic post-filters in order: taxonomy check,
// confidence floor, in-session dedup, per-session cap.
func (e *Extractor) filter(sessionRef string, cands []candidate) []TransformationPattern {
	seen := make(map[string]bool)
	var out []TransformationPattern

	for _, c := range cands {
		pt := PatternType(c.PatternType)
		if !pt.Valid() {
			e.logger.Warn("dropping candidate with unknown pattern type", "pattern_type", c.PatternType)
			continue
		}
		if c.Confidence < e.cfg.ConfidenceFloor || c.Confidence > 1 {
			continue
		}
		if c.Description == "" {
			continue
		}

		p := TransformationPattern{
			PatternType: pt,
			Confidence:  c.Confidence,
			Description: c.Description,
			SessionRef:  sessionRef,
		}

		key := p.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, p)
		if len(out) >= e.cfg.PatternCap {
			break
		}
	}

	return out
}
