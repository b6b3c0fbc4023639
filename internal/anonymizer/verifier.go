package anonymizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/innerlight-hq/distill/internal/anthropic"
)

// residuePatterns catch identifying tokens that must never survive scrubbing.
// A match on the scrubbed output fails verification outright, regardless of
// what the model verdict says.
var residuePatterns = []*regexp.Regexp{
	// emails
	regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
	// phone numbers
	regexp.MustCompile(`(?:\(\d{3}\)|\b\d{3})[-. ]?\d{3}[-. ]\d{4}\b`),
	// SSN-shaped identifiers
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	// street addresses
	regexp.MustCompile(`\b\d+\s+[A-Z][a-z]+\s+(?:Street|St|Avenue|Ave|Road|Rd|Lane|Ln|Drive|Dr|Boulevard|Blvd|Court|Ct)\b`),
	// URLs
	regexp.MustCompile(`https?://\S+`),
	// honorific followed by a capitalized surname
	regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+`),
}

// Verifier re-scans anonymized output for residual identifying content. It is
// a separate pass from scrubbing: a scrubber that believes it succeeded is not
// evidence of safety.
type Verifier struct {
	llm    *anthropic.Client
	logger *slog.Logger
}

func NewVerifier(llm *anthropic.Client, logger *slog.Logger) *Verifier {
	return &Verifier{llm: llm, logger: logger}
}

type verdictResponse struct {
	Safe     bool     `json:"safe"`
	Findings []string `json:"findings"`
}

// Verify returns StatusVerified only when both the deterministic residue scan
// and the model verdict confirm the text is clean. A verdict call that cannot
// complete yields StatusPending, never StatusVerified.
func (v *Verifier) Verify(ctx context.Context, anonymizedText string) VerificationStatus {
	if residue := findResidue(anonymizedText); len(residue) > 0 {
		v.logger.Warn("verification failed: residual identifiers", "findings", residue)
		return StatusFailed
	}

	verdict, err := v.modelVerdict(ctx, anonymizedText)
	if err != nil {
		v.logger.Warn("verification verdict unavailable", "error", err)
		return StatusPending
	}
	if !verdict.Safe {
		v.logger.Warn("verification failed: model verdict unsafe", "findings", verdict.Findings)
		return StatusFailed
	}

	return StatusVerified
}

func (v *Verifier) modelVerdict(ctx context.Context, text string) (*verdictResponse, error) {
	prompt := fmt.Sprintf(verifyUserPrompt, text)

	raw, err := v.llm.Complete(ctx, verifySystemPrompt, []anthropic.Message{
		{Role: "user", Content: prompt},
	}, 1024)
	if err != nil {
		return nil, fmt.Errorf("verdict call: %w", err)
	}

	var verdict verdictResponse
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, fmt.Errorf("parse verdict: %w", err)
	}
	return &verdict, nil
}

// findResidue returns the matched spans' pattern labels; empty means clean.
func findResidue(text string) []string {
	var found []string
	for _, re := range residuePatterns {
		if m := re.FindString(text); m != "" {
			found = append(found, re.String())
		}
	}
	return found
}
