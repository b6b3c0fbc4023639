package anonymizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/innerlight-hq/distill/internal/anthropic"
)

// Anonymizer scrubs identifying content from raw transcripts. It is a pure
// transformation: it writes nothing and deletes nothing.
type Anonymizer struct {
	llm      *anthropic.Client
	verifier *Verifier
	logger   *slog.Logger
}

func New(llm *anthropic.Client, logger *slog.Logger) *Anonymizer {
	return &Anonymizer{
		llm:      llm,
		verifier: NewVerifier(llm, logger),
		logger:   logger,
	}
}

// Anonymize runs the scrub pass over the raw text, then hands the scrubbed
// output to the verification pass. The verifier inspects the output itself;
// the scrub pass gets no say in whether its own work is safe.
func (a *Anonymizer) Anonymize(ctx context.Context, rawText string, meta SessionMetadata) (*AnonymizedTranscript, error) {
	messages := []anthropic.Message{
		{Role: "user", Content: rawText},
	}

	a.logger.Info("scrubbing transcript", "raw_len", len(rawText))

	scrubbed, err := a.llm.Complete(ctx, scrubSystemPrompt, messages, 8192)
	if err != nil {
		return nil, fmt.Errorf("scrub pass: %w", err)
	}
	if scrubbed == "" {
		return nil, fmt.Errorf("scrub pass returned empty transcript")
	}

	status := a.verifier.Verify(ctx, scrubbed)

	anon := &AnonymizedTranscript{
		OriginalID:         contentID(scrubbed),
		AnonymizedText:     scrubbed,
		VerificationStatus: status,
		SessionMetadata:    meta,
	}

	a.logger.Info("anonymization complete",
		"original_id", anon.OriginalID,
		"status", string(status),
		"scrubbed_len", len(scrubbed),
	)

	return anon, nil
}

// contentID derives a stable identifier from the anonymized text. Hashing the
// output (never the input) guarantees the id carries no trace of the original.
func contentID(anonymizedText string) string {
	sum := sha256.Sum256([]byte(anonymizedText))
	return hex.EncodeToString(sum[:16])
}
