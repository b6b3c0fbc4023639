package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/innerlight-hq/distill/internal/anonymizer"
)

// ArchiveTranscript inserts the de-identified artifact. Re-running a session
// produces the same original_id, so repeats are no-ops.
func (s *Store) ArchiveTranscript(ctx context.Context, anon *anonymizer.AnonymizedTranscript, patternCount int) error {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO anonymized_transcripts
			(id, original_id, anonymized_text, verification_status, session_date, session_minutes, modalities, pattern_count, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (original_id) DO NOTHING`,
		id, anon.OriginalID, anon.AnonymizedText, string(anon.VerificationStatus),
		anon.SessionMetadata.SessionDate, anon.SessionMetadata.SessionMinutes,
		anon.SessionMetadata.Modalities, patternCount,
	)
	if err != nil {
		return fmt.Errorf("insert anonymized transcript: %w", err)
	}
	return nil
}

// RecordOutcome appends a per-session processing outcome for audit.
func (s *Store) RecordOutcome(ctx context.Context, originalID string, success bool, stage string, patternCount int, originalDeleted bool, errs []string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processing_outcomes
			(id, original_id, success, stage, pattern_count, original_deleted, errors, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		uuid.New(), originalID, success, stage, patternCount, originalDeleted, errs,
	)
	if err != nil {
		return fmt.Errorf("insert processing outcome: %w", err)
	}
	return nil
}

// TranscriptRow is an archived artifact record.
type TranscriptRow struct {
	ID                 uuid.UUID
	OriginalID         string
	VerificationStatus string
	PatternCount       int
}

// GetTranscriptByOriginalID fetches an archived artifact by its content id.
func (s *Store) GetTranscriptByOriginalID(ctx context.Context, originalID string) (*TranscriptRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, original_id, verification_status, pattern_count
		FROM anonymized_transcripts WHERE original_id = $1`, originalID)

	var tr TranscriptRow
	if err := row.Scan(&tr.ID, &tr.OriginalID, &tr.VerificationStatus, &tr.PatternCount); err != nil {
		return nil, err
	}
	return &tr, nil
}
