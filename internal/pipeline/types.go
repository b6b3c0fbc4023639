package pipeline

import (
	"errors"

	"github.com/innerlight-hq/distill/internal/anonymizer"
	"github.com/innerlight-hq/distill/internal/extractor"
)

// SessionInput is the request to process one transcript. No other field is
// read unless ClientConsented is true.
type SessionInput struct {
	SourceLocator   string   `json:"source_locator"`
	SessionDate     string   `json:"session_date"`
	SessionMinutes  int      `json:"session_length_minutes"`
	Modalities      []string `json:"modalities_used"`
	ClientConsented bool     `json:"client_consented"`
}

// Stage names the state-machine step a session reached.
type Stage string

const (
	StagePending     Stage = "pending"
	StageAnonymizing Stage = "anonymizing"
	StageVerifying   Stage = "verifying"
	StageExtracting  Stage = "extracting"
	StageMerging     Stage = "merging"
	StageDeleting    Stage = "deleting"
	StageDone        Stage = "done"
	StageAborted     Stage = "aborted"
)

// ProcessingResult is the per-session outcome. OriginalDeleted is true if and
// only if the source transcript was actually, durably removed.
type ProcessingResult struct {
	Success         bool                             `json:"success"`
	Stage           Stage                            `json:"stage"`
	Anonymized      *anonymizer.AnonymizedTranscript `json:"anonymized,omitempty"`
	Patterns        []extractor.TransformationPattern `json:"patterns,omitempty"`
	PatternCount    int                              `json:"pattern_count"`
	Errors          []string                         `json:"errors,omitempty"`
	OriginalDeleted bool                             `json:"original_deleted"`
}

// Session failure classes. All are converted into ProcessingResult errors;
// none propagate past ProcessSession or ProcessBatch.
var (
	ErrConsentMissing = errors.New("client consent missing")
	ErrAnonymization  = errors.New("anonymization failed")
	ErrVerification   = errors.New("verification not confirmed")
	ErrExtraction     = errors.New("pattern extraction failed")
	ErrPersistence    = errors.New("persistence failed")
)
