package anonymizer

// VerificationStatus is the verdict of the independent verification pass.
// Only StatusVerified may proceed to extraction and original deletion.
type VerificationStatus string

const (
	StatusVerified VerificationStatus = "verified"
	StatusFailed   VerificationStatus = "failed"
	StatusPending  VerificationStatus = "pending"
)

// SessionMetadata is the non-identifying subset of session fields. Names,
// emails, locations and other identifying tokens never belong here.
type SessionMetadata struct {
	SessionDate    string   `json:"session_date"`
	SessionMinutes int      `json:"session_length_minutes"`
	Modalities     []string `json:"modalities_used"`
}

// AnonymizedTranscript is the de-identified artifact produced by the
// scrub + verify passes.
type AnonymizedTranscript struct {
	// OriginalID names downstream artifacts. It is a content hash of the
	// anonymized text, so it carries no PII and is stable across re-runs
	// of the same session.
	OriginalID         string             `json:"original_id"`
	AnonymizedText     string             `json:"anonymized_text"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	SessionMetadata    SessionMetadata    `json:"session_metadata"`
}
