package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/innerlight-hq/distill/internal/anonymizer"
	"github.com/innerlight-hq/distill/internal/extractor"
	"github.com/innerlight-hq/distill/internal/hermes"
	"github.com/innerlight-hq/distill/internal/library"
)

// Anonymizer scrubs a raw transcript and verifies its own output.
type Anonymizer interface {
	Anonymize(ctx context.Context, rawText string, meta anonymizer.SessionMetadata) (*anonymizer.AnonymizedTranscript, error)
}

// Extractor produces transformation patterns from a verified transcript.
type Extractor interface {
	Extract(ctx context.Context, anon *anonymizer.AnonymizedTranscript) ([]extractor.TransformationPattern, error)
}

// Archiver records de-identified artifacts in a secondary store. Archiving is
// additive: the artifact file is the durable copy that gates deletion.
type Archiver interface {
	ArchiveTranscript(ctx context.Context, anon *anonymizer.AnonymizedTranscript, patternCount int) error
	RecordOutcome(ctx context.Context, originalID string, success bool, stage string, patternCount int, originalDeleted bool, errs []string) error
}

// Publisher emits pipeline events.
type Publisher interface {
	Publish(subject string, data any) error
}

// Notifier surfaces sessions that need an operator.
type Notifier interface {
	PostReviewAlert(ctx context.Context, originalID string, status anonymizer.VerificationStatus) error
	PostBatchSummary(ctx context.Context, text string) error
}

// Config holds the orchestrator's knobs.
type Config struct {
	ArtifactDir string
	PacingDelay time.Duration

	// DeleteOnExtractFailure controls the extraction-failure policy: false
	// preserves the original for retry; true deletes it once the anonymized
	// artifact and the (unchanged) library have been durably saved.
	DeleteOnExtractFailure bool
}

// Processor sequences consent -> anonymize -> verify -> extract -> merge ->
// persist -> delete for one session at a time, and drives paced batch runs.
// It is the only component that touches the source store, and the sole owner
// of the library file while it runs.
type Processor struct {
	cfg    Config
	source SourceStore
	anon   Anonymizer
	ext    Extractor
	lib    *library.Library
	logger *slog.Logger

	// Optional collaborators; nil disables the integration.
	archive Archiver
	events  Publisher
	notify  Notifier

	mu sync.Mutex // one session in flight, ever
}

func New(cfg Config, source SourceStore, anon Anonymizer, ext Extractor, lib *library.Library, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:    cfg,
		source: source,
		anon:   anon,
		ext:    ext,
		lib:    lib,
		logger: logger,
	}
}

// WithArchiver attaches the optional transcript archive store.
func (p *Processor) WithArchiver(a Archiver) *Processor {
	p.archive = a
	return p
}

// WithPublisher attaches the optional event publisher.
func (p *Processor) WithPublisher(pub Publisher) *Processor {
	p.events = pub
	return p
}

// WithNotifier attaches the optional operator notifier.
func (p *Processor) WithNotifier(n Notifier) *Processor {
	p.notify = n
	return p
}

// ProcessSession runs the full state machine for one session. All expected
// failure modes come back inside the result; only programming errors panic.
func (p *Processor) ProcessSession(ctx context.Context, in SessionInput) ProcessingResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := p.processSession(ctx, in)
	p.recordOutcome(ctx, res)
	return res
}

// LibraryStats exposes the current aggregate counts.
func (p *Processor) LibraryStats() library.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lib.Stats()
}

func (p *Processor) processSession(ctx context.Context, in SessionInput) ProcessingResult {
	res := ProcessingResult{Stage: StagePending}

	// Consent gate. Runs before any other field is read or the source store
	// is touched.
	if !in.ClientConsented {
		return p.abort(res, fmt.Errorf("%w: session not processed", ErrConsentMissing))
	}

	raw, err := p.source.Fetch(ctx, in.SourceLocator)
	if err != nil {
		return p.abort(res, fmt.Errorf("%w: fetch original: %v", ErrAnonymization, err))
	}

	res.Stage = StageAnonymizing
	meta := anonymizer.SessionMetadata{
		SessionDate:    in.SessionDate,
		SessionMinutes: in.SessionMinutes,
		Modalities:     in.Modalities,
	}
	anon, err := p.anon.Anonymize(ctx, raw, meta)
	if err != nil {
		return p.abort(res, fmt.Errorf("%w: %v", ErrAnonymization, err))
	}
	res.Anonymized = anon

	// Verify gate. Unverified output never reaches persistence, and the
	// original is never deleted behind it.
	res.Stage = StageVerifying
	if anon.VerificationStatus != anonymizer.StatusVerified {
		p.alertReview(ctx, anon)
		return p.abort(res, fmt.Errorf("%w: status %s, requires manual review",
			ErrVerification, anon.VerificationStatus))
	}

	res.Stage = StageExtracting
	patterns, extractErr := p.ext.Extract(ctx, anon)
	if extractErr != nil {
		if !p.cfg.DeleteOnExtractFailure {
			return p.abort(res, fmt.Errorf("%w: %v (original preserved for retry)", ErrExtraction, extractErr))
		}
		patterns = nil
	}
	res.Patterns = patterns
	res.PatternCount = len(patterns)

	// Merge and persist. Everything here must durably complete before the
	// original is touched: artifact file first, then the library.
	res.Stage = StageMerging
	if err := p.writeArtifact(anon, patterns); err != nil {
		return p.abort(res, fmt.Errorf("%w: artifact: %v", ErrPersistence, err))
	}
	if p.archive != nil {
		if err := p.archive.ArchiveTranscript(ctx, anon, len(patterns)); err != nil {
			p.logger.Warn("archive store write failed", "original_id", anon.OriginalID, "error", err)
		}
	}

	added := p.lib.AddPatterns(patterns)
	if err := p.lib.Save(); err != nil {
		return p.abort(res, fmt.Errorf("%w: library save: %v", ErrPersistence, err))
	}
	p.publish(hermes.SubjectPatternMerged, map[string]any{
		"original_id":     anon.OriginalID,
		"patterns_merged": added,
		"library_total":   p.lib.Len(),
	})

	res.Stage = StageDeleting
	if err := p.source.Delete(ctx, in.SourceLocator); err != nil {
		return p.abort(res, fmt.Errorf("%w: delete original: %v (library already saved, safe to re-run)",
			ErrPersistence, err))
	}
	res.OriginalDeleted = true

	res.Stage = StageDone
	res.Success = extractErr == nil
	if extractErr != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%v: %v (original deleted with zero patterns per policy)",
			ErrExtraction, extractErr))
	}

	p.logger.Info("session processed",
		"original_id", anon.OriginalID,
		"patterns", res.PatternCount,
		"merged", added,
		"deleted", res.OriginalDeleted,
		"success", res.Success,
	)
	p.publish(hermes.SubjectSessionProcessed, map[string]any{
		"original_id":      anon.OriginalID,
		"success":          res.Success,
		"pattern_count":    res.PatternCount,
		"original_deleted": res.OriginalDeleted,
	})

	return res
}

func (p *Processor) abort(res ProcessingResult, err error) ProcessingResult {
	res.Stage = StageAborted
	res.Success = false
	res.Errors = append(res.Errors, err.Error())
	p.logger.Error("session aborted", "error", err)
	return res
}

// artifactRecord is the durable de-identified form: the transcript plus the
// patterns extracted from it.
type artifactRecord struct {
	anonymizer.AnonymizedTranscript
	ExtractedPatterns []extractor.TransformationPattern `json:"extracted_patterns"`
}

// writeArtifact persists the verified artifact under its content id. The name
// is deterministic, so re-running an interrupted session overwrites its own
// artifact rather than duplicating it.
func (p *Processor) writeArtifact(anon *anonymizer.AnonymizedTranscript, patterns []extractor.TransformationPattern) error {
	if err := os.MkdirAll(p.cfg.ArtifactDir, 0o755); err != nil {
		return fmt.Errorf("mkdir artifact dir: %w", err)
	}

	rec := artifactRecord{
		AnonymizedTranscript: *anon,
		ExtractedPatterns:    patterns,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	path := filepath.Join(p.cfg.ArtifactDir, anon.OriginalID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

func (p *Processor) alertReview(ctx context.Context, anon *anonymizer.AnonymizedTranscript) {
	if p.notify != nil {
		if err := p.notify.PostReviewAlert(ctx, anon.OriginalID, anon.VerificationStatus); err != nil {
			p.logger.Warn("review alert failed", "original_id", anon.OriginalID, "error", err)
		}
	}
	p.publish(hermes.SubjectReviewRequired, map[string]any{
		"original_id": anon.OriginalID,
		"status":      string(anon.VerificationStatus),
	})
}

// recordOutcome appends the session outcome to the audit archive, once an
// artifact exists to hang it off.
func (p *Processor) recordOutcome(ctx context.Context, res ProcessingResult) {
	if p.archive == nil || res.Anonymized == nil {
		return
	}
	err := p.archive.RecordOutcome(ctx, res.Anonymized.OriginalID, res.Success,
		string(res.Stage), res.PatternCount, res.OriginalDeleted, res.Errors)
	if err != nil {
		p.logger.Warn("outcome record failed", "original_id", res.Anonymized.OriginalID, "error", err)
	}
}

func (p *Processor) publish(subject string, data any) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(subject, data); err != nil {
		p.logger.Warn("event publish failed", "subject", subject, "error", err)
	}
}
