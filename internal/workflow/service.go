// Package workflow orchestrates the summary review pipeline: ingest a
// document, generate and score a draft, and apply human decisions.
//
// Regeneration only ever happens through an explicit Regenerate call —
// there is no retry loop, and no path here moves a record to Approved
// without a reviewer identity.
package workflow

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/joescharf/sumgate/internal/lifecycle"
	"github.com/joescharf/sumgate/internal/models"
	"github.com/joescharf/sumgate/internal/scoring"
	"github.com/joescharf/sumgate/internal/store"
)

// Generator produces summary drafts. The production implementation is
// internal/llm; tests substitute a fake.
type Generator interface {
	Summarize(ctx context.Context, docText string) (string, error)
	Regenerate(ctx context.Context, docText, priorSummary, feedback string) (string, error)
	Model() string
}

// Service wires the store, scorer, and generator together.
type Service struct {
	store  store.Store
	scorer *scoring.Scorer
	gen    Generator
}

// NewService creates a workflow service.
func NewService(s store.Store, scorer *scoring.Scorer, gen Generator) *Service {
	return &Service{store: s, scorer: scorer, gen: gen}
}

// newULID generates a new ULID string for candidate IDs.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Ingest persists extracted document content and returns the document.
func (s *Service) Ingest(ctx context.Context, name, contentType, text string) (*models.Document, error) {
	doc := &models.Document{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Text:        text,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Summarize generates a first draft for a document, scores it, and
// persists the resulting record in the Scored state.
func (s *Service) Summarize(ctx context.Context, documentID string) (*models.ReviewRecord, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	text, err := s.gen.Summarize(ctx, doc.Text)
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	cand := models.Candidate{
		ID:          newULID(),
		Text:        text,
		Model:       s.gen.Model(),
		Attempt:     1,
		GeneratedAt: time.Now().UTC(),
	}

	rec := lifecycle.NewDraft(uuid.NewString(), doc.ID, cand)
	return s.scoreAndPersist(ctx, doc, rec)
}

// scoreAndPersist persists a fresh Drafted record, scores it, and
// advances it to Scored.
func (s *Service) scoreAndPersist(ctx context.Context, doc *models.Document, rec *models.ReviewRecord) (*models.ReviewRecord, error) {
	if err := s.store.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}

	report := s.scorer.Score(doc.Text, &rec.Candidate)
	if err := lifecycle.Score(rec, report); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRecord(ctx, rec, models.StateDrafted); err != nil {
		return nil, err
	}
	return rec, nil
}

// ScoreRecord scores a record still sitting in Drafted, for drafts
// created outside Summarize. Idempotent for an identical candidate.
func (s *Service) ScoreRecord(ctx context.Context, recordID string) (*models.ReviewRecord, error) {
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.GetDocument(ctx, rec.DocumentID)
	if err != nil {
		return nil, err
	}

	prior := rec.State
	report := s.scorer.Score(doc.Text, &rec.Candidate)
	if err := lifecycle.Score(rec, report); err != nil {
		return nil, err
	}
	if prior == models.StateScored {
		// Identical re-score; nothing to persist.
		return rec, nil
	}
	if err := s.store.UpdateRecord(ctx, rec, prior); err != nil {
		return nil, err
	}
	return rec, nil
}

// Approve records an approval decision and writes the approved
// snapshot. Repeating an identical approval is a no-op.
func (s *Service) Approve(ctx context.Context, recordID, reviewer string) (*models.ReviewRecord, error) {
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	prior := rec.State
	if err := lifecycle.Approve(rec, reviewer); err != nil {
		return nil, err
	}
	return s.finalize(ctx, rec, prior)
}

// Reject records a rejection with mandatory feedback and writes the
// rejected snapshot. Repeating an identical rejection is a no-op.
func (s *Service) Reject(ctx context.Context, recordID, reviewer, feedback string) (*models.ReviewRecord, error) {
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	prior := rec.State
	if err := lifecycle.Reject(rec, reviewer, feedback); err != nil {
		return nil, err
	}
	return s.finalize(ctx, rec, prior)
}

// finalize persists a decision (CAS against the pre-decision state)
// and writes the terminal snapshot.
func (s *Service) finalize(ctx context.Context, rec *models.ReviewRecord, prior models.ReviewState) (*models.ReviewRecord, error) {
	if prior != rec.State {
		if err := s.store.UpdateRecord(ctx, rec, prior); err != nil {
			return nil, err
		}
	}

	doc, err := s.store.GetDocument(ctx, rec.DocumentID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Finalize(ctx, rec, doc.Text); err != nil {
		return nil, err
	}
	return rec, nil
}

// Regenerate produces a fresh draft for a rejected record, steering
// the generator by the rejection feedback. Human-triggered only.
func (s *Service) Regenerate(ctx context.Context, rejectedID string) (*models.ReviewRecord, error) {
	rejected, err := s.store.GetRecord(ctx, rejectedID)
	if err != nil {
		return nil, err
	}
	if rejected.State != models.StateRejected {
		return nil, lifecycle.ErrInvalidTransition
	}

	doc, err := s.store.GetDocument(ctx, rejected.DocumentID)
	if err != nil {
		return nil, err
	}

	text, err := s.gen.Regenerate(ctx, doc.Text, rejected.Candidate.Text, rejected.Feedback)
	if err != nil {
		return nil, fmt.Errorf("regenerate summary: %w", err)
	}

	cand := models.Candidate{
		ID:          newULID(),
		Text:        text,
		Model:       s.gen.Model(),
		Attempt:     rejected.Candidate.Attempt + 1,
		GeneratedAt: time.Now().UTC(),
	}

	// lifecycle.Regenerate validates the source state and links the
	// new record back to the rejected one.
	rec, err := lifecycle.Regenerate(rejected, uuid.NewString(), cand)
	if err != nil {
		return nil, err
	}
	return s.scoreAndPersist(ctx, doc, rec)
}

// Queue lists scored records awaiting a human decision, oldest last.
func (s *Service) Queue(ctx context.Context) ([]*models.ReviewRecord, error) {
	return s.store.ListRecords(ctx, store.RecordFilter{State: models.StateScored})
}

// Record fetches a single record by ID.
func (s *Service) Record(ctx context.Context, id string) (*models.ReviewRecord, error) {
	return s.store.GetRecord(ctx, id)
}
