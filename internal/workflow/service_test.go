package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/sumgate/internal/lifecycle"
	"github.com/joescharf/sumgate/internal/models"
	"github.com/joescharf/sumgate/internal/scoring"
	"github.com/joescharf/sumgate/internal/store"
)

// fakeGenerator returns canned summaries and records what it was asked.
type fakeGenerator struct {
	summary      string
	regenerated  string
	err          error
	lastFeedback string
	calls        int
}

func (f *fakeGenerator) Summarize(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.summary, f.err
}

func (f *fakeGenerator) Regenerate(_ context.Context, _, _, feedback string) (string, error) {
	f.calls++
	f.lastFeedback = feedback
	return f.regenerated, f.err
}

func (f *fakeGenerator) Model() string { return "fake-model" }

const draftText = "The portfolio maintains a balanced asset allocation across equity and debt. " +
	"Monthly SIP contributions continue while tax efficiency is reviewed each quarter. " +
	"Risk exposure is monitored regularly and the allocation is rebalanced when drift exceeds policy bands."

func newTestService(t *testing.T, gen Generator) (*Service, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	return NewService(s, scoring.NewScorer(scoring.DefaultConfig()), gen), s
}

func ingestDoc(t *testing.T, svc *Service) *models.Document {
	t.Helper()
	doc, err := svc.Ingest(context.Background(), "strategy.txt", "text/plain",
		"Maintain asset allocation, monitor risk, rebalance quarterly.")
	require.NoError(t, err)
	return doc
}

func TestSummarize(t *testing.T) {
	gen := &fakeGenerator{summary: draftText}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	doc := ingestDoc(t, svc)
	rec, err := svc.Summarize(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StateScored, rec.State)
	require.NotNil(t, rec.Report)
	assert.GreaterOrEqual(t, rec.Report.Score, 0)
	assert.LessOrEqual(t, rec.Report.Score, 10)
	assert.Equal(t, "fake-model", rec.Candidate.Model)
	assert.Equal(t, 1, rec.Candidate.Attempt)
	assert.Empty(t, rec.RegeneratedFrom)

	// Persisted in the same state.
	got, err := svc.Record(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateScored, got.State)
	assert.Equal(t, rec.Report.Score, got.Report.Score)
}

func TestSummarize_GeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("api down")}
	svc, st := newTestService(t, gen)
	ctx := context.Background()

	doc := ingestDoc(t, svc)
	_, err := svc.Summarize(ctx, doc.ID)
	require.Error(t, err)

	// Nothing half-written.
	records, err := st.ListRecords(ctx, store.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSummarize_DocumentNotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{summary: draftText})
	_, err := svc.Summarize(context.Background(), "missing")
	assert.Error(t, err)
}

func TestApprove(t *testing.T) {
	gen := &fakeGenerator{summary: draftText}
	svc, st := newTestService(t, gen)
	ctx := context.Background()

	doc := ingestDoc(t, svc)
	rec, err := svc.Summarize(ctx, doc.ID)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StateApproved, approved.State)
	assert.Equal(t, "alice", approved.ReviewedBy)

	snaps, err := st.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, rec.ID, snaps[0].ID)
	assert.Equal(t, doc.Text, snaps[0].OriginalText)

	// Idempotent repeat.
	_, err = svc.Approve(ctx, rec.ID, "alice")
	require.NoError(t, err)
	snaps, err = st.ListApproved(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestApprove_Validation(t *testing.T) {
	gen := &fakeGenerator{summary: draftText}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	doc := ingestDoc(t, svc)
	rec, err := svc.Summarize(ctx, doc.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, rec.ID, "")
	assert.ErrorIs(t, err, lifecycle.ErrMissingReviewer)

	_, err = svc.Reject(ctx, rec.ID, "bob", "")
	assert.ErrorIs(t, err, lifecycle.ErrMissingFeedback)

	// Still pending after failed decisions.
	queue, err := svc.Queue(ctx)
	require.NoError(t, err)
	assert.Len(t, queue, 1)
}

func TestReject_ThenRegenerate(t *testing.T) {
	gen := &fakeGenerator{
		summary:     draftText,
		regenerated: draftText + " Emotional decision-making is avoided by following the written plan.",
	}
	svc, st := newTestService(t, gen)
	ctx := context.Background()

	doc := ingestDoc(t, svc)
	rec, err := svc.Summarize(ctx, doc.ID)
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, rec.ID, "bob", "too vague")
	require.NoError(t, err)
	assert.Equal(t, models.StateRejected, rejected.State)
	assert.Equal(t, "too vague", rejected.Feedback)

	snaps, err := st.ListRejected(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "too vague", snaps[0].Feedback)

	fresh, err := svc.Regenerate(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateScored, fresh.State)
	assert.Equal(t, rec.ID, fresh.RegeneratedFrom)
	assert.Equal(t, 2, fresh.Candidate.Attempt)
	assert.Equal(t, "too vague", gen.lastFeedback, "feedback steers regeneration")

	// The rejected record is untouched.
	old, err := svc.Record(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateRejected, old.State)
}

func TestRegenerate_RequiresRejected(t *testing.T) {
	gen := &fakeGenerator{summary: draftText, regenerated: draftText}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	doc := ingestDoc(t, svc)
	rec, err := svc.Summarize(ctx, doc.ID)
	require.NoError(t, err)

	// Scored, not rejected.
	calls := gen.calls
	_, err = svc.Regenerate(ctx, rec.ID)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	assert.Equal(t, calls, gen.calls, "no generation for invalid state")

	_, err = svc.Approve(ctx, rec.ID, "alice")
	require.NoError(t, err)
	_, err = svc.Regenerate(ctx, rec.ID)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestQueue(t *testing.T) {
	gen := &fakeGenerator{summary: draftText}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	doc := ingestDoc(t, svc)
	first, err := svc.Summarize(ctx, doc.ID)
	require.NoError(t, err)
	second, err := svc.Summarize(ctx, doc.ID)
	require.NoError(t, err)

	queue, err := svc.Queue(ctx)
	require.NoError(t, err)
	assert.Len(t, queue, 2)

	_, err = svc.Approve(ctx, first.ID, "alice")
	require.NoError(t, err)

	queue, err = svc.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, second.ID, queue[0].ID)
}

func TestConflictingDecisionSerializes(t *testing.T) {
	gen := &fakeGenerator{summary: draftText}
	svc, st := newTestService(t, gen)
	ctx := context.Background()

	doc := ingestDoc(t, svc)
	rec, err := svc.Summarize(ctx, doc.ID)
	require.NoError(t, err)

	// A second actor decided while our copy of the record was stale:
	// simulate by approving, then replaying a reject built from the
	// stale Scored copy through the store CAS.
	_, err = svc.Approve(ctx, rec.ID, "alice")
	require.NoError(t, err)

	stale := *rec
	stale.State = models.StateRejected
	stale.ReviewedBy = "bob"
	stale.Feedback = "too vague"
	err = st.UpdateRecord(ctx, &stale, models.StateScored)
	assert.ErrorIs(t, err, lifecycle.ErrStaleState)

	// And through the service the conflict surfaces as a terminal-state
	// violation, leaving the approval in place.
	_, err = svc.Reject(ctx, rec.ID, "bob", "too vague")
	assert.ErrorIs(t, err, lifecycle.ErrTerminalState)

	got, err := svc.Record(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateApproved, got.State)
}
