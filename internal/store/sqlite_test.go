package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/sumgate/internal/lifecycle"
	"github.com/joescharf/sumgate/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func testDocument(t *testing.T, s *SQLiteStore) *models.Document {
	t.Helper()
	d := &models.Document{
		ID:          "doc-00000000-0000-0000-0000-000000000001",
		Name:        "investment_strategy.txt",
		ContentType: "text/plain",
		Text:        "Maintain asset allocation, monitor risk, rebalance quarterly.",
	}
	require.NoError(t, s.CreateDocument(context.Background(), d))
	return d
}

func testRecord(t *testing.T, s *SQLiteStore, doc *models.Document) *models.ReviewRecord {
	t.Helper()
	rec := &models.ReviewRecord{
		ID:         "rec-00000000-0000-0000-0000-000000000001",
		DocumentID: doc.ID,
		Candidate: models.Candidate{
			ID:          "01HCAND000000000000000000",
			Text:        "The portfolio maintains its asset allocation and risk is monitored.",
			Model:       "claude-haiku-4-5-20251001",
			Attempt:     1,
			GeneratedAt: time.Now().UTC(),
		},
		State: models.StateDrafted,
	}
	require.NoError(t, s.CreateRecord(context.Background(), rec))
	return rec
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestDocumentCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := testDocument(t, s)
	assert.False(t, d.CreatedAt.IsZero())

	got, err := s.GetDocument(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Name, got.Name)
	assert.Equal(t, d.Text, got.Text)

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	_, err = s.GetDocument(ctx, "missing")
	assert.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDocument(t, s)
	rec := testRecord(t, s, doc)

	got, err := s.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateDrafted, got.State)
	assert.Nil(t, got.Report, "unscored record has no report")
	assert.Equal(t, rec.Candidate.ID, got.Candidate.ID)
	assert.Equal(t, rec.Candidate.Text, got.Candidate.Text)
	assert.Equal(t, 1, got.Candidate.Attempt)
}

func TestRecordWithReport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDocument(t, s)
	rec := testRecord(t, s, doc)

	rec.State = models.StateScored
	rec.Report = &models.QualityReport{
		Score:           8,
		Coverage:        3,
		Clarity:         3,
		Language:        2,
		FlaggedTooShort: true,
		MatchedKeywords: []string{"asset allocation", "risk"},
	}
	require.NoError(t, s.UpdateRecord(ctx, rec, models.StateDrafted))

	got, err := s.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateScored, got.State)
	require.NotNil(t, got.Report)
	assert.Equal(t, 8, got.Report.Score)
	assert.True(t, got.Report.FlaggedTooShort)
	assert.False(t, got.Report.FlaggedUncertain)
	assert.Equal(t, []string{"asset allocation", "risk"}, got.Report.MatchedKeywords)
	assert.Empty(t, got.Report.HedgeTerms)
}

func TestUpdateRecord_StaleState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDocument(t, s)
	rec := testRecord(t, s, doc)

	// CAS expecting a state the row is no longer in.
	rec.State = models.StateScored
	err := s.UpdateRecord(ctx, rec, models.StateScored)
	assert.ErrorIs(t, err, lifecycle.ErrStaleState)

	// The row is untouched.
	got, err := s.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateDrafted, got.State)
}

func TestUpdateRecord_NotFound(t *testing.T) {
	s := newTestStore(t)
	rec := &models.ReviewRecord{ID: "missing", State: models.StateScored}

	err := s.UpdateRecord(context.Background(), rec, models.StateDrafted)
	require.Error(t, err)
	assert.NotErrorIs(t, err, lifecycle.ErrStaleState)
}

func TestListRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDocument(t, s)
	rec := testRecord(t, s, doc)

	second := &models.ReviewRecord{
		ID:         "rec-00000000-0000-0000-0000-000000000002",
		DocumentID: doc.ID,
		Candidate:  models.Candidate{ID: "01HCAND000000000000000002", Text: "Another draft.", Attempt: 2, GeneratedAt: time.Now().UTC()},
		State:      models.StateScored,
		Report:     &models.QualityReport{Score: 5, Coverage: 1, Clarity: 2, Language: 2},
	}
	require.NoError(t, s.CreateRecord(ctx, second))

	all, err := s.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scored, err := s.ListRecords(ctx, RecordFilter{State: models.StateScored})
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, second.ID, scored[0].ID)

	byDoc, err := s.ListRecords(ctx, RecordFilter{DocumentID: doc.ID})
	require.NoError(t, err)
	assert.Len(t, byDoc, 2)

	limited, err := s.ListRecords(ctx, RecordFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_ = rec
}

func TestFinalize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDocument(t, s)

	t.Run("approved destination", func(t *testing.T) {
		rec := testRecord(t, s, doc)
		now := time.Now().UTC()
		rec.State = models.StateApproved
		rec.Report = &models.QualityReport{Score: 9, Coverage: 4, Clarity: 3, Language: 2}
		rec.ReviewedBy = "alice"
		rec.DecidedAt = &now
		require.NoError(t, s.UpdateRecord(ctx, rec, models.StateDrafted))

		require.NoError(t, s.Finalize(ctx, rec, doc.Text))

		snaps, err := s.ListApproved(ctx)
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, rec.ID, snaps[0].ID)
		assert.Equal(t, doc.Text, snaps[0].OriginalText)
		assert.Equal(t, "alice", snaps[0].Reviewer)
		assert.Equal(t, 9, snaps[0].Score)
		assert.Empty(t, snaps[0].Feedback)

		// Repeating a finalize of the same record is a no-op.
		require.NoError(t, s.Finalize(ctx, rec, doc.Text))
		snaps, err = s.ListApproved(ctx)
		require.NoError(t, err)
		assert.Len(t, snaps, 1)
	})

	t.Run("rejected destination", func(t *testing.T) {
		rec := &models.ReviewRecord{
			ID:         "rec-00000000-0000-0000-0000-000000000009",
			DocumentID: doc.ID,
			Candidate:  models.Candidate{ID: "01HCAND000000000000000009", Text: "Too vague.", Attempt: 1, GeneratedAt: time.Now().UTC()},
			State:      models.StateRejected,
			Report:     &models.QualityReport{Score: 2, FlaggedTooShort: true},
			ReviewedBy: "bob",
			Feedback:   "misses the risk discussion",
		}
		require.NoError(t, s.CreateRecord(ctx, rec))

		require.NoError(t, s.Finalize(ctx, rec, doc.Text))

		snaps, err := s.ListRejected(ctx)
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, "bob", snaps[0].Reviewer)
		assert.Equal(t, "misses the risk discussion", snaps[0].Feedback)
		assert.True(t, snaps[0].FlaggedTooShort)
	})

	t.Run("non-terminal record", func(t *testing.T) {
		rec := &models.ReviewRecord{
			ID:     "rec-nonterminal",
			State:  models.StateScored,
			Report: &models.QualityReport{Score: 5},
		}
		assert.Error(t, s.Finalize(ctx, rec, doc.Text))
	})
}
