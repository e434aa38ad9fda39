package store

import (
	"context"
	"time"

	"github.com/joescharf/sumgate/internal/models"
)

// RecordFilter specifies filters for listing review records.
type RecordFilter struct {
	DocumentID string
	State      models.ReviewState
	Limit      int
}

// Snapshot is the immutable row written to one of the two terminal
// destinations (approved_summaries / rejected_summaries) when a record
// is finalized. This is the sink's schema: live lifecycle state never
// rides here.
type Snapshot struct {
	ID               string // review record UUID
	OriginalText     string
	Summary          string
	Score            int
	FlaggedUncertain bool
	FlaggedTooShort  bool
	Reviewer         string
	Feedback         string // required non-empty for rejections
	CreatedAt        time.Time
}

// Store defines the persistence interface for sumgate.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]*models.Document, error)

	// Review records
	CreateRecord(ctx context.Context, rec *models.ReviewRecord) error
	GetRecord(ctx context.Context, id string) (*models.ReviewRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]*models.ReviewRecord, error)

	// UpdateRecord persists the record's current fields, but only if
	// the stored state still equals expect (compare-and-swap). A miss
	// returns lifecycle.ErrStaleState so concurrent conflicting
	// decisions on the same record serialize cleanly.
	UpdateRecord(ctx context.Context, rec *models.ReviewRecord, expect models.ReviewState) error

	// Finalize writes the record's immutable snapshot to the
	// destination matching its terminal state.
	Finalize(ctx context.Context, rec *models.ReviewRecord, sourceText string) error
	ListApproved(ctx context.Context) ([]*Snapshot, error)
	ListRejected(ctx context.Context) ([]*Snapshot, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
