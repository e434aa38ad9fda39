// Package lifecycle owns review record state transitions. Records move
// Drafted → Scored → Approved|Rejected; regeneration creates a fresh
// Drafted record linked to the rejected one rather than reviving it.
//
// Every transition validates the record's current state before
// mutating it, and terminal records are never mutated. Nothing in this
// package (or anywhere else in the core) approves a record without an
// explicit reviewer identity, and nothing regenerates without an
// explicit external call.
package lifecycle

import (
	"reflect"
	"time"

	"github.com/joescharf/sumgate/internal/models"
)

// NewDraft creates a Drafted record for a freshly generated candidate.
func NewDraft(id, documentID string, cand models.Candidate) *models.ReviewRecord {
	return &models.ReviewRecord{
		ID:         id,
		DocumentID: documentID,
		Candidate:  cand,
		State:      models.StateDrafted,
		CreatedAt:  time.Now().UTC(),
	}
}

// Score attaches a quality report, moving Drafted → Scored.
//
// Calling it again with a byte-identical report is a no-op; a report
// that differs from the attached one means the caller scored a
// different candidate, which is an invalid transition.
func Score(rec *models.ReviewRecord, report models.QualityReport) error {
	if rec.State.Terminal() {
		return ErrTerminalState
	}
	if rec.Candidate.ID == "" {
		return ErrInvalidTransition
	}

	switch rec.State {
	case models.StateDrafted:
		rec.Report = &report
		rec.State = models.StateScored
		return nil
	case models.StateScored:
		if rec.Report != nil && reflect.DeepEqual(*rec.Report, report) {
			return nil
		}
		return ErrInvalidTransition
	default:
		return ErrInvalidTransition
	}
}

// Approve records an approval decision, moving Scored → Approved.
// Repeating an identical approval is a no-op.
func Approve(rec *models.ReviewRecord, reviewer string) error {
	if reviewer == "" {
		return ErrMissingReviewer
	}

	switch rec.State {
	case models.StateApproved:
		if rec.ReviewedBy == reviewer {
			return nil
		}
		return ErrTerminalState
	case models.StateRejected:
		return ErrTerminalState
	case models.StateScored:
		now := time.Now().UTC()
		rec.State = models.StateApproved
		rec.ReviewedBy = reviewer
		rec.DecidedAt = &now
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Reject records a rejection, moving Scored → Rejected. Feedback is
// mandatory: it is the only sanctioned input to regeneration.
// Repeating an identical rejection is a no-op.
func Reject(rec *models.ReviewRecord, reviewer, feedback string) error {
	if reviewer == "" {
		return ErrMissingReviewer
	}
	if feedback == "" {
		return ErrMissingFeedback
	}

	switch rec.State {
	case models.StateRejected:
		if rec.ReviewedBy == reviewer && rec.Feedback == feedback {
			return nil
		}
		return ErrTerminalState
	case models.StateApproved:
		return ErrTerminalState
	case models.StateScored:
		now := time.Now().UTC()
		rec.State = models.StateRejected
		rec.ReviewedBy = reviewer
		rec.Feedback = feedback
		rec.DecidedAt = &now
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Regenerate builds a fresh Drafted record from a rejected one. The
// prior record is read, never mutated; the new record points back at
// it through RegeneratedFrom. Only an external actor calls this —
// there is no automatic retry loop.
func Regenerate(rejected *models.ReviewRecord, newID string, cand models.Candidate) (*models.ReviewRecord, error) {
	if rejected.State != models.StateRejected {
		return nil, ErrInvalidTransition
	}

	rec := NewDraft(newID, rejected.DocumentID, cand)
	rec.RegeneratedFrom = rejected.ID
	return rec, nil
}
