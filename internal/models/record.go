package models

import "time"

// ReviewState is the lifecycle state of a review record.
type ReviewState string

const (
	StateDrafted  ReviewState = "drafted"
	StateScored   ReviewState = "scored"
	StateApproved ReviewState = "approved"
	StateRejected ReviewState = "rejected"
)

// Terminal reports whether the state permits no further transitions.
func (s ReviewState) Terminal() bool {
	return s == StateApproved || s == StateRejected
}

// QualityReport is the deterministic evaluation of a candidate against
// its source document. Identical inputs always produce identical reports.
type QualityReport struct {
	Score    int // 0-10
	Coverage int
	Clarity  int
	Language int

	// Advisory flags surfaced to the reviewer; not part of Score.
	FlaggedTooShort  bool
	FlaggedUncertain bool

	// Explainability: which configured terms triggered what.
	MatchedKeywords []string
	HedgeTerms      []string
}

// ReviewRecord tracks one candidate summary through the review
// lifecycle. State changes only through lifecycle transitions; once a
// terminal decision is recorded the record is never mutated again — a
// correction requires a new record.
type ReviewRecord struct {
	ID         string // UUID
	DocumentID string
	Candidate  Candidate
	Report     *QualityReport // nil until scored

	State      ReviewState
	ReviewedBy string // set on approve/reject
	Feedback   string // set on reject, required non-empty

	// RegeneratedFrom links a fresh draft to the rejected record whose
	// feedback prompted it. Empty for first drafts.
	RegeneratedFrom string

	CreatedAt time.Time
	DecidedAt *time.Time
}
