package lifecycle

import "errors"

var (
	// ErrInvalidTransition signals an out-of-order state change, such
	// as approving a record that was never scored.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrMissingReviewer signals a decision attempted without a
	// reviewer identity.
	ErrMissingReviewer = errors.New("reviewer identity required")

	// ErrMissingFeedback signals a rejection without feedback text.
	// Feedback is the only sanctioned input to regeneration, so a
	// rejection without it is useless.
	ErrMissingFeedback = errors.New("rejection feedback required")

	// ErrTerminalState signals an attempt to transition a record that
	// already carries a terminal decision.
	ErrTerminalState = errors.New("record is in a terminal state")

	// ErrStaleState signals a lost optimistic-concurrency race: the
	// record's persisted state no longer matches the expected
	// pre-state of the transition.
	ErrStaleState = errors.New("record state changed concurrently")
)
