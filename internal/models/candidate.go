package models

import (
	"strings"
	"time"
)

// Candidate is a single LLM-generated summary draft. Immutable after
// creation; a regeneration produces a new Candidate, never an edit.
type Candidate struct {
	ID          string // ULID, sortable by generation time
	Text        string
	Model       string // opaque model/prompt tag, passed through unexamined
	Attempt     int    // 1 for the first draft, incremented per regeneration
	GeneratedAt time.Time
}

// WordCount returns the number of whitespace-separated words in the
// candidate text.
func (c *Candidate) WordCount() int {
	return countWords(c.Text)
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
