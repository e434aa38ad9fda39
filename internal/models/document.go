package models

import "time"

// Document is an ingested source document awaiting summarization.
// The core treats Text as opaque extracted content; extraction itself
// happens upstream in internal/extract.
type Document struct {
	ID          string
	Name        string
	Text        string
	ContentType string
	CreatedAt   time.Time
}

// WordCount returns the number of whitespace-separated words in the
// document text. Used for display only, never for scoring.
func (d *Document) WordCount() int {
	return countWords(d.Text)
}
