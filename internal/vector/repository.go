// Package vector mirrors the questionnaire corpus into an external vector
// index so corpus entries can be searched by raw embedding. The mirror is
// optional; the mapping pipeline never depends on it.
package vector

import "context"

// Entry kinds stored in the index payload.
const (
	KindQuestion = "question"
	KindOption   = "option"
)

// Entry is one corpus text with its embedding.
type Entry struct {
	ID       string
	Text     string
	Category string
	Question string
	Kind     string
	Vector   []float32
}

// SearchResult is a single match from a similarity search.
type SearchResult struct {
	ID       string
	Score    float32
	Text     string
	Category string
	Question string
	Kind     string
}

// Index provides vector storage and similarity search over corpus entries.
type Index interface {
	// Upsert inserts or updates entries.
	Upsert(ctx context.Context, entries []Entry) error
	// Search finds the top-k most similar entries.
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	// Close releases resources.
	Close() error
}
