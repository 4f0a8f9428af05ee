// Package similarity ranks candidate texts against a query vector using
// cosine similarity.
package similarity

import (
	"fmt"
	"math"

	"github.com/oakline/assessmap/internal/embedding"
)

// Candidate pairs a label with its embedding.
type Candidate struct {
	Label  string
	Vector embedding.Vector
}

// Match is the winning candidate and its score.
type Match struct {
	Label string
	Index int
	Score float64
}

// Cosine computes cosine similarity between two vectors. If either norm is
// zero the similarity is zero, never an error. Vectors from different
// representation spaces cannot be compared.
func Cosine(a, b embedding.Vector) (float64, error) {
	if a.Space != b.Space {
		return 0, fmt.Errorf("cosine: mixed spaces %q and %q", a.Space, b.Space)
	}
	if len(a.Values) != len(b.Values) {
		return 0, fmt.Errorf("cosine: dimension mismatch %d vs %d", len(a.Values), len(b.Values))
	}

	var dot, normA, normB float64
	for i := range a.Values {
		dot += float64(a.Values[i]) * float64(b.Values[i])
		normA += float64(a.Values[i]) * float64(a.Values[i])
		normB += float64(b.Values[i]) * float64(b.Values[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// BestMatch returns the highest-scoring candidate. Candidates are visited
// in declared order and ties go to the first encountered, so declaration
// order is an observable, reproducible property of ranking. Returns
// ok=false for an empty candidate set.
func BestMatch(query embedding.Vector, candidates []Candidate) (Match, bool, error) {
	best := Match{Index: -1, Score: -1}
	for i, cand := range candidates {
		score, err := Cosine(query, cand.Vector)
		if err != nil {
			return Match{Index: -1}, false, fmt.Errorf("candidate %d (%q): %w", i, cand.Label, err)
		}
		// Strictly greater: earlier candidates win ties.
		if score > best.Score {
			best = Match{Label: cand.Label, Index: i, Score: score}
		}
	}
	if best.Index < 0 {
		return best, false, nil
	}
	return best, true, nil
}
