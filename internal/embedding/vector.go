// Package embedding acquires, caches and prefetches text embeddings.
//
// Vectors are produced either by a remote embedding backend or by a
// deterministic local fallback. Every vector is tagged with the space it was
// produced in; cosine comparisons are only ever made within one space.
package embedding

import "strings"

// SpaceFallback is the space tag of vectors produced by the local fallback.
const SpaceFallback = "fallback"

// Vector is a fixed-length embedding tagged with its representation space.
type Vector struct {
	Space  string
	Values []float32
}

// IsZero reports whether the vector carries no values.
func (v Vector) IsZero() bool {
	return len(v.Values) == 0
}

// Normalize produces the cache key form of a text: trimmed and case-folded.
// The raw text, not the normalized form, is what gets sent to the backend.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
