package embedding

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
)

// fallbackVocabulary is the fixed keyword set the fallback embedder scores
// by presence. Index order is the dimension order and must stay stable.
var fallbackVocabulary = []string{
	"sad", "happy", "depressed", "anxious", "sleep", "tired", "energy",
	"interest", "pleasure", "guilt", "concentration", "suicide", "death",
	"appetite", "eating", "failure", "worthless", "hopeless", "future",
	"past", "worry", "fear", "panic", "stress", "mood", "feeling", "emotion",
}

// fallbackNoiseDims is the number of trailing noise dimensions that keep
// texts with identical keyword sets from collapsing onto one vector.
const fallbackNoiseDims = 10

// FallbackDimensions is the dimensionality of fallback-space vectors.
var FallbackDimensions = len(fallbackVocabulary) + fallbackNoiseDims

// FallbackEmbedder computes a deterministic local embedding from keyword
// presence. It is the degradation path when the backend is unreachable, and
// the only path in keyword-only mode.
type FallbackEmbedder struct{}

// Space implements the space tag for fallback vectors.
func (FallbackEmbedder) Space() string { return SpaceFallback }

// Embed computes the fallback vector for text. The same text always yields
// the same vector: the noise dimensions are seeded from the normalized text.
func (FallbackEmbedder) Embed(text string) Vector {
	lower := strings.ToLower(text)
	values := make([]float32, FallbackDimensions)

	for i, word := range fallbackVocabulary {
		if strings.Contains(lower, word) {
			values[i] = 1.0
		}
	}

	h := fnv.New64a()
	h.Write([]byte(Normalize(text)))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	for i := 0; i < fallbackNoiseDims; i++ {
		values[len(fallbackVocabulary)+i] = rng.Float32() * 0.1
	}

	l2Normalize(values)
	return Vector{Space: SpaceFallback, Values: values}
}

// l2Normalize scales values to unit length. A zero vector is left unchanged;
// cosine similarity against it is defined as zero downstream.
func l2Normalize(values []float32) {
	var sum float64
	for _, v := range values {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range values {
		values[i] = float32(float64(values[i]) / norm)
	}
}
