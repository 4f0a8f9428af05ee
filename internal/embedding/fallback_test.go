package embedding

import (
	"math"
	"testing"
)

func TestFallbackEmbed_Deterministic(t *testing.T) {
	var e FallbackEmbedder

	a := e.Embed("I feel sad and tired")
	b := e.Embed("I feel sad and tired")

	if len(a.Values) != len(b.Values) {
		t.Fatalf("length mismatch: %d vs %d", len(a.Values), len(b.Values))
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			t.Fatalf("values differ at dim %d: %v vs %v", i, a.Values[i], b.Values[i])
		}
	}
}

func TestFallbackEmbed_NormalizedKeyVariants(t *testing.T) {
	// Noise is seeded from the normalized text, so case and surrounding
	// whitespace do not change the noise dimensions.
	var e FallbackEmbedder

	a := e.Embed("Feeling Sad")
	b := e.Embed("  feeling sad  ")

	start := len(fallbackVocabulary)
	for i := start; i < len(a.Values); i++ {
		if a.Values[i] != b.Values[i] {
			t.Fatalf("noise dims differ at %d for normalized-equal texts", i)
		}
	}
}

func TestFallbackEmbed_Dimensions(t *testing.T) {
	var e FallbackEmbedder
	v := e.Embed("anything")
	if len(v.Values) != FallbackDimensions {
		t.Fatalf("expected %d dims, got %d", FallbackDimensions, len(v.Values))
	}
	if v.Space != SpaceFallback {
		t.Fatalf("expected space %q, got %q", SpaceFallback, v.Space)
	}
}

func TestFallbackEmbed_UnitLength(t *testing.T) {
	var e FallbackEmbedder
	v := e.Embed("depressed and hopeless about the future")

	var sum float64
	for _, x := range v.Values {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-5 {
		t.Fatalf("expected unit length, got norm %v", math.Sqrt(sum))
	}
}

func TestFallbackEmbed_KeywordPresence(t *testing.T) {
	var e FallbackEmbedder

	withSad := e.Embed("so very sad today")
	without := e.Embed("nothing remarkable today")

	// "sad" is dimension 0 of the vocabulary.
	if withSad.Values[0] == 0 {
		t.Fatal("expected nonzero weight on 'sad' dimension")
	}
	if without.Values[0] != 0 {
		t.Fatal("expected zero weight on 'sad' dimension")
	}
}

func TestFallbackEmbed_DistinctTextsDiffer(t *testing.T) {
	var e FallbackEmbedder

	a := e.Embed("alpha")
	b := e.Embed("beta")

	same := true
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected distinct texts to map to distinct vectors")
	}
}
