package mapper

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"
	"testing"
	"time"

	"github.com/oakline/assessmap/internal/corpus"
	"github.com/oakline/assessmap/internal/embedding"
)

const cannedDims = 8

// cannedBackend serves fixed vectors keyed by normalized text. Canned
// entries live in the first three dimensions; texts without an entry get a
// deterministic per-text vector in the remaining dimensions, orthogonal to
// every canned one. Identical texts therefore score an exact 1.0 against
// themselves and strictly less against everything else.
type cannedBackend struct {
	vectors map[string][]float32
}

func (b *cannedBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	key := embedding.Normalize(text)
	if v, ok := b.vectors[key]; ok {
		padded := make([]float32, cannedDims)
		copy(padded, v)
		return padded, nil
	}

	h := fnv.New64a()
	h.Write([]byte(key))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	v := make([]float32, cannedDims)
	for i := 3; i < cannedDims; i++ {
		v[i] = rng.Float32() + 0.1
	}
	return v, nil
}

func (b *cannedBackend) Space() string { return "canned" }

func newTestService(t *testing.T, backend embedding.Backend) *Service {
	t.Helper()
	provider := embedding.NewProvider(backend, embedding.ProviderConfig{
		RetryCount: 1,
		RetryDelay: time.Millisecond,
	}, nil, nil)
	cache, err := embedding.NewCache(provider, 0, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return New(corpus.New(), cache, DefaultOptions(), nil, nil)
}

// semanticBackend makes "feeling sad" land near the Sadness question and
// nothing else.
func semanticBackend() *cannedBackend {
	return &cannedBackend{vectors: map[string][]float32{
		"feeling sad": {1, 0, 0, 0},
		"sadness":     {3, 1, 0, 0},
	}}
}

func TestMapQuestion_ExactText(t *testing.T) {
	svc := newTestService(t, &cannedBackend{vectors: map[string][]float32{}})

	// The exact corpus text shares a cache key with the query, so it
	// scores 1.0 while every other question scores below it.
	out, err := svc.MapQuestion(context.Background(), "c1", "Pessimism")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.MappingType != MappingQuestion {
		t.Fatalf("expected question mapping, got %s", out.MappingType)
	}
	if out.Category != corpus.CategoryBDI || out.Question != "Pessimism" {
		t.Fatalf("expected BDI/Pessimism, got %s/%s", out.Category, out.Question)
	}
	if out.Confidence < 0.999 {
		t.Fatalf("expected confidence ~1.0 for exact text, got %v", out.Confidence)
	}

	cat, q, open := svc.OpenQuestion("c1")
	if !open || cat != corpus.CategoryBDI || q != "Pessimism" {
		t.Fatalf("expected open question BDI/Pessimism, got %s/%s open=%v", cat, q, open)
	}
}

func TestMapQuestion_SemanticMatch(t *testing.T) {
	svc := newTestService(t, semanticBackend())

	out, err := svc.MapQuestion(context.Background(), "c1", "feeling sad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Category != corpus.CategoryBDI || out.Question != "Sadness" {
		t.Fatalf("expected BDI/Sadness, got %s/%s", out.Category, out.Question)
	}
	if out.Confidence <= 0.6 {
		t.Fatalf("expected high confidence, got %v", out.Confidence)
	}
}

func TestMapOption_ScoreIsOrdinal(t *testing.T) {
	svc := newTestService(t, &cannedBackend{vectors: map[string][]float32{}})

	out, err := svc.MapOption(context.Background(), corpus.CategoryBDI, "Sadness",
		"I am sad all the time and I can't snap out of it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.MappingType != MappingOption {
		t.Fatalf("expected option mapping, got %s", out.MappingType)
	}
	if out.Score != 2 {
		t.Fatalf("expected severity score 2, got %d", out.Score)
	}
	if out.Option != "I am sad all the time and I can't snap out of it" {
		t.Fatalf("unexpected option %q", out.Option)
	}
	if out.Confidence < 0.999 {
		t.Fatalf("expected confidence ~1.0, got %v", out.Confidence)
	}
}

func TestMapOption_SharedOptions(t *testing.T) {
	svc := newTestService(t, &cannedBackend{vectors: map[string][]float32{}})

	// Every PHQ-9 question shares one frequency scale.
	out, err := svc.MapOption(context.Background(), corpus.CategoryPHQ9,
		"Feeling tired or having little energy?", "Nearly every day")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Score != 3 {
		t.Fatalf("expected score 3, got %d", out.Score)
	}
	if out.Question != "Feeling tired or having little energy?" {
		t.Fatalf("shared options must keep the requested question, got %q", out.Question)
	}
}

func TestMapOption_UnknownQuestionUsesDefaults(t *testing.T) {
	svc := newTestService(t, &cannedBackend{vectors: map[string][]float32{}})

	out, err := svc.MapOption(context.Background(), corpus.CategoryBDI,
		"UnknownQuestionText", "Several days")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No corpus question overlaps, so the generic frequency scale applies
	// and the requested question text is kept.
	if out.Question != "UnknownQuestionText" {
		t.Fatalf("expected requested question kept, got %q", out.Question)
	}
	if out.Score != 1 || out.Option != "Several days" {
		t.Fatalf("expected Several days/1, got %q/%d", out.Option, out.Score)
	}
}

func TestMapOption_SubstitutesClosestQuestion(t *testing.T) {
	svc := newTestService(t, &cannedBackend{vectors: map[string][]float32{}})

	// "Changes in sleeping" overlaps "Changes in sleeping pattern" well
	// above the threshold, so that entry's options are used and the
	// canonical corpus question is reported.
	out, err := svc.MapOption(context.Background(), corpus.CategoryBDI,
		"Changes in sleeping", "I don't sleep as well as I used to")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Question != "Changes in sleeping pattern" {
		t.Fatalf("expected canonical question substitution, got %q", out.Question)
	}
	if out.Score != 1 {
		t.Fatalf("expected score 1, got %d", out.Score)
	}
}

func TestMapAuto_TwoPhaseProtocol(t *testing.T) {
	svc := newTestService(t, semanticBackend())
	ctx := context.Background()

	// Phase one: idle conversation, message matches as a question.
	first, err := svc.MapAuto(ctx, "conv", "feeling sad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.MappingType != MappingQuestion || first.Question != "Sadness" {
		t.Fatalf("expected question Sadness, got %s %q", first.MappingType, first.Question)
	}
	if _, _, open := svc.OpenQuestion("conv"); !open {
		t.Fatal("expected an open question after phase one")
	}

	// Phase two: the next message answers the open question.
	second, err := svc.MapAuto(ctx, "conv", "I am sad all the time and I can't snap out of it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.MappingType != MappingOption {
		t.Fatalf("expected option mapping, got %s", second.MappingType)
	}
	if second.Question != "Sadness" || second.Score != 2 {
		t.Fatalf("expected Sadness severity 2, got %q/%d", second.Question, second.Score)
	}

	// A confident answer resolves the open question.
	if _, _, open := svc.OpenQuestion("conv"); open {
		t.Fatal("expected conversation idle after a resolved answer")
	}
}

func TestMapAuto_AbandonsOnLowConfidence(t *testing.T) {
	svc := newTestService(t, semanticBackend())
	ctx := context.Background()

	if _, err := svc.MapAuto(ctx, "conv", "feeling sad"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	// "feeling sad" scores near zero against every Sadness option, so the
	// open question is abandoned and the message re-matched as a question.
	out, err := svc.MapAuto(ctx, "conv", "feeling sad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.MappingType != MappingQuestion {
		t.Fatalf("expected re-match as question, got %s", out.MappingType)
	}
	if out.Question != "Sadness" {
		t.Fatalf("expected Sadness, got %q", out.Question)
	}

	// The re-match opens a question again.
	if _, q, open := svc.OpenQuestion("conv"); !open || q != "Sadness" {
		t.Fatalf("expected Sadness open after re-match, got %q open=%v", q, open)
	}
}

func TestMapAuto_ConversationsAreIsolated(t *testing.T) {
	svc := newTestService(t, semanticBackend())
	ctx := context.Background()

	if _, err := svc.MapAuto(ctx, "a", "feeling sad"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, _, open := svc.OpenQuestion("b"); open {
		t.Fatal("conversation b must start idle")
	}

	// b's first message matches as a question even while a has one open.
	out, err := svc.MapAuto(ctx, "b", "feeling sad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.MappingType != MappingQuestion {
		t.Fatalf("expected question for fresh conversation, got %s", out.MappingType)
	}
}

func TestMapOption_DoesNotTouchState(t *testing.T) {
	svc := newTestService(t, &cannedBackend{vectors: map[string][]float32{}})

	_, err := svc.MapOption(context.Background(), corpus.CategoryPHQ9,
		"Poor appetite or overeating?", "Not at all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, open := svc.OpenQuestion("default"); open {
		t.Fatal("explicit option mapping must not open a question")
	}
}

func TestMapAuto_MixedSpacesReground(t *testing.T) {
	// The backend answers only for the query text; corpus texts fail and
	// fall back. The mapper must then reground the whole comparison in
	// the fallback space instead of comparing across spaces.
	exact := "Feeling down, depressed, or hopeless?"
	backend := &onlyBackend{allow: embedding.Normalize(exact), values: []float32{1, 0, 0, 0}}
	svc := newTestService(t, backend)

	out, err := svc.MapAuto(context.Background(), "conv", exact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.MappingType != MappingQuestion {
		t.Fatalf("expected question mapping, got %s", out.MappingType)
	}
	// In fallback space the exact text still wins against the rest of
	// the corpus by keyword overlap.
	if out.Question != exact {
		t.Fatalf("expected %q, got %q", exact, out.Question)
	}
}

// onlyBackend embeds a single allowed text and errors for everything else.
type onlyBackend struct {
	allow  string
	values []float32
}

func (b *onlyBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	if embedding.Normalize(text) == b.allow {
		return b.values, nil
	}
	return nil, context.DeadlineExceeded
}

func (b *onlyBackend) Space() string { return "canned" }

// emptyBackend returns zero-length vectors without erroring.
type emptyBackend struct{}

func (emptyBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{}, nil
}

func (emptyBackend) Space() string { return "canned" }

func TestMapQuestion_NoVector(t *testing.T) {
	svc := newTestService(t, emptyBackend{})

	_, err := svc.MapQuestion(context.Background(), "conv", "anything")
	if !errors.Is(err, ErrNoVector) {
		t.Fatalf("expected ErrNoVector, got %v", err)
	}
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "changes in sleeping", "changes in sleeping", 1.0},
		{"subset", "changes in sleeping", "changes in sleeping pattern", 0.75},
		{"disjoint", "alpha beta", "gamma delta", 0},
		{"empty", "", "anything", 0},
		{"case_insensitive", "Loss of Energy", "loss of energy", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenOverlap(tt.a, tt.b); got != tt.want {
				t.Errorf("tokenOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
