// Package mapper implements the conversational decision protocol: deciding,
// per incoming message, whether to match a question or an option, including
// confidence-gated abandonment of a previously open question.
package mapper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oakline/assessmap/internal/corpus"
	"github.com/oakline/assessmap/internal/embedding"
	"github.com/oakline/assessmap/internal/observability"
	"github.com/oakline/assessmap/internal/similarity"
)

// ErrNoVector signals that the embedding step could not produce a vector at
// all. Distinct from a low-confidence match, which is a normal result.
var ErrNoVector = errors.New("could not produce an embedding vector")

// Mapping type tags returned to callers.
const (
	MappingQuestion = "question"
	MappingOption   = "option"
)

// Outcome is a single mapping decision. MappingType selects which fields
// are meaningful: question results carry Category/Question/Confidence,
// option results additionally carry Option and its ordinal severity Score.
type Outcome struct {
	MappingType string
	Category    corpus.Category
	Question    string
	Option      string
	Score       int
	Confidence  float64
}

// Options tunes the decision protocol.
type Options struct {
	// AbandonThreshold is the option confidence below which an open
	// question is abandoned. 0.6 for the embedding-backed variant, 0.45
	// for keyword-only mode.
	AbandonThreshold float64
	// MinQuestionOverlap is the token-overlap fraction a corpus question
	// must exceed to substitute for an unknown question during option
	// resolution.
	MinQuestionOverlap float64
}

// DefaultOptions returns the embedding-variant protocol parameters.
func DefaultOptions() Options {
	return Options{AbandonThreshold: 0.6, MinQuestionOverlap: 0.3}
}

// Service is the conversation mapper. It owns per-conversation open-question
// state and consults the registry, cache and ranker on every message.
type Service struct {
	registry *corpus.Registry
	cache    *embedding.Cache
	opts     Options
	log      *slog.Logger
	metrics  *observability.ServiceMetrics
	states   *stateTable
}

// New creates a Service. The registry and cache are required; log may be
// nil (the default logger is used) and metrics may be nil (nothing is
// recorded).
func New(registry *corpus.Registry, cache *embedding.Cache, opts Options, log *slog.Logger, metrics *observability.ServiceMetrics) *Service {
	if opts.AbandonThreshold <= 0 {
		opts.AbandonThreshold = DefaultOptions().AbandonThreshold
	}
	if opts.MinQuestionOverlap <= 0 {
		opts.MinQuestionOverlap = DefaultOptions().MinQuestionOverlap
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		registry: registry,
		cache:    cache,
		opts:     opts,
		log:      log,
		metrics:  metrics,
		states:   newStateTable(),
	}
}

// MapQuestion matches message against every question in the registry and
// records the winner as the conversation's open question.
func (s *Service) MapQuestion(ctx context.Context, conversationID, message string) (Outcome, error) {
	ctx, span := observability.StartMatchSpan(ctx, MappingQuestion, conversationID)
	defer span.End()

	e := s.states.get(conversationID)
	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := s.matchQuestion(ctx, message)
	if err != nil {
		return Outcome{}, err
	}
	e.open = &openState{category: out.Category, question: out.Question}
	s.metrics.IncQuestionMatch()
	return out, nil
}

// MapOption matches message against the option set for the given category
// and question. Explicit option requests never touch conversation state.
func (s *Service) MapOption(ctx context.Context, category corpus.Category, question, message string) (Outcome, error) {
	ctx, span := observability.StartMatchSpan(ctx, MappingOption, "")
	defer span.End()

	out, err := s.matchOption(ctx, category, question, message)
	if err != nil {
		return Outcome{}, err
	}
	s.metrics.IncOptionMatch()
	return out, nil
}

// MapAuto runs the two-phase protocol: with no open question the message is
// matched as a question; with an open question it is matched as an option,
// unless the option confidence falls below the abandonment threshold or the
// resolved question drifts, in which case the open question is abandoned
// and the message re-matched as a question.
func (s *Service) MapAuto(ctx context.Context, conversationID, message string) (Outcome, error) {
	ctx, span := observability.StartMatchSpan(ctx, "auto", conversationID)
	defer span.End()

	e := s.states.get(conversationID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open == nil {
		return s.questionAndOpen(ctx, e, message)
	}
	prev := *e.open

	opt, err := s.matchOption(ctx, prev.category, prev.question, message)
	if err != nil {
		return Outcome{}, err
	}

	if opt.Confidence < s.opts.AbandonThreshold {
		s.log.Debug("abandoning open question: option confidence below threshold",
			"question", prev.question, "confidence", opt.Confidence, "threshold", s.opts.AbandonThreshold)
		s.metrics.IncAbandonment()
		e.open = nil
		return s.questionAndOpen(ctx, e, message)
	}

	// Option resolution may substitute a lexically closer question; if it
	// drifted away from the open one, the answer does not belong to it.
	if opt.Question != prev.question {
		s.log.Debug("abandoning open question: resolved question mismatch",
			"open", prev.question, "resolved", opt.Question)
		s.metrics.IncAbandonment()
		e.open = nil
		return s.questionAndOpen(ctx, e, message)
	}

	if opt.Category == prev.category {
		// Confident, consistent answer: the open question is resolved.
		e.open = nil
	}
	s.metrics.IncOptionMatch()
	return opt, nil
}

// OpenQuestion reports the category and question currently open for a
// conversation, if any.
func (s *Service) OpenQuestion(conversationID string) (corpus.Category, string, bool) {
	return s.states.snapshot(conversationID)
}

// questionAndOpen matches a question and records it as the new open state.
// Callers must hold the entry lock.
func (s *Service) questionAndOpen(ctx context.Context, e *stateEntry, message string) (Outcome, error) {
	out, err := s.matchQuestion(ctx, message)
	if err != nil {
		return Outcome{}, err
	}
	e.open = &openState{category: out.Category, question: out.Question}
	s.metrics.IncQuestionMatch()
	return out, nil
}

type questionRef struct {
	category corpus.Category
	question string
}

// matchQuestion scores message against every (category, question) pair in
// registry declaration order.
func (s *Service) matchQuestion(ctx context.Context, message string) (Outcome, error) {
	var refs []questionRef
	var texts []string
	for _, cat := range s.registry.Categories() {
		for _, q := range s.registry.Questions(cat) {
			refs = append(refs, questionRef{category: cat, question: q})
			texts = append(texts, q)
		}
	}

	query, vectors, err := s.embedSet(ctx, message, texts)
	if err != nil {
		return Outcome{}, err
	}

	candidates := make([]similarity.Candidate, len(texts))
	for i, t := range texts {
		candidates[i] = similarity.Candidate{Label: t, Vector: vectors[i]}
	}
	best, ok, err := similarity.BestMatch(query, candidates)
	if err != nil {
		return Outcome{}, fmt.Errorf("rank questions: %w", err)
	}
	if !ok {
		return Outcome{}, errors.New("corpus has no questions")
	}

	return Outcome{
		MappingType: MappingQuestion,
		Category:    refs[best.Index].category,
		Question:    best.Label,
		Confidence:  best.Score,
	}, nil
}

// matchOption resolves the option set for (category, question) and scores
// message against it. The returned Question may differ from the input when
// a lexically closer corpus question was substituted.
func (s *Service) matchOption(ctx context.Context, category corpus.Category, question, message string) (Outcome, error) {
	options, canonical := s.resolveOptions(category, question)

	query, vectors, err := s.embedSet(ctx, message, options)
	if err != nil {
		return Outcome{}, err
	}

	candidates := make([]similarity.Candidate, len(options))
	for i, opt := range options {
		candidates[i] = similarity.Candidate{Label: opt, Vector: vectors[i]}
	}
	best, ok, err := similarity.BestMatch(query, candidates)
	if err != nil {
		return Outcome{}, fmt.Errorf("rank options: %w", err)
	}
	if !ok {
		return Outcome{}, errors.New("empty option set")
	}

	return Outcome{
		MappingType: MappingOption,
		Category:    category,
		Question:    canonical,
		Option:      best.Label,
		Score:       best.Index,
		Confidence:  best.Score,
	}, nil
}

// resolveOptions finds the option list for a question. Shared-option
// categories use their single list; per-question categories look up the
// exact table entry, then the lexically closest known question above the
// overlap threshold, then the generic default list.
func (s *Service) resolveOptions(category corpus.Category, question string) (options []string, canonical string) {
	if opts, ok := s.registry.SharedOptions(category); ok {
		return opts, question
	}

	if opts, ok := s.registry.QuestionOptions(category, question); ok {
		return opts, question
	}

	table := s.registry.OptionTable(category)
	if len(table) > 0 {
		bestScore := s.opts.MinQuestionOverlap
		bestIdx := -1
		for i, set := range table {
			if overlap := tokenOverlap(set.Question, question); overlap > bestScore {
				bestScore = overlap
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			s.log.Debug("substituted closest corpus question",
				"requested", question, "matched", table[bestIdx].Question, "overlap", bestScore)
			return table[bestIdx].Options, table[bestIdx].Question
		}
	}

	return s.registry.DefaultOptions(), question
}

// embedSet embeds the query and all candidate texts, guaranteeing a single
// representation space: if any candidate lands in a different space than
// the query (one side used the backend, the other fell back), the whole
// comparison is redone in the deterministic fallback space.
func (s *Service) embedSet(ctx context.Context, query string, texts []string) (embedding.Vector, []embedding.Vector, error) {
	queryVec := s.cache.GetOrCompute(ctx, query)
	if queryVec.IsZero() {
		return embedding.Vector{}, nil, fmt.Errorf("embed %q: %w", query, ErrNoVector)
	}

	vectors := make([]embedding.Vector, len(texts))
	mixed := false
	for i, t := range texts {
		vectors[i] = s.cache.GetOrCompute(ctx, t)
		if vectors[i].Space != queryVec.Space {
			mixed = true
		}
	}

	if mixed {
		s.log.Debug("mixed embedding spaces, recomparing in fallback space", "query_space", queryVec.Space)
		queryVec = s.cache.FallbackVector(query)
		for i, t := range texts {
			vectors[i] = s.cache.FallbackVector(t)
		}
	}
	return queryVec, vectors, nil
}
