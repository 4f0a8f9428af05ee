package embedding

import (
	"context"
	"log/slog"
	"time"

	"github.com/oakline/assessmap/internal/observability"
)

// ProviderConfig controls retry behavior against the embedding backend.
type ProviderConfig struct {
	// RetryCount is the total number of backend attempts per text.
	RetryCount int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
}

// DefaultProviderConfig mirrors the backend contract: three attempts with a
// one-second pause.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{RetryCount: 3, RetryDelay: time.Second}
}

// Provider turns text into an embedding vector. It never fails outwardly:
// after exhausting backend retries it degrades to the deterministic local
// fallback so the service keeps answering without a backend.
type Provider struct {
	backend  Backend
	fallback FallbackEmbedder
	cfg      ProviderConfig
	log      *slog.Logger
	metrics  *observability.ServiceMetrics
}

// NewProvider creates a Provider over the given backend. A nil backend
// selects keyword-only mode: every embedding goes through the fallback.
func NewProvider(backend Backend, cfg ProviderConfig, log *slog.Logger, metrics *observability.ServiceMetrics) *Provider {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = DefaultProviderConfig().RetryCount
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultProviderConfig().RetryDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &Provider{backend: backend, cfg: cfg, log: log, metrics: metrics}
}

// Space returns the space vectors are produced in when the backend is
// healthy. With no backend configured it is the fallback space.
func (p *Provider) Space() string {
	if p.backend == nil {
		return SpaceFallback
	}
	return p.backend.Space()
}

// Embed produces a vector for text. Backend failures are retried with a
// fixed delay; once retries are exhausted the deterministic fallback vector
// is returned instead. The returned vector's Space records which path ran.
func (p *Provider) Embed(ctx context.Context, text string) Vector {
	if p.backend == nil {
		p.metrics.IncFallbackEmbedding()
		return p.fallback.Embed(text)
	}

	ctx, span := observability.StartBackendSpan(ctx, p.backend.Space())
	defer span.End()

	for attempt := 1; attempt <= p.cfg.RetryCount; attempt++ {
		values, err := p.backend.Embed(ctx, text)
		if err == nil {
			return Vector{Space: p.backend.Space(), Values: values}
		}
		observability.RecordError(span, err)

		p.metrics.IncBackendFailure()
		p.log.Warn("embedding backend attempt failed",
			"attempt", attempt, "retries", p.cfg.RetryCount, "error", err)

		if attempt < p.cfg.RetryCount {
			select {
			case <-ctx.Done():
				p.log.Warn("embedding retries aborted by context", "error", ctx.Err())
				p.metrics.IncFallbackEmbedding()
				return p.fallback.Embed(text)
			case <-time.After(p.cfg.RetryDelay):
			}
		}
	}

	p.log.Warn("embedding backend unavailable, using fallback vector")
	p.metrics.IncFallbackEmbedding()
	return p.fallback.Embed(text)
}

// Fallback computes the deterministic fallback vector for text without
// touching the backend. Used to force both sides of a comparison through
// the same representation space.
func (p *Provider) Fallback(text string) Vector {
	return p.fallback.Embed(text)
}
