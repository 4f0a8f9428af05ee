package observability

// ServiceMetrics bundles the metrics the mapping service records. A nil
// *ServiceMetrics is valid and records nothing, which keeps tests and
// one-shot CLI paths free of metrics plumbing.
type ServiceMetrics struct {
	Requests       *Counter
	RequestErrors  *Counter
	RequestLatency *Histogram

	CacheFastHits    *Counter
	CacheDurableHits *Counter
	CacheMisses      *Counter
	CacheSize        *Gauge

	BackendFailures    *Counter
	FallbackEmbeddings *Counter

	QuestionMatches *Counter
	OptionMatches   *Counter
	Abandonments    *Counter

	PrefetchBatches *Counter
	PrefetchDropped *Counter
}

// NewServiceMetrics registers the standard service metrics on r.
func NewServiceMetrics(r *MetricsRegistry) *ServiceMetrics {
	return &ServiceMetrics{
		Requests:       r.NewCounter("assessmap_requests_total", "Total map-response requests handled"),
		RequestErrors:  r.NewCounter("assessmap_request_errors_total", "Requests that ended in an error response"),
		RequestLatency: r.NewHistogram("assessmap_request_duration_seconds", "Map-response request latency", nil),

		CacheFastHits:    r.NewCounter("assessmap_cache_fast_hits_total", "Embedding cache hits in the fast tier"),
		CacheDurableHits: r.NewCounter("assessmap_cache_durable_hits_total", "Embedding cache hits in the durable tier"),
		CacheMisses:      r.NewCounter("assessmap_cache_misses_total", "Embedding cache misses requiring computation"),
		CacheSize:        r.NewGauge("assessmap_cache_entries", "Entries in the durable embedding cache tier"),

		BackendFailures:    r.NewCounter("assessmap_backend_failures_total", "Failed embedding backend attempts"),
		FallbackEmbeddings: r.NewCounter("assessmap_fallback_embeddings_total", "Embeddings produced by the local fallback"),

		QuestionMatches: r.NewCounter("assessmap_question_matches_total", "Question-match results returned"),
		OptionMatches:   r.NewCounter("assessmap_option_matches_total", "Option-match results returned"),
		Abandonments:    r.NewCounter("assessmap_abandonments_total", "Open questions abandoned by the decision protocol"),

		PrefetchBatches: r.NewCounter("assessmap_prefetch_batches_total", "Batches processed by the prefetch worker"),
		PrefetchDropped: r.NewCounter("assessmap_prefetch_dropped_total", "Prefetch items dropped because the queue was full"),
	}
}

// IncRequest records one handled request.
func (m *ServiceMetrics) IncRequest() {
	if m != nil {
		m.Requests.Inc()
	}
}

// IncRequestError records a request that produced an error response.
func (m *ServiceMetrics) IncRequestError() {
	if m != nil {
		m.RequestErrors.Inc()
	}
}

// ObserveRequestLatency records the wall time of one request in seconds.
func (m *ServiceMetrics) ObserveRequestLatency(seconds float64) {
	if m != nil {
		m.RequestLatency.Observe(seconds)
	}
}

// IncCacheFastHit records a fast-tier cache hit.
func (m *ServiceMetrics) IncCacheFastHit() {
	if m != nil {
		m.CacheFastHits.Inc()
	}
}

// IncCacheDurableHit records a durable-tier cache hit.
func (m *ServiceMetrics) IncCacheDurableHit() {
	if m != nil {
		m.CacheDurableHits.Inc()
	}
}

// IncCacheMiss records a full cache miss.
func (m *ServiceMetrics) IncCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// SetCacheSize records the durable-tier entry count.
func (m *ServiceMetrics) SetCacheSize(n int) {
	if m != nil {
		m.CacheSize.Set(float64(n))
	}
}

// IncBackendFailure records one failed backend attempt.
func (m *ServiceMetrics) IncBackendFailure() {
	if m != nil {
		m.BackendFailures.Inc()
	}
}

// IncFallbackEmbedding records a vector produced by the fallback embedder.
func (m *ServiceMetrics) IncFallbackEmbedding() {
	if m != nil {
		m.FallbackEmbeddings.Inc()
	}
}

// IncQuestionMatch records a question-match result.
func (m *ServiceMetrics) IncQuestionMatch() {
	if m != nil {
		m.QuestionMatches.Inc()
	}
}

// IncOptionMatch records an option-match result.
func (m *ServiceMetrics) IncOptionMatch() {
	if m != nil {
		m.OptionMatches.Inc()
	}
}

// IncAbandonment records one abandoned open question.
func (m *ServiceMetrics) IncAbandonment() {
	if m != nil {
		m.Abandonments.Inc()
	}
}

// IncPrefetchBatch records one processed prefetch batch.
func (m *ServiceMetrics) IncPrefetchBatch() {
	if m != nil {
		m.PrefetchBatches.Inc()
	}
}

// IncPrefetchDropped records a dropped prefetch item.
func (m *ServiceMetrics) IncPrefetchDropped() {
	if m != nil {
		m.PrefetchDropped.Inc()
	}
}
