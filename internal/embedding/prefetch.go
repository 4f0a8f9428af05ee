package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oakline/assessmap/internal/corpus"
	"github.com/oakline/assessmap/internal/observability"
)

// PrefetcherConfig controls batching and pacing of the background worker.
type PrefetcherConfig struct {
	// BatchSize is the maximum number of items processed per batch.
	BatchSize int
	// QueueSize bounds the pending-item queue. Enqueue drops (and logs)
	// when full; dropped texts are simply computed lazily on first use.
	QueueSize int
	// PollTimeout is how long the worker waits for each additional item
	// before processing a partial batch.
	PollTimeout time.Duration
	// IdleSleep is the pause after an empty poll.
	IdleSleep time.Duration
	// ErrorSleep is the pause after a failed batch.
	ErrorSleep time.Duration
	// BatchDelay throttles backend load between processed batches.
	BatchDelay time.Duration
}

// DefaultPrefetcherConfig mirrors the reference worker's pacing.
func DefaultPrefetcherConfig() PrefetcherConfig {
	return PrefetcherConfig{
		BatchSize:   5,
		QueueSize:   4096,
		PollTimeout: time.Second,
		IdleSleep:   100 * time.Millisecond,
		ErrorSleep:  time.Second,
		BatchDelay:  500 * time.Millisecond,
	}
}

type workItem struct {
	key  string
	text string
}

// Prefetcher is the single background consumer that drains pending texts,
// batches them and populates the cache. It never terminates on error; batch
// failures are logged and the loop continues.
type Prefetcher struct {
	cache   *Cache
	cfg     PrefetcherConfig
	log     *slog.Logger
	metrics *observability.ServiceMetrics

	queue chan workItem
	stop  chan struct{}
	done  chan struct{}
}

// NewPrefetcher creates a worker over cache. Zero config fields take their
// defaults.
func NewPrefetcher(cache *Cache, cfg PrefetcherConfig, log *slog.Logger, metrics *observability.ServiceMetrics) *Prefetcher {
	def := DefaultPrefetcherConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = def.PollTimeout
	}
	if cfg.IdleSleep <= 0 {
		cfg.IdleSleep = def.IdleSleep
	}
	if cfg.ErrorSleep <= 0 {
		cfg.ErrorSleep = def.ErrorSleep
	}
	if log == nil {
		log = slog.Default()
	}
	return &Prefetcher{
		cache:   cache,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		queue:   make(chan workItem, cfg.QueueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the single worker goroutine.
func (p *Prefetcher) Start() {
	go p.run()
}

// Stop signals the worker and waits for it to finish, up to ctx.
func (p *Prefetcher) Stop(ctx context.Context) error {
	close(p.stop)
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("prefetch worker did not stop: %w", ctx.Err())
	}
}

// Enqueue queues text for background embedding. Returns false if the queue
// is full; the text will then be embedded lazily on first use instead.
func (p *Prefetcher) Enqueue(text string) bool {
	select {
	case p.queue <- workItem{key: Normalize(text), text: text}:
		return true
	default:
		p.metrics.IncPrefetchDropped()
		p.log.Debug("prefetch queue full, dropping item", "key", Normalize(text))
		return false
	}
}

// WarmCorpus enqueues every question and option text in the registry and
// returns the number of items queued.
func (p *Prefetcher) WarmCorpus(reg *corpus.Registry) int {
	texts := reg.Texts()
	queued := 0
	for _, text := range texts {
		if p.Enqueue(text) {
			queued++
		}
	}
	p.log.Info("corpus warm-up enqueued", "texts", len(texts), "queued", queued)
	return queued
}

func (p *Prefetcher) run() {
	defer close(p.done)
	p.log.Info("prefetch worker started", "batch_size", p.cfg.BatchSize)

	for {
		batch, stopped := p.collect()
		if stopped && len(batch) == 0 {
			p.log.Info("prefetch worker stopped")
			return
		}
		if len(batch) == 0 {
			time.Sleep(p.cfg.IdleSleep)
			continue
		}

		if err := p.processBatch(batch); err != nil {
			p.log.Error("prefetch batch failed", "size", len(batch), "error", err)
			time.Sleep(p.cfg.ErrorSleep)
			continue
		}
		if stopped {
			p.log.Info("prefetch worker stopped")
			return
		}
		if p.cfg.BatchDelay > 0 {
			time.Sleep(p.cfg.BatchDelay)
		}
	}
}

// collect accumulates up to BatchSize items, waiting at most PollTimeout
// for each. The worker never blocks indefinitely on the queue.
func (p *Prefetcher) collect() (batch []workItem, stopped bool) {
	timer := time.NewTimer(p.cfg.PollTimeout)
	defer timer.Stop()

	for len(batch) < p.cfg.BatchSize {
		select {
		case item := <-p.queue:
			batch = append(batch, item)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(p.cfg.PollTimeout)
		case <-timer.C:
			return batch, false
		case <-p.stop:
			return batch, true
		}
	}
	return batch, false
}

// processBatch embeds the not-yet-cached items of a batch sequentially; the
// backend has no true batch API. A panic in a single batch is contained so
// one bad item cannot take the worker down.
func (p *Prefetcher) processBatch(batch []workItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("prefetch batch panic: %v", r)
		}
	}()

	uncached := 0
	for _, item := range batch {
		if p.cache.Contains(item.text) {
			continue
		}
		uncached++
		p.cache.GetOrCompute(context.Background(), item.text)
	}

	p.metrics.IncPrefetchBatch()
	p.log.Debug("prefetch batch processed", "size", len(batch), "computed", uncached)
	return nil
}
