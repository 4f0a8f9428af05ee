package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/oakline/assessmap/internal/corpus"
)

func fastPrefetchConfig() PrefetcherConfig {
	return PrefetcherConfig{
		BatchSize:   5,
		QueueSize:   4096,
		PollTimeout: 10 * time.Millisecond,
		IdleSleep:   time.Millisecond,
		ErrorSleep:  time.Millisecond,
		BatchDelay:  time.Millisecond,
	}
}

func waitForCacheLen(t *testing.T, c *Cache, want int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if c.Len() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("cache never reached %d entries, has %d", want, c.Len())
}

func TestPrefetcher_DrainsQueue(t *testing.T) {
	backend := newCountingBackend()
	c := newTestCache(t, backend, 100)

	p := NewPrefetcher(c, fastPrefetchConfig(), nil, nil)
	p.Start()

	texts := []string{"one", "two", "three", "four", "five", "six", "seven"}
	for _, text := range texts {
		if !p.Enqueue(text) {
			t.Fatalf("enqueue %q failed", text)
		}
	}

	waitForCacheLen(t, c, len(texts))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	for _, text := range texts {
		if !c.Contains(text) {
			t.Errorf("expected %q to be cached", text)
		}
	}
}

func TestPrefetcher_WarmCorpus(t *testing.T) {
	backend := newCountingBackend()
	c := newTestCache(t, backend, 2000)

	reg := corpus.New()
	p := NewPrefetcher(c, fastPrefetchConfig(), nil, nil)

	queued := p.WarmCorpus(reg)
	if queued != len(reg.Texts()) {
		t.Fatalf("expected %d queued, got %d", len(reg.Texts()), queued)
	}

	p.Start()
	waitForCacheLen(t, c, queued)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestPrefetcher_SkipsCachedItems(t *testing.T) {
	backend := newCountingBackend()
	c := newTestCache(t, backend, 100)

	c.GetOrCompute(context.Background(), "already here")
	if backend.total.Load() != 1 {
		t.Fatalf("setup: expected 1 call, got %d", backend.total.Load())
	}

	p := NewPrefetcher(c, fastPrefetchConfig(), nil, nil)
	p.Start()
	p.Enqueue("already here")
	p.Enqueue("fresh text")

	waitForCacheLen(t, c, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if backend.total.Load() != 2 {
		t.Fatalf("expected 2 backend calls, got %d: cached item must be skipped", backend.total.Load())
	}
}

func TestPrefetcher_EnqueueDropsWhenFull(t *testing.T) {
	backend := newCountingBackend()
	c := newTestCache(t, backend, 100)

	cfg := fastPrefetchConfig()
	cfg.QueueSize = 1
	p := NewPrefetcher(c, cfg, nil, nil)
	// Worker not started: the queue fills up.

	if !p.Enqueue("fits") {
		t.Fatal("first enqueue should succeed")
	}
	if p.Enqueue("overflow") {
		t.Fatal("second enqueue should drop")
	}
}

func TestPrefetcher_StopWithoutWork(t *testing.T) {
	backend := newCountingBackend()
	c := newTestCache(t, backend, 10)

	p := NewPrefetcher(c, fastPrefetchConfig(), nil, nil)
	p.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestPrefetcher_CollectWaitsPerItem(t *testing.T) {
	c := newTestCache(t, nil, 10)

	cfg := fastPrefetchConfig()
	cfg.PollTimeout = 100 * time.Millisecond
	cfg.BatchSize = 3
	p := NewPrefetcher(c, cfg, nil, nil)
	// Worker not started: collect is driven directly.

	go func() {
		for _, text := range []string{"one", "two", "three"} {
			time.Sleep(40 * time.Millisecond)
			p.Enqueue(text)
		}
	}()

	batch, stopped := p.collect()
	if stopped {
		t.Fatal("collect reported stopped without a stop signal")
	}
	// The arrivals span longer than one PollTimeout in total, but each gap
	// is inside the per-item wait, so the batch must fill completely.
	if len(batch) != 3 {
		t.Fatalf("expected a full batch of 3, got %d", len(batch))
	}
}
