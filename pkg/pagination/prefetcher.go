package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var (
	prefetchPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artsel_prefetch_pages_total",
		Help: "Pages requested by the prefetcher by outcome",
	}, []string{"outcome"})

	prefetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "artsel_prefetch_duration_seconds",
		Help:    "Wall time of one prefetch batch",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 15},
	})
)

// Config holds prefetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel page fetches.
	// The public collection API allows 60 req/min, keep this small.
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns a conservative prefetch configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 2,
		Timeout:        15 * time.Second,
	}
}

// Prefetcher fetches pages ahead of the user so a caching PageFetcher can serve
// them later. Results are discarded; only the side effect on the cache matters.
type Prefetcher[T any] struct {
	fetcher PageFetcher[T]
	config  Config
}

// NewPrefetcher creates a new prefetcher
func NewPrefetcher[T any](fetcher PageFetcher[T], config Config) *Prefetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Prefetcher[T]{
		fetcher: fetcher,
		config:  config,
	}
}

// Following lists up to n page requests after req that exist in a collection of
// total records.
func Following(req Request, total, n int) []Request {
	last := TotalPages(total, req.Size)
	var out []Request
	for page := req.Number + 1; page <= last && len(out) < n; page++ {
		out = append(out, Request{Seq: req.Seq, Number: page, Size: req.Size})
	}
	return out
}

// Prefetch fetches reqs with a bounded worker pool and returns the number of
// pages fetched successfully. A failed page does not stop the others; the first
// failure is returned alongside the partial count.
func (p *Prefetcher[T]) Prefetch(ctx context.Context, reqs []Request) (int, error) {
	if len(reqs) == 0 {
		return 0, nil
	}
	start := time.Now()
	defer func() {
		prefetchDuration.Observe(time.Since(start).Seconds())
	}()

	queue := make(chan Request, len(reqs))
	for _, req := range reqs {
		queue <- req
	}
	close(queue)

	workers := min(p.config.MaxConcurrency, len(reqs))
	errs := make(chan error, len(reqs))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		warmed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			n := p.worker(ctx, queue, errs, workerID)
			mu.Lock()
			warmed += n
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	close(errs)

	var firstErr error
	failed := 0
	for err := range errs {
		failed++
		if firstErr == nil {
			firstErr = err
		}
	}

	log.Debug().
		Int("requested", len(reqs)).
		Int("warmed", warmed).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Prefetch complete")

	if firstErr != nil {
		return warmed, fmt.Errorf("prefetch (%d/%d pages): %w", warmed, len(reqs), firstErr)
	}
	return warmed, nil
}

// worker processes requests from the queue
func (p *Prefetcher[T]) worker(ctx context.Context, queue <-chan Request, errs chan<- error, workerID int) int {
	processed := 0

	for req := range queue {
		select {
		case <-ctx.Done():
			prefetchPagesTotal.WithLabelValues("cancelled").Inc()
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", processed).
				Msg("Prefetch worker stopping (context cancelled)")
			return processed
		default:
		}

		if _, err := Load(ctx, p.fetcher, req, p.config.Timeout); err != nil {
			prefetchPagesTotal.WithLabelValues("error").Inc()
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", req.Number).
				Msg("Prefetch failed")
			errs <- err
			continue
		}

		prefetchPagesTotal.WithLabelValues("ok").Inc()
		processed++
	}

	return processed
}
