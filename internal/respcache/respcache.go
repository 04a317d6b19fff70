// Package respcache serves rendered responses stale-while-revalidate: a cached
// body is returned immediately and recomputed in the background.
package respcache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"garmin-zones/internal/observability"
)

// Defaults for New
const (
	DefaultWorkers   = 2
	DefaultQueueSize = 16
)

// ComputeFunc renders the response body for a key
type ComputeFunc func(ctx context.Context) ([]byte, error)

type entry struct {
	body    []byte
	updated time.Time
}

// Cache holds the last rendered body per key and a bounded queue of pending
// refreshes. It is safe for concurrent use.
type Cache struct {
	logger  *slog.Logger
	workers int
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]entry
	pending map[string]ComputeFunc
	queue   chan string
}

// New creates a cache refreshed by the given number of workers.
// Non-positive arguments fall back to the defaults.
func New(logger *slog.Logger, workers, queueSize int) *Cache {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Cache{
		logger:  logger,
		workers: workers,
		now:     time.Now,
		entries: make(map[string]entry),
		pending: make(map[string]ComputeFunc),
		queue:   make(chan string, queueSize),
	}
}

// Get returns the cached body for key and schedules a refresh. On a miss the
// body is computed synchronously and stored; errors are not cached.
func (c *Cache) Get(ctx context.Context, key string, compute ComputeFunc) ([]byte, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if ok {
		c.enqueue(ctx, key, compute)
		return e.body, nil
	}

	body, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	c.store(key, body)
	return body, nil
}

// Updated returns when the body for key was last computed
func (c *Cache) Updated(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.updated, ok
}

// Run processes refresh jobs until ctx is done
func (c *Cache) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case key := <-c.queue:
					c.refresh(gctx, key)
				}
			}
		})
	}
	return g.Wait()
}

// enqueue schedules a refresh of key unless one is already pending.
// When the queue is full the refresh is dropped.
func (c *Cache) enqueue(ctx context.Context, key string, compute ComputeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[key]; ok {
		return
	}
	select {
	case c.queue <- key:
		c.pending[key] = compute
	default:
		observability.RecordResponseRefresh("dropped")
		c.logger.LogAttrs(ctx, slog.LevelWarn, "refresh queue full, dropping refresh", slog.String("key", key))
	}
}

func (c *Cache) refresh(ctx context.Context, key string) {
	c.mu.Lock()
	compute := c.pending[key]
	c.mu.Unlock()

	start := c.now()
	body, err := compute(ctx)

	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()

	if err != nil {
		observability.RecordResponseRefresh("error")
		c.logger.LogAttrs(ctx, slog.LevelError, "refreshing response",
			slog.String("key", key), slog.Any("error", err))
		return
	}

	c.store(key, body)
	observability.RecordResponseRefresh("ok")
	c.logger.LogAttrs(ctx, slog.LevelDebug, "refreshed response",
		slog.String("key", key), slog.Duration("took", c.now().Sub(start)))
}

func (c *Cache) store(key string, body []byte) {
	c.mu.Lock()
	c.entries[key] = entry{body: body, updated: c.now()}
	c.mu.Unlock()
}
