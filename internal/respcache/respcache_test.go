package respcache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"garmin-zones/internal/testhelpers"
)

// counter returns a ComputeFunc rendering "v<n>" for its n-th call
func counter(calls *atomic.Int32) ComputeFunc {
	return func(context.Context) ([]byte, error) {
		n := calls.Add(1)
		return []byte{'v', byte('0' + n)}, nil
	}
}

func TestGetMissComputesAndStores(t *testing.T) {
	c := New(testhelpers.NewLogger(t), 1, 4)
	var calls atomic.Int32

	body, err := c.Get(context.Background(), "stats", counter(&calls))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(body) != "v1" {
		t.Errorf("Get() = %q, want v1", body)
	}
	if _, ok := c.Updated("stats"); !ok {
		t.Error("miss result was not stored")
	}
	if len(c.queue) != 0 {
		t.Errorf("miss enqueued %d refreshes, want 0", len(c.queue))
	}
}

func TestGetHitServesStaleAndDedupesRefresh(t *testing.T) {
	c := New(testhelpers.NewLogger(t), 1, 4)
	var calls atomic.Int32
	ctx := context.Background()

	if _, err := c.Get(ctx, "stats", counter(&calls)); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		body, err := c.Get(ctx, "stats", counter(&calls))
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(body) != "v1" {
			t.Errorf("hit %d = %q, want stale v1", i, body)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("compute called %d times on the request path, want 1", calls.Load())
	}
	if len(c.queue) != 1 {
		t.Errorf("queue length = %d, want 1", len(c.queue))
	}
}

func TestGetMissErrorNotCached(t *testing.T) {
	c := New(testhelpers.NewLogger(t), 1, 4)
	errBoom := errors.New("boom")

	_, err := c.Get(context.Background(), "stats", func(context.Context) ([]byte, error) {
		return nil, errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("Get() error = %v, want %v", err, errBoom)
	}
	if _, ok := c.Updated("stats"); ok {
		t.Error("failed computation was cached")
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	c := New(testhelpers.NewLogger(t), 1, 1)
	var calls atomic.Int32
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		if _, err := c.Get(ctx, key, counter(&calls)); err != nil {
			t.Fatalf("Get(%s) error = %v", key, err)
		}
	}
	// both hits; only the first fits in the queue
	for _, key := range []string{"a", "b"} {
		if _, err := c.Get(ctx, key, counter(&calls)); err != nil {
			t.Fatalf("Get(%s) error = %v", key, err)
		}
	}

	if len(c.queue) != 1 {
		t.Errorf("queue length = %d, want 1", len(c.queue))
	}
	c.mu.Lock()
	_, pendingB := c.pending["b"]
	c.mu.Unlock()
	if pendingB {
		t.Error("dropped refresh is still marked pending")
	}
}

func TestRunRefreshesEntries(t *testing.T) {
	c := New(testhelpers.NewLogger(t), 2, 4)
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	if _, err := c.Get(ctx, "stats", counter(&calls)); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := c.Get(ctx, "stats", counter(&calls)); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		body, err := c.Get(ctx, "stats", counter(&calls))
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(body) != "v1" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("entry was never refreshed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRefreshErrorKeepsStaleBody(t *testing.T) {
	c := New(testhelpers.NewLogger(t), 1, 4)
	ctx := context.Background()

	if _, err := c.Get(ctx, "stats", func(context.Context) ([]byte, error) { return []byte("old"), nil }); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	failing := func(context.Context) ([]byte, error) { return nil, errors.New("provider down") }
	if _, err := c.Get(ctx, "stats", failing); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	c.refresh(ctx, <-c.queue)

	body, err := c.Get(ctx, "stats", failing)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(body) != "old" {
		t.Errorf("Get() = %q, want stale body after failed refresh", body)
	}
}
