// Package testhelpers holds shared test utilities
package testhelpers

import (
	"log/slog"
	"strings"
	"sync"
	"testing"

	"garmin-zones/internal/logging"
)

// Writer forwards log output to t.Log so it only shows for failing tests
type Writer struct {
	t    testing.TB
	mu   sync.Mutex
	done bool
}

// NewWriter creates a Writer that stops forwarding once the test finishes
func NewWriter(t testing.TB) *Writer {
	w := &Writer{t: t}
	t.Cleanup(func() {
		w.mu.Lock()
		w.done = true
		w.mu.Unlock()
	})
	return w
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// background goroutines may still log during shutdown
	if w.done {
		return len(p), nil
	}
	if line := strings.TrimSuffix(string(p), "\n"); line != "" {
		w.t.Log(line)
	}
	return len(p), nil
}

// NewLogger returns a debug-level logger writing to t.Log
func NewLogger(t testing.TB) *slog.Logger {
	return logging.NewLogger(NewWriter(t), slog.LevelDebug)
}
