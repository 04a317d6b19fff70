package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextHandlerAddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	ctx := WithAttrs(context.Background(), slog.String("request_id", "abc"))
	ctx = WithAttrs(ctx, slog.String("date", "2024-03-01"))
	logger.InfoContext(ctx, "fetched day")

	out := buf.String()
	for _, want := range []string{"msg=\"fetched day\"", "request_id=abc", "date=2024-03-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestWithAttrsDoesNotLeakBetweenContexts(t *testing.T) {
	parent := WithAttrs(context.Background(), slog.Int("a", 1))
	left := WithAttrs(parent, slog.Int("b", 2))
	right := WithAttrs(parent, slog.Int("c", 3))

	leftAttrs := left.Value(slogAttrs).([]slog.Attr)
	rightAttrs := right.Value(slogAttrs).([]slog.Attr)
	if len(leftAttrs) != 2 || len(rightAttrs) != 2 {
		t.Fatalf("got %d and %d attrs, want 2 and 2", len(leftAttrs), len(rightAttrs))
	}
	if leftAttrs[1].Key != "b" || rightAttrs[1].Key != "c" {
		t.Errorf("attrs overwritten: left %v right %v", leftAttrs, rightAttrs)
	}
}

func TestDebugFilteredAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)
	logger.Debug("noise")
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %q", buf.String())
	}
}
