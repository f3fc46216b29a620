package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Warn("kept", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "kept" || entry["key"] != "value" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestSpansShareTraceID(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "debug"))

	ctx, outer := StartSpan(ctx, "outer")
	_, inner := StartSpan(ctx, "inner")
	inner.End(errors.New("boom"))
	outer.End(nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two log lines, got %d: %s", len(lines), buf.String())
	}

	var innerEntry, outerEntry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &innerEntry); err != nil {
		t.Fatalf("decode inner: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &outerEntry); err != nil {
		t.Fatalf("decode outer: %v", err)
	}

	if innerEntry["level"] != "WARN" || innerEntry["error"] != "boom" || innerEntry["msg"] != "span failed" {
		t.Fatalf("unexpected inner entry %v", innerEntry)
	}
	if outerEntry["msg"] != "span completed" {
		t.Fatalf("unexpected outer entry %v", outerEntry)
	}
	if innerEntry["trace_id"] == nil || innerEntry["trace_id"] != outerEntry["trace_id"] {
		t.Fatalf("expected shared trace id, got %v and %v", innerEntry["trace_id"], outerEntry["trace_id"])
	}
	if innerEntry["parent_span_id"] != outerEntry["span_id"] {
		t.Fatalf("expected inner span to point at outer, got %v", innerEntry["parent_span_id"])
	}
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "info"))
	ctx = WithRequestID(With(ctx, "user_id", "u-1"), "req-1")

	FromContext(ctx).Info("hello")

	if !strings.Contains(buf.String(), `"user_id":"u-1"`) {
		t.Fatalf("expected user id attribute, got %s", buf.String())
	}
	if RequestIDFromContext(ctx) != "req-1" {
		t.Fatalf("unexpected request id %q", RequestIDFromContext(ctx))
	}
}
