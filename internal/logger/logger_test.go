package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := TraceID(ctx); got != "" {
		t.Errorf("empty context trace = %q, want \"\"", got)
	}

	ctx = WithTraceID(ctx, "order-123")
	if got := TraceID(ctx); got != "order-123" {
		t.Errorf("trace = %q, want order-123", got)
	}
}

func TestGenerateTraceID(t *testing.T) {
	ts := time.Unix(0, 1700000000000000000)
	got := GenerateTraceID("place_order", ts)
	if !strings.HasPrefix(got, "place_order-") {
		t.Errorf("trace id = %q", got)
	}
	if got != "place_order-1700000000000000000" {
		t.Errorf("trace id = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogWithTrace(t *testing.T) {
	if attrs := LogWithTrace(context.Background()); attrs != nil {
		t.Errorf("attrs = %v, want nil", attrs)
	}

	ctx := WithTraceID(context.Background(), "abc")
	attrs := LogWithTrace(ctx)
	if len(attrs) != 1 {
		t.Fatalf("attrs = %v", attrs)
	}
	attr, ok := attrs[0].(slog.Attr)
	if !ok || attr.Key != "trace_id" || attr.Value.String() != "abc" {
		t.Errorf("attr = %v", attrs[0])
	}
}
