package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestErrorKeepsContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	log.Error(ctx, "fulfillment.failed", errors.New("cj timeout"))

	entry := lastEntry(t, buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "cj timeout", entry["error"])
	assert.Equal(t, "api", entry["service"])
	assert.NotEmpty(t, entry["stack"])
}

func TestDomainFieldsAccumulate(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "cron-worker", Output: buf})

	ctx := log.WithOrderID(context.Background(), "ord-1")
	ctx = log.WithPlatform(ctx, "cj")
	ctx = log.WithAdminID(ctx, "adm-1")
	child := log.WithField(ctx, "attempt", 2)
	log.Info(child, "order.fulfilled")

	entry := lastEntry(t, buf)
	assert.Equal(t, "ord-1", entry["order_id"])
	assert.Equal(t, "cj", entry["platform"])
	assert.Equal(t, "adm-1", entry["admin_id"])
	assert.EqualValues(t, 2, entry["attempt"])

	// the parent context is not changed by a child field
	log.Info(ctx, "parent")
	assert.NotContains(t, lastEntry(t, buf), "attempt")
}

func TestSpanContextIsLogged(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Output: buf})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	log.Info(ctx, "with span")

	entry := lastEntry(t, buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{ServiceName: "api", Output: buf}).Warn(context.Background(), "quiet")
	assert.NotContains(t, lastEntry(t, buf), "stack")

	New(Options{ServiceName: "api", Output: buf, WarnStack: true}).Warn(context.Background(), "loud")
	assert.Contains(t, lastEntry(t, buf), "stack")
}

func TestLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Level: ParseLevel("warn"), Output: buf})
	log.Info(context.Background(), "dropped")
	assert.Zero(t, buf.Len())
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}
