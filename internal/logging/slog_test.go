package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewText_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewText(&buf, "warn")
	ctx := context.Background()

	log.Debug(ctx, "probe", "table", "entries")
	log.Info(ctx, "seeded", "count", 4)
	log.Warn(ctx, "list fell back", "reason", "offline")
	log.Error(ctx, "append failed", "id", "log-1")

	out := buf.String()
	assert.NotContains(t, out, "msg=probe")
	assert.NotContains(t, out, "msg=seeded")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "reason=offline")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "id=log-1")
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewText(&buf, "debug").With("module", "backend")

	log.Debug(context.Background(), "request", "method", "GET")

	out := buf.String()
	for _, s := range []string{"level=DEBUG", "msg=request", "module=backend", "method=GET"} {
		assert.Contains(t, out, s)
	}
}

func TestNewJSON_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	NewJSON(&buf, "info").Info(context.Background(), "listening", "addr", ":3000")

	assert.Contains(t, buf.String(), `"msg":"listening"`)
	assert.Contains(t, buf.String(), `"addr":":3000"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	log := Nop()
	ctx := context.TODO()
	log.Debug(ctx, "x")
	log.Info(ctx, "x")
	log.With("k", "v").Warn(ctx, "x")
	log.Error(ctx, "x")
}
