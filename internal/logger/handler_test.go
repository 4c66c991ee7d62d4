package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
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
	for raw, want := range cases {
		assert.Equal(t, want, ParseLevel(raw), raw)
	}
}

func TestPrettyHandler_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}).Plain()
	log := slog.New(h).With("session_id", "abc").WithGroup("cart")

	log.Info("cart refreshed", "items", 3, "title", "Clean Code")

	out := buf.String()
	assert.Contains(t, out, "INFO  cart refreshed")
	assert.Contains(t, out, "session_id=abc")
	assert.Contains(t, out, "cart.items=3")
	assert.Contains(t, out, `cart.title="Clean Code"`)
	assert.NotContains(t, out, "\033[")
}

func TestPrettyHandler_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}).Plain())

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
