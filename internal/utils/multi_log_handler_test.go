package utils

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingHandler accepts every record and fails to write it.
type failingHandler struct {
	err error
}

func (f *failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (f *failingHandler) Handle(context.Context, slog.Record) error {
	return f.err
}
func (f *failingHandler) WithAttrs([]slog.Attr) slog.Handler { return f }
func (f *failingHandler) WithGroup(string) slog.Handler      { return f }

func TestMultiLogHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiLogHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	)

	slog.New(h).Info("hello", "k", "v")

	assert.Contains(t, a.String(), "hello")
	assert.Contains(t, b.String(), "hello")
}

func TestMultiLogHandlerLevelGate(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiLogHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestMultiLogHandlerDeliversPastFailingSink(t *testing.T) {
	sinkErr := errors.New("disk full")
	var buf bytes.Buffer
	h := NewMultiLogHandler(
		&failingHandler{err: sinkErr},
		slog.NewTextHandler(&buf, nil),
	)

	var rec slog.Record
	rec.Level = slog.LevelInfo
	rec.Message = "still logged"

	err := h.Handle(context.Background(), rec)
	require.ErrorIs(t, err, sinkErr)
	assert.Contains(t, buf.String(), "still logged")
}
