// Package logging builds the process-wide structured logger. It splits
// output the way spec.md's observability section requires: informational
// lines to standard output, errors to standard error — the slog equivalent
// of the stdout/stderr output-path split other loggers in the pack configure
// natively (e.g. zap's OutputPaths/ErrorOutputPaths).
package logging

import (
	"context"
	"log/slog"
	"os"
)

// New returns a JSON slog.Logger enabled at level that writes records below
// slog.LevelError to stdout and records at Error level or above to stderr.
func New(level slog.Level) *slog.Logger {
	return slog.New(&splitHandler{
		stdout: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		stderr: slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	})
}

// splitHandler implements slog.Handler by routing each record to stdout or
// stderr based on its level.
type splitHandler struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (h *splitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.stdout.Enabled(ctx, level) || h.stderr.Enabled(ctx, level)
}

func (h *splitHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelError {
		return h.stderr.Handle(ctx, record)
	}
	return h.stdout.Handle(ctx, record)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{
		stdout: h.stdout.WithAttrs(attrs),
		stderr: h.stderr.WithAttrs(attrs),
	}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{
		stdout: h.stdout.WithGroup(name),
		stderr: h.stderr.WithGroup(name),
	}
}

var _ slog.Handler = (*splitHandler)(nil)
