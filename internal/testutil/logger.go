// Package testutil holds shared helpers for the package test suites.
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger returns a debug-level slog.Logger routed through
// t.Log, so workspace and watcher output shows up with the failing
// test instead of on stderr.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(&logSink{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// logSink adapts testing.TB to io.Writer for the slog handler.
type logSink struct {
	t testing.TB
}

func (s *logSink) Write(p []byte) (int, error) {
	s.t.Helper()
	s.t.Log(string(p))
	return len(p), nil
}
