package mcp

import (
	"io"
	"log/slog"
)

// nopLogger discards everything, keeping test output free of expected
// error/warn lines from paths under deliberate test (panics, timeouts).
func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
