// Package logging provides the CLI-facing counterpart to
// internal/daemon's NewLogger: structured output to stderr instead of
// a rotated file, for the foreground chronolog command itself.
package logging

import (
	"log/slog"
	"os"
)

// NewCLILogger returns a slog.Logger writing leveled, structured text
// to stderr. verbose selects slog.LevelDebug; otherwise slog.LevelInfo.
func NewCLILogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
