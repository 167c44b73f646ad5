package testutil

import "log/slog"

// Logger returns a logger that discards everything. Tests that assert on log
// output should build their own handler instead.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
