package logging

import (
	"io"
	"log/slog"
	"os"
)

// Init installs a text logger on stderr. Warnings and above are shown by
// default; verbose lowers the level to debug.
func Init(verbose bool) {
	slog.SetDefault(New(os.Stderr, verbose))
}

// New builds the text logger Init installs, writing to w.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
