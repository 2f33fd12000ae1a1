package main

import (
	"log/slog"
	"os"

	"github.com/ppiankov/hollowspectre/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := commands.Execute(version, commit, date); err != nil {
		slog.Debug("Command failed", "error", err)
		os.Exit(1)
	}
}
