package main

import (
	"github.com/prathikkv/pharma-intelligence-sub001/internal/cmd"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/server/handlers"
)

// Version information set via ldflags during build
// Example: go build -ldflags="-X main.version=0.1.0 -X main.commit=abc123 -X main.buildDate=2026-01-01" ./cmd/pharmaintel
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	handlers.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		// Commands log their own context; this only maps the exit code.
		cmd.ExitWithCodeStderr(cmd.ExitCodeFor(err), "Command execution failed", err)
	}
}
