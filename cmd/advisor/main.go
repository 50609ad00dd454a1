// Command advisor resolves weather, soil, and crop advisories from the
// command line and serves them as MCP tools over stdio.
//
// Usage:
//
//	advisor weather Hyderabad
//	advisor crops            # reuses the last crop location
//	advisor history soil --limit 5
//	advisor mcp
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
