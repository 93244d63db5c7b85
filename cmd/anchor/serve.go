package main

import (
	"context"

	"github.com/dusk-indust/anchor/internal/mcptools"
	"github.com/dusk-indust/anchor/internal/pipeline"
)

// runServe exposes the graph over MCP. The graph starts from whatever the
// persistent store holds; build_graph brings it up to date.
func runServe(ctx context.Context, e *env, addr string) error {
	if err := e.load(ctx); err != nil {
		return err
	}

	svc := mcptools.NewCodeIntelService(e.graph, pipeline.ConfigOptions(e.cfg)...)
	svc.SetProjectRoot(e.root)
	if e.store != nil {
		svc.SetStore(e.store)
	}

	if addr != "" {
		return mcptools.RunMCPServer(ctx, svc, addr)
	}
	return mcptools.RunMCPServerStdio(ctx, svc)
}
