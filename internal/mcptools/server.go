package mcptools

import (
	"context"
	"log"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewCodeIntelMCPServer creates an MCP server with all code intelligence tools registered.
func NewCodeIntelMCPServer(svc *CodeIntelService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "anchor",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_file",
		Description: "Extract the symbols and unresolved references of a single source file using tree-sitter. Content may be passed inline; otherwise the file is read from disk.",
	}, svc.ExtractFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_graph",
		Description: "Index a repository and build the code graph. Walks the file tree, extracts symbols from every supported language in parallel, links references and reports per-file outcomes. Re-running is incremental.",
	}, svc.BuildGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_symbols",
		Description: "Search for symbols (functions, classes, types, etc.) by name substring match. Optionally filter by symbol kind and limit results.",
	}, svc.QuerySymbols)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_references",
		Description: "List the references pointing at a symbol or file (incoming) or made by it (outgoing), with their resolution.",
	}, svc.GetReferences)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dependencies",
		Description: "Traverse the dependency graph upstream or downstream from a file or symbol. Returns dependency chains up to the specified depth.",
	}, svc.GetDependencies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "assess_impact",
		Description: "Compute the blast radius of modifying a set of files. Returns directly and transitively affected files with a risk score.",
	}, svc.AssessImpact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_clusters",
		Description: "Return the file clusters of the graph. Clusters are groups of connected files with cohesion scores.",
	}, svc.GetClusters)

	return server
}

// RunMCPServer starts an HTTP server exposing the code intelligence MCP tools.
func RunMCPServer(ctx context.Context, svc *CodeIntelService, addr string) error {
	server := NewCodeIntelMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	log.Printf("anchor MCP server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the code intelligence tools on stdio, blocking
// until stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *CodeIntelService) error {
	return NewCodeIntelMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
