package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dusk-indust/anchor/internal/export"
)

// runIndex indexes the project and writes either a human summary or the
// JSON export of the graph.
func runIndex(ctx context.Context, e *env, format string, w io.Writer) error {
	switch format {
	case "summary", "json":
	default:
		return fmt.Errorf("unknown format %q (want summary or json)", format)
	}

	report, err := e.index(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		return export.JSON(w, e.root, e.graph.Snapshot())
	}

	fmt.Fprintln(w, report.Summary())
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  failed %s: %s\n", f.Path, f.Message)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	stats := e.graph.Snapshot().Stats
	fmt.Fprintf(w, "graph: %d files, %d symbols, %d references (%d resolved)\n",
		stats.FileCount, stats.SymbolCount, stats.ReferenceCount, stats.ResolvedCount)
	return nil
}
