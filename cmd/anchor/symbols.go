package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dusk-indust/anchor/internal/graph"
)

const (
	symbolLimit    = 10
	dependentLimit = 8
)

// runSymbols prints the symbols matching query with the dependency context of
// the first match's file. A populated persistent store is queried as is;
// otherwise the project is indexed first.
func runSymbols(ctx context.Context, e *env, query string, w io.Writer) error {
	var src graph.Store = e.graph
	var clusters []graph.Cluster
	stored := false
	if e.store != nil {
		st, err := e.store.Stats(ctx)
		if err != nil {
			return err
		}
		stored = st.FileCount > 0
	}
	if stored {
		src = e.store
	} else {
		if _, err := e.index(ctx); err != nil {
			return err
		}
		clusters = e.graph.Clusters()
	}

	symbols, err := src.QuerySymbols(ctx, query, symbolLimit)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		fmt.Fprintf(w, "no symbols match %q\n", query)
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Symbols matching %q\n\n", query)
	for _, sym := range symbols {
		fmt.Fprintf(&sb, "- `%s %s` in `%s:%d`", sym.Kind, sym.QualifiedName, sym.FilePath, sym.Span.Start.Line)
		if sym.Exported {
			sb.WriteString(" (exported)")
		}
		sb.WriteString("\n")
	}

	primary := symbols[0].FilePath
	upstream, err := src.GetDependencies(ctx, primary, graph.DirectionUpstream, 2)
	if err == nil && len(upstream) > 0 {
		fmt.Fprintf(&sb, "\n**Dependencies of `%s`:**\n", primary)
		for _, chain := range upstream {
			fmt.Fprintf(&sb, "- `%s`\n", chain.Nodes[len(chain.Nodes)-1])
		}
	}

	downstream, err := src.GetDependencies(ctx, primary, graph.DirectionDownstream, 2)
	if err == nil && len(downstream) > 0 {
		fmt.Fprintf(&sb, "\n**Dependents of `%s` (%d):**\n", primary, len(downstream))
		for i, chain := range downstream {
			if i == dependentLimit {
				fmt.Fprintf(&sb, "- ... (%d more)\n", len(downstream)-dependentLimit)
				break
			}
			fmt.Fprintf(&sb, "- `%s`\n", chain.Nodes[len(chain.Nodes)-1])
		}
	}

	for _, c := range clusters {
		if slices.Contains(c.Members, primary) {
			fmt.Fprintf(&sb, "\n**Cluster:** %s (cohesion %.2f, %d files)\n", c.Name, c.CohesionScore, len(c.Members))
			break
		}
	}

	_, err = io.WriteString(w, sb.String())
	return err
}
