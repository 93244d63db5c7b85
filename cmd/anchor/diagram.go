package main

import (
	"context"
	"io"

	"github.com/dusk-indust/anchor/internal/export"
)

func runDiagram(ctx context.Context, e *env, w io.Writer) error {
	if _, err := e.index(ctx); err != nil {
		return err
	}
	_, err := io.WriteString(w, export.Mermaid(e.graph.Snapshot()))
	return err
}
