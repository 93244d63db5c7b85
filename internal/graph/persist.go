package graph

import (
	"context"
	"fmt"
)

// Persist copies a resolved snapshot of g into dst, one file per
// ReplaceFile call. When dst can enumerate its files, those absent from g
// are removed; otherwise they are left alone.
func Persist(ctx context.Context, dst Store, g *CodeGraph) error {
	if err := dst.InitSchema(ctx); err != nil {
		return fmt.Errorf("persist: init schema: %w", err)
	}
	snap := g.Snapshot()
	live := make(map[string]bool, len(snap.Files))
	for _, fc := range snap.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		live[fc.File.Path] = true
		if err := dst.ReplaceFile(ctx, fc.File, fc.Symbols, fc.References); err != nil {
			return fmt.Errorf("persist %s: %w", fc.File.Path, err)
		}
	}

	src, ok := dst.(FileSource)
	if !ok {
		return nil
	}
	var stale []string
	err := src.ForEachFile(ctx, func(fc FileContribution) error {
		if !live[fc.File.Path] {
			stale = append(stale, fc.File.Path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist: list stored files: %w", err)
	}
	for _, path := range stale {
		if err := dst.RemoveFile(ctx, path); err != nil {
			return fmt.Errorf("persist: remove %s: %w", path, err)
		}
	}
	return nil
}

// FileSource enumerates stored contributions.
type FileSource interface {
	ForEachFile(ctx context.Context, fn func(FileContribution) error) error
}

// Load replays every contribution from src into g. Stored resolutions are
// dropped; g links references again against its own indexes.
func Load(ctx context.Context, src FileSource, g *CodeGraph) (int, error) {
	n := 0
	err := src.ForEachFile(ctx, func(fc FileContribution) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.replace(fc)
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("load graph: %w", err)
	}
	return n, nil
}
