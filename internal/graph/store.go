package graph

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by traversals whose start node is not in the graph.
var ErrNotFound = errors.New("graph: node not found")

// Store is the interface for code graph backends.
// Implementations: CodeGraph (in memory), BoltStore, KuzuStore.
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// ReplaceFile atomically swaps the whole contribution of one file.
	ReplaceFile(ctx context.Context, file FileNode, symbols []Symbol, refs []Reference) error
	RemoveFile(ctx context.Context, path string) error

	// Read operations. Missing entries yield nil without error.
	GetFile(ctx context.Context, path string) (*FileNode, error)
	GetSymbol(ctx context.Context, id string) (*Symbol, error)
	QuerySymbols(ctx context.Context, query string, limit int) ([]Symbol, error)

	// Graph traversal. nodeID is a file path or a symbol ID.
	GetDependencies(ctx context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error)

	Stats(ctx context.Context) (*GraphStats, error)
}

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // what does this depend on?
	DirectionDownstream Direction = "downstream" // what depends on this?
)

// ParseDirection maps a user-supplied string to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionUpstream, DirectionDownstream:
		return Direction(s), true
	case "":
		return DirectionUpstream, true
	}
	return "", false
}
