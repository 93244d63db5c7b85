//go:build !cgo

package main

import (
	"errors"

	"github.com/dusk-indust/anchor/internal/graph"
)

func openKuzuStore(string) (graph.Store, error) {
	return nil, errors.New("kuzu store requires a cgo build")
}
