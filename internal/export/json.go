// Package export renders a graph snapshot for consumption outside the
// process.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dusk-indust/anchor/internal/graph"
)

// FormatVersion identifies the layout of the JSON document.
const FormatVersion = 1

// Document is the top-level JSON export structure.
type Document struct {
	Version  int                      `json:"version"`
	Root     string                   `json:"root,omitempty"`
	Stats    graph.GraphStats         `json:"stats"`
	Files    []graph.FileContribution `json:"files"`
	Clusters []graph.Cluster          `json:"clusters"`
}

// NewDocument wraps a snapshot. Nil slices become empty so the output
// never carries null arrays.
func NewDocument(root string, snap *graph.Snapshot) *Document {
	doc := &Document{
		Version:  FormatVersion,
		Root:     root,
		Stats:    snap.Stats,
		Files:    snap.Files,
		Clusters: snap.Clusters,
	}
	if doc.Files == nil {
		doc.Files = []graph.FileContribution{}
	}
	if doc.Clusters == nil {
		doc.Clusters = []graph.Cluster{}
	}
	return doc
}

// JSON writes snap as indented JSON. Identical graphs produce identical
// bytes.
func JSON(w io.Writer, root string, snap *graph.Snapshot) error {
	return WriteJSON(w, NewDocument(root, snap))
}

// WriteJSON writes any value as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
