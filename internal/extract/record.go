package extract

import (
	"github.com/dusk-indust/anchor/internal/lang"
	"github.com/dusk-indust/anchor/internal/normalize"
)

// Point is a position in source. Line is 1-based; Column is a 0-based byte
// offset within the line.
type Point struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Span locates a construct. The byte range is half-open.
type Span struct {
	StartByte int   `json:"startByte"`
	EndByte   int   `json:"endByte"`
	Start     Point `json:"start"`
	End       Point `json:"end"`
}

// Contains reports whether o lies within s.
func (s Span) Contains(o Span) bool {
	return s.StartByte <= o.StartByte && o.EndByte <= s.EndByte
}

// SymbolRecord is one named, locatable construct.
type SymbolRecord struct {
	// ID is unique within the file: the qualified name, suffixed with ~N for
	// the Nth duplicate in document order.
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	QualifiedName string               `json:"qualifiedName"`
	Kind          normalize.SymbolKind `json:"kind"`
	Language      lang.Language        `json:"language"`
	Span          Span                 `json:"span"`
	// Enclosing is the ID of the nearest enclosing symbol, empty at file
	// scope.
	Enclosing string `json:"enclosing,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
	Exported  bool   `json:"exported"`
}

// ReferenceEdge is a syntactic mention of a name, not yet resolved.
type ReferenceEdge struct {
	// Source is the ID of the nearest enclosing symbol, empty at file scope.
	Source string                  `json:"source,omitempty"`
	Target string                  `json:"target"`
	Kind   normalize.ReferenceKind `json:"kind"`
	Span   Span                    `json:"span"`
}

// FileInfo summarizes the extracted file.
type FileInfo struct {
	LOC         int    `json:"loc"`
	ContentHash uint64 `json:"contentHash"`
	// ErrorRegions counts syntax-error subtrees skipped by the walk.
	ErrorRegions int `json:"errorRegions"`
	// Partial is set when the tree contained syntax errors.
	Partial bool `json:"partial"`
}

// Result is the extraction output for one file.
type Result struct {
	Path       string          `json:"path"`
	Language   lang.Language   `json:"language"`
	File       FileInfo        `json:"file"`
	Symbols    []SymbolRecord  `json:"symbols"`
	References []ReferenceEdge `json:"references"`
}

// Symbol returns the record with the given ID.
func (r *Result) Symbol(id string) (SymbolRecord, bool) {
	for _, s := range r.Symbols {
		if s.ID == id {
			return s, true
		}
	}
	return SymbolRecord{}, false
}
