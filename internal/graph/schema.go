package graph

import (
	"github.com/dusk-indust/anchor/internal/extract"
	"github.com/dusk-indust/anchor/internal/lang"
	"github.com/dusk-indust/anchor/internal/normalize"
)

// --- Models ---

// FileNode represents a source file in the code graph.
type FileNode struct {
	Path        string        `json:"path"`
	Language    lang.Language `json:"language"`
	LOC         int           `json:"loc"`
	ContentHash uint64        `json:"contentHash"`
	Partial     bool          `json:"partial,omitempty"`
}

// Symbol is a SymbolRecord lifted into the graph. ID is "path#localID" and
// is stable across re-extraction of unchanged content.
type Symbol struct {
	ID            string               `json:"id"`
	FilePath      string               `json:"filePath"`
	Name          string               `json:"name"`
	QualifiedName string               `json:"qualifiedName"`
	Kind          normalize.SymbolKind `json:"kind"`
	Language      lang.Language        `json:"language"`
	Exported      bool                 `json:"exported"`
	Anonymous     bool                 `json:"anonymous,omitempty"`
	Span          extract.Span         `json:"span"`
	EnclosingID   string               `json:"enclosingId,omitempty"`
}

// Reference is a ReferenceEdge lifted into the graph. SourceID is a symbol
// ID, or empty for file-scope references. ResolvedID and ResolvedFile are
// filled on read when the target could be linked; otherwise the reference
// is dangling.
type Reference struct {
	SourceID     string                  `json:"sourceId,omitempty"`
	FilePath     string                  `json:"filePath"`
	Target       string                  `json:"target"`
	Kind         normalize.ReferenceKind `json:"kind"`
	Span         extract.Span            `json:"span"`
	ResolvedID   string                  `json:"resolvedId,omitempty"`
	ResolvedFile string                  `json:"resolvedFile,omitempty"`
}

// Dangling reports whether the reference could not be linked.
func (r Reference) Dangling() bool {
	return r.ResolvedID == "" && r.ResolvedFile == ""
}

// Cluster represents a group of tightly connected files.
type Cluster struct {
	Name          string   `json:"name"`
	CohesionScore float64  `json:"cohesionScore"`
	Members       []string `json:"members"` // file paths
}

// GraphStats summarizes a code graph.
type GraphStats struct {
	FileCount      int `json:"fileCount"`
	SymbolCount    int `json:"symbolCount"`
	ReferenceCount int `json:"referenceCount"`
	ResolvedCount  int `json:"resolvedCount"`
}

// DependencyChain is an ordered sequence of nodes forming a dependency path.
type DependencyChain struct {
	Nodes []string `json:"nodes"` // node IDs in order
	Depth int      `json:"depth"`
}

// ImpactResult describes the blast radius of changing a set of files.
type ImpactResult struct {
	DirectlyAffected     []string `json:"directlyAffected"`     // files that depend on changed files
	TransitivelyAffected []string `json:"transitivelyAffected"` // full downstream closure
	RiskScore            float64  `json:"riskScore"`            // 0.0-1.0, share of the graph affected
}

// GraphDelta reports what a merge changed for one file. Symbol lists hold
// graph IDs.
type GraphDelta struct {
	Path       string   `json:"path"`
	Added      []string `json:"added"`
	Removed    []string `json:"removed"`
	Kept       []string `json:"kept"`
	References int      `json:"references"`
	Resolved   int      `json:"resolved"`
	// Replaced is set when the file already had a contribution.
	Replaced bool `json:"replaced"`
}

// FileContribution is everything one file adds to the graph.
type FileContribution struct {
	File       FileNode    `json:"file"`
	Symbols    []Symbol    `json:"symbols"`
	References []Reference `json:"references"`
}

// Snapshot is a consistent, resolved copy of the graph ordered by path.
type Snapshot struct {
	Files    []FileContribution `json:"files"`
	Clusters []Cluster          `json:"clusters"`
	Stats    GraphStats         `json:"stats"`
}

// SymbolID builds the graph identity of a symbol from its file path and
// per-file ID.
func SymbolID(path, localID string) string {
	return path + "#" + localID
}

// Contribution converts an extraction result into graph records.
func Contribution(res *extract.Result) FileContribution {
	path := res.Path
	fc := FileContribution{
		File: FileNode{
			Path:        path,
			Language:    res.Language,
			LOC:         res.File.LOC,
			ContentHash: res.File.ContentHash,
			Partial:     res.File.Partial,
		},
		Symbols:    make([]Symbol, 0, len(res.Symbols)),
		References: make([]Reference, 0, len(res.References)),
	}
	for _, s := range res.Symbols {
		sym := Symbol{
			ID:            SymbolID(path, s.ID),
			FilePath:      path,
			Name:          s.Name,
			QualifiedName: s.QualifiedName,
			Kind:          s.Kind,
			Language:      s.Language,
			Exported:      s.Exported,
			Anonymous:     s.Anonymous,
			Span:          s.Span,
		}
		if s.Enclosing != "" {
			sym.EnclosingID = SymbolID(path, s.Enclosing)
		}
		fc.Symbols = append(fc.Symbols, sym)
	}
	for _, r := range res.References {
		ref := Reference{
			FilePath: path,
			Target:   r.Target,
			Kind:     r.Kind,
			Span:     r.Span,
		}
		if r.Source != "" {
			ref.SourceID = SymbolID(path, r.Source)
		}
		fc.References = append(fc.References, ref)
	}
	return fc
}
