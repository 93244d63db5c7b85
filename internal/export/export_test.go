package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/anchor/internal/extract"
	"github.com/dusk-indust/anchor/internal/graph"
	"github.com/dusk-indust/anchor/internal/lang"
	"github.com/dusk-indust/anchor/internal/normalize"
)

func pyFile(path, symbol, call string) *extract.Result {
	res := &extract.Result{
		Path:     path,
		Language: lang.Python,
		Symbols: []extract.SymbolRecord{{
			ID: symbol, Name: symbol, QualifiedName: symbol,
			Kind: normalize.SymbolKindFunction, Language: lang.Python, Exported: true,
		}},
	}
	if call != "" {
		res.References = []extract.ReferenceEdge{{Source: symbol, Target: call, Kind: normalize.ReferenceKindCall}}
	}
	return res
}

// sampleGraph: a.py calls into b.py; c.py stands alone.
func sampleGraph() *graph.CodeGraph {
	g := graph.NewCodeGraph()
	g.Merge("a.py", pyFile("a.py", "run", "helper"))
	g.Merge("b.py", pyFile("b.py", "helper", ""))
	g.Merge("c.py", pyFile("c.py", "alone", ""))
	return g
}

func TestJSON_Deterministic(t *testing.T) {
	g := sampleGraph()
	var first, second bytes.Buffer
	require.NoError(t, JSON(&first, "/repo", g.Snapshot()))
	require.NoError(t, JSON(&second, "/repo", g.Snapshot()))
	assert.Equal(t, first.String(), second.String())

	var doc Document
	require.NoError(t, json.Unmarshal(first.Bytes(), &doc))
	assert.Equal(t, FormatVersion, doc.Version)
	assert.Equal(t, "/repo", doc.Root)
	assert.Equal(t, 3, doc.Stats.FileCount)
	require.Len(t, doc.Files, 3)
	assert.Equal(t, "a.py", doc.Files[0].File.Path)
	require.Len(t, doc.Files[0].References, 1)
	assert.Equal(t, "b.py#helper", doc.Files[0].References[0].ResolvedID)
}

func TestJSON_EmptyGraphHasNoNullArrays(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, "", graph.NewCodeGraph().Snapshot()))
	assert.Contains(t, buf.String(), `"files": []`)
	assert.Contains(t, buf.String(), `"clusters": []`)
	assert.NotContains(t, buf.String(), "null")
}

func TestMermaid(t *testing.T) {
	got := Mermaid(sampleGraph().Snapshot())
	want := "graph TD\n" +
		"  subgraph N0[\"a.py\"]\n" +
		"    N1[\"a.py\"]\n" +
		"    N2[\"b.py\"]\n" +
		"  end\n" +
		"  N3[\"c.py\"]\n" +
		"  N1 --> N2\n"
	assert.Equal(t, want, got)
}

func TestMermaid_Empty(t *testing.T) {
	assert.Equal(t, "graph TD\n", Mermaid(graph.NewCodeGraph().Snapshot()))
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "a.go", shortPath("a.go"))
	assert.Equal(t, "pkg/a.go", shortPath("pkg/a.go"))
	assert.Equal(t, "graph/store.go", shortPath("internal/graph/store.go"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "say #quot;hi#quot;", label(`say "hi"`, 40))
	assert.Equal(t, "abc", label("abcdef", 3))
}
