package mcptools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/anchor/internal/config"
	"github.com/dusk-indust/anchor/internal/extract"
	"github.com/dusk-indust/anchor/internal/graph"
	"github.com/dusk-indust/anchor/internal/lang"
	"github.com/dusk-indust/anchor/internal/normalize"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fixtureAbsPath returns the absolute path to the polyglot test fixture.
// Tests run from internal/mcptools/, so the relative path is
// ../../testdata/fixtures/polyglot.
func fixtureAbsPath(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs("../../testdata/fixtures/polyglot")
	require.NoError(t, err)
	return abs
}

func pySymbol(id string, kind normalize.SymbolKind) extract.SymbolRecord {
	return extract.SymbolRecord{ID: id, Name: id, QualifiedName: id, Kind: kind, Language: lang.Python, Exported: true}
}

func pyRef(source, target string, kind normalize.ReferenceKind) extract.ReferenceEdge {
	return extract.ReferenceEdge{Source: source, Target: target, Kind: kind}
}

// seedGraph builds a chain handler -> service -> model plus a lone file.
func seedGraph(t *testing.T) *graph.CodeGraph {
	t.Helper()
	g := graph.NewCodeGraph()
	g.Merge("pkg/model.py", &extract.Result{
		Language: lang.Python,
		Symbols: []extract.SymbolRecord{
			pySymbol("User", normalize.SymbolKindClass),
			pySymbol("validate_user", normalize.SymbolKindFunction),
		},
	})
	g.Merge("pkg/service.py", &extract.Result{
		Language: lang.Python,
		Symbols:  []extract.SymbolRecord{pySymbol("make_user", normalize.SymbolKindFunction)},
		References: []extract.ReferenceEdge{
			pyRef("", "pkg.model", normalize.ReferenceKindImport),
			pyRef("make_user", "User", normalize.ReferenceKindCall),
			pyRef("make_user", "validate_user", normalize.ReferenceKindCall),
		},
	})
	g.Merge("pkg/handler.py", &extract.Result{
		Language:   lang.Python,
		Symbols:    []extract.SymbolRecord{pySymbol("handle", normalize.SymbolKindFunction)},
		References: []extract.ReferenceEdge{pyRef("handle", "make_user", normalize.ReferenceKindCall)},
	})
	g.Merge("other.py", &extract.Result{Language: lang.Python})
	return g
}

func ends(chains []graph.DependencyChain) []string {
	out := make([]string, 0, len(chains))
	for _, c := range chains {
		out = append(out, c.Nodes[len(c.Nodes)-1])
	}
	return out
}

// ---------------------------------------------------------------------------
// extract_file
// ---------------------------------------------------------------------------

func TestExtractFile_InlineContent(t *testing.T) {
	svc := NewCodeIntelService(graph.NewCodeGraph())
	_, out, err := svc.ExtractFile(context.Background(), nil, ExtractFileInput{
		Path:    "x.py",
		Content: "def f():\n    pass\n",
	})
	require.NoError(t, err)
	assert.Equal(t, lang.Python, out.Result.Language)
	require.Len(t, out.Result.Symbols, 1)
	assert.Equal(t, "f", out.Result.Symbols[0].Name)
	assert.NotNil(t, out.Result.References)
}

func TestExtractFile_ReadsRelativeToProjectRoot(t *testing.T) {
	g := graph.NewCodeGraph()
	svc := NewCodeIntelService(g)
	svc.SetProjectRoot(fixtureAbsPath(t))

	_, out, err := svc.ExtractFile(context.Background(), nil, ExtractFileInput{Path: "util.go"})
	require.NoError(t, err)
	_, ok := out.Result.Symbol("helper")
	assert.True(t, ok)
	assert.Empty(t, g.Files(), "extract_file does not touch the graph")
}

func TestExtractFile_Errors(t *testing.T) {
	svc := NewCodeIntelService(graph.NewCodeGraph())
	ctx := context.Background()

	_, _, err := svc.ExtractFile(ctx, nil, ExtractFileInput{})
	assert.Error(t, err)

	_, _, err = svc.ExtractFile(ctx, nil, ExtractFileInput{Path: "notes.txt", Content: "hi"})
	assert.ErrorIs(t, err, extract.ErrUnsupportedLanguage)

	_, _, err = svc.ExtractFile(ctx, nil, ExtractFileInput{Path: filepath.Join(t.TempDir(), "missing.go")})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// build_graph
// ---------------------------------------------------------------------------

func TestBuildGraph(t *testing.T) {
	g := graph.NewCodeGraph()
	svc := NewCodeIntelService(g)

	_, out, err := svc.BuildGraph(context.Background(), nil, BuildGraphInput{RepoPath: fixtureAbsPath(t)})
	require.NoError(t, err)
	assert.Equal(t, 8, out.Stats.FileCount)
	assert.Equal(t, 8, out.Report.Extracted)
	assert.Equal(t, 1, out.Report.Partial)
	assert.Greater(t, out.Stats.ResolvedCount, 0)

	// Second run is incremental.
	_, out, err = svc.BuildGraph(context.Background(), nil, BuildGraphInput{RepoPath: fixtureAbsPath(t)})
	require.NoError(t, err)
	assert.Equal(t, 8, out.Report.Unchanged)
}

func TestBuildGraph_DefaultsToProjectRoot(t *testing.T) {
	svc := NewCodeIntelService(graph.NewCodeGraph())
	svc.SetProjectRoot(fixtureAbsPath(t))
	_, out, err := svc.BuildGraph(context.Background(), nil, BuildGraphInput{Languages: []string{"golang"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Stats.FileCount)
}

func TestBuildGraph_Exclude(t *testing.T) {
	svc := NewCodeIntelService(graph.NewCodeGraph())
	_, out, err := svc.BuildGraph(context.Background(), nil, BuildGraphInput{
		RepoPath: fixtureAbsPath(t),
		Exclude:  []string{"app/**", "web/**"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Stats.FileCount)
}

func TestBuildGraph_PersistsToStore(t *testing.T) {
	ctx := context.Background()
	store, err := graph.NewBoltStore(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := NewCodeIntelService(graph.NewCodeGraph())
	svc.SetStore(store)
	_, _, err = svc.BuildGraph(ctx, nil, BuildGraphInput{RepoPath: fixtureAbsPath(t)})
	require.NoError(t, err)

	f, err := store.GetFile(ctx, "main.go")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, lang.Go, f.Language)
}

func TestBuildGraph_Errors(t *testing.T) {
	svc := NewCodeIntelService(graph.NewCodeGraph())
	ctx := context.Background()

	_, _, err := svc.BuildGraph(ctx, nil, BuildGraphInput{})
	assert.Error(t, err, "repoPath is required without a project root")

	_, _, err = svc.BuildGraph(ctx, nil, BuildGraphInput{RepoPath: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	_, _, err = svc.BuildGraph(ctx, nil, BuildGraphInput{RepoPath: fixtureAbsPath(t) + "/main.go"})
	assert.Error(t, err, "file is not a directory")

	_, _, err = svc.BuildGraph(ctx, nil, BuildGraphInput{RepoPath: fixtureAbsPath(t), Languages: []string{"cobol"}})
	assert.Error(t, err)

	_, _, err = svc.BuildGraph(ctx, nil, BuildGraphInput{RepoPath: fixtureAbsPath(t), Exclude: []string{"["}})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

// ---------------------------------------------------------------------------
// query_symbols
// ---------------------------------------------------------------------------

func TestQuerySymbols(t *testing.T) {
	svc := NewCodeIntelService(seedGraph(t))
	ctx := context.Background()

	_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "user"})
	require.NoError(t, err)
	require.Equal(t, 3, out.Total)
	assert.Equal(t, "pkg/model.py#User", out.Symbols[0].ID)

	_, out, err = svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "user", Kind: "CLASS"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "User", out.Symbols[0].Name)

	_, out, err = svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "user", Kind: "function", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)

	_, out, err = svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "nothing-matches"})
	require.NoError(t, err)
	assert.Zero(t, out.Total)
	assert.NotNil(t, out.Symbols)
}

// ---------------------------------------------------------------------------
// get_references
// ---------------------------------------------------------------------------

func TestGetReferences(t *testing.T) {
	svc := NewCodeIntelService(seedGraph(t))
	ctx := context.Background()

	_, out, err := svc.GetReferences(ctx, nil, GetReferencesInput{ID: "pkg/model.py#User"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "pkg/service.py#make_user", out.References[0].SourceID)

	_, out, err = svc.GetReferences(ctx, nil, GetReferencesInput{ID: "pkg/model.py"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, normalize.ReferenceKindImport, out.References[0].Kind)

	_, out, err = svc.GetReferences(ctx, nil, GetReferencesInput{ID: "pkg/service.py#make_user", Direction: "outgoing"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)

	_, out, err = svc.GetReferences(ctx, nil, GetReferencesInput{ID: "pkg/service.py", Direction: "outgoing"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)

	_, out, err = svc.GetReferences(ctx, nil, GetReferencesInput{ID: "other.py"})
	require.NoError(t, err)
	assert.Zero(t, out.Total)
	assert.NotNil(t, out.References)
}

func TestGetReferences_Errors(t *testing.T) {
	svc := NewCodeIntelService(seedGraph(t))
	ctx := context.Background()

	_, _, err := svc.GetReferences(ctx, nil, GetReferencesInput{})
	assert.Error(t, err)

	_, _, err = svc.GetReferences(ctx, nil, GetReferencesInput{ID: "nope.py"})
	assert.ErrorIs(t, err, graph.ErrNotFound)

	_, _, err = svc.GetReferences(ctx, nil, GetReferencesInput{ID: "other.py", Direction: "sideways"})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// get_dependencies
// ---------------------------------------------------------------------------

func TestGetDependencies(t *testing.T) {
	svc := NewCodeIntelService(seedGraph(t))
	ctx := context.Background()

	_, out, err := svc.GetDependencies(ctx, nil, GetDependenciesInput{NodeID: "pkg/model.py"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/service.py", "pkg/handler.py"}, ends(out.Chains), "default direction is downstream")

	_, out, err = svc.GetDependencies(ctx, nil, GetDependenciesInput{NodeID: "pkg/handler.py", Direction: "Upstream"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/service.py", "pkg/model.py"}, ends(out.Chains))

	_, out, err = svc.GetDependencies(ctx, nil, GetDependenciesInput{NodeID: "pkg/handler.py", Direction: "upstream", MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/service.py"}, ends(out.Chains))

	_, out, err = svc.GetDependencies(ctx, nil, GetDependenciesInput{NodeID: "other.py"})
	require.NoError(t, err)
	assert.NotNil(t, out.Chains)
	assert.Empty(t, out.Chains)
}

func TestGetDependencies_Errors(t *testing.T) {
	svc := NewCodeIntelService(seedGraph(t))
	ctx := context.Background()

	_, _, err := svc.GetDependencies(ctx, nil, GetDependenciesInput{})
	assert.Error(t, err)

	_, _, err = svc.GetDependencies(ctx, nil, GetDependenciesInput{NodeID: "missing.py"})
	assert.ErrorIs(t, err, graph.ErrNotFound)

	_, _, err = svc.GetDependencies(ctx, nil, GetDependenciesInput{NodeID: "other.py", Direction: "sideways"})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// assess_impact / get_clusters
// ---------------------------------------------------------------------------

func TestAssessImpact(t *testing.T) {
	svc := NewCodeIntelService(seedGraph(t))
	_, out, err := svc.AssessImpact(context.Background(), nil, AssessImpactInput{ChangedFiles: []string{"pkg/model.py"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/service.py"}, out.Impact.DirectlyAffected)
	assert.Equal(t, []string{"pkg/handler.py", "pkg/service.py"}, out.Impact.TransitivelyAffected)
	assert.InDelta(t, 0.5, out.Impact.RiskScore, 1e-9)
}

func TestAssessImpact_Errors(t *testing.T) {
	svc := NewCodeIntelService(seedGraph(t))
	ctx := context.Background()

	_, _, err := svc.AssessImpact(ctx, nil, AssessImpactInput{})
	assert.Error(t, err)

	_, _, err = svc.AssessImpact(ctx, nil, AssessImpactInput{ChangedFiles: []string{"missing.py"}})
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestGetClusters(t *testing.T) {
	svc := NewCodeIntelService(seedGraph(t))
	_, out, err := svc.GetClusters(context.Background(), nil, GetClustersInput{})
	require.NoError(t, err)
	require.Len(t, out.Clusters, 1)
	assert.Equal(t, []string{"pkg/handler.py", "pkg/model.py", "pkg/service.py"}, out.Clusters[0].Members)

	_, out, err = NewCodeIntelService(graph.NewCodeGraph()).GetClusters(context.Background(), nil, GetClustersInput{})
	require.NoError(t, err)
	assert.NotNil(t, out.Clusters)
	assert.Empty(t, out.Clusters)
}
