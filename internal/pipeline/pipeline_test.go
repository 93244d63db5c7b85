package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dusk-indust/anchor/internal/extract"
	"github.com/dusk-indust/anchor/internal/graph"
	"github.com/dusk-indust/anchor/internal/lang"
)

const fixture = "../../testdata/fixtures/polyglot"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// copyFixture copies the polyglot fixture into a temp dir so tests can edit it.
func copyFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, os.DirFS(fixture)))
	return dir
}

func upstreamFiles(t *testing.T, g *graph.CodeGraph, path string) []string {
	t.Helper()
	chains, err := g.GetDependencies(context.Background(), path, graph.DirectionUpstream, 1)
	require.NoError(t, err)
	var out []string
	for _, c := range chains {
		out = append(out, c.Nodes[len(c.Nodes)-1])
	}
	return out
}

func drain(pr *ProgressReporter) []Event {
	var out []Event
	for {
		select {
		case ev := <-pr.Subscribe():
			out = append(out, ev)
		default:
			return out
		}
	}
}

// failingExtractor fails for one path and delegates the rest.
type failingExtractor struct {
	path string
	err  error
	next Extractor
}

func (f failingExtractor) Extract(ctx context.Context, path string, content []byte) (*extract.Result, error) {
	if path == f.path {
		return nil, f.err
	}
	return f.next.Extract(ctx, path, content)
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_Polyglot(t *testing.T) {
	g := graph.NewCodeGraph()
	report, err := New(g, WithWorkers(4)).Run(context.Background(), fixture)
	require.NoError(t, err)

	// LICENSE has no extension and no shebang; README.md, go.mod and
	// node_modules never become candidates.
	assert.Equal(t, 9, report.Files)
	assert.Equal(t, 8, report.Extracted)
	assert.Equal(t, 1, report.Unsupported)
	assert.Equal(t, 1, report.Partial)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Skipped)
	assert.Empty(t, report.Warnings)

	var paths []string
	for _, f := range g.Files() {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		"app/main.py", "app/models.py", "broken.py", "main.go",
		"scripts/run", "util.go", "web/index.ts", "web/util.ts",
	}, paths)

	run, ok := g.File("scripts/run")
	require.True(t, ok)
	assert.Equal(t, lang.Python, run.Language)

	broken, ok := g.File("broken.py")
	require.True(t, ok)
	assert.True(t, broken.Partial)
	_, ok = g.Symbol("broken.py#ok")
	assert.True(t, ok, "valid symbols survive a syntax error elsewhere")

	assert.Contains(t, upstreamFiles(t, g, "main.go"), "util.go")
	assert.Contains(t, upstreamFiles(t, g, "app/main.py"), "app/models.py")
	assert.Contains(t, upstreamFiles(t, g, "web/index.ts"), "web/util.ts")
}

func TestRun_SecondRunIsUnchanged(t *testing.T) {
	g := graph.NewCodeGraph()
	p := New(g, WithWorkers(2))
	_, err := p.Run(context.Background(), fixture)
	require.NoError(t, err)
	before := g.Snapshot()

	report, err := p.Run(context.Background(), fixture)
	require.NoError(t, err)
	assert.Equal(t, 8, report.Unchanged)
	assert.Zero(t, report.Extracted)
	assert.Zero(t, report.Removed)
	assert.Equal(t, 1, report.Partial)
	assert.Equal(t, before, g.Snapshot())
}

func TestRun_Incremental(t *testing.T) {
	dir := copyFixture(t)
	g := graph.NewCodeGraph()
	p := New(g)
	_, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "util.go"),
		[]byte("package main\n\nfunc helper() int {\n\treturn 42\n}\n\nfunc extra() {}\n"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "web", "util.ts")))

	report, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Extracted)
	assert.Equal(t, 6, report.Unchanged)
	assert.Equal(t, 1, report.Removed)

	_, ok := g.Symbol("util.go#extra")
	assert.True(t, ok)
	_, ok = g.File("web/util.ts")
	assert.False(t, ok)
	for _, r := range g.References("web/index.ts") {
		if r.Target == "./util" {
			assert.True(t, r.Dangling(), "import of a removed file no longer resolves")
		}
	}
}

func TestRun_Excludes(t *testing.T) {
	g := graph.NewCodeGraph()
	report, err := New(g, WithExcludes("**/node_modules/**", "web/**")).Run(context.Background(), fixture)
	require.NoError(t, err)
	assert.Equal(t, 7, report.Files)
	assert.Equal(t, 6, report.Extracted)
	_, ok := g.File("web/index.ts")
	assert.False(t, ok)
}

func TestRun_NoExcludesIndexesNodeModules(t *testing.T) {
	g := graph.NewCodeGraph()
	_, err := New(g, WithExcludes()).Run(context.Background(), fixture)
	require.NoError(t, err)
	_, ok := g.File("node_modules/dep/index.js")
	assert.True(t, ok)
}

func TestRun_LanguageFilter(t *testing.T) {
	g := graph.NewCodeGraph()
	report, err := New(g, WithLanguages(lang.Go)).Run(context.Background(), fixture)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Extracted)
	assert.Equal(t, 6, report.Skipped)
	assert.Equal(t, 1, report.Unsupported)
	assert.Zero(t, report.Partial)
	assert.Len(t, g.Files(), 2)
}

func TestRun_SizeCap(t *testing.T) {
	g := graph.NewCodeGraph()
	report, err := New(g, WithMaxFileSize(1)).Run(context.Background(), fixture)
	require.NoError(t, err)
	assert.Equal(t, 9, report.Files)
	assert.Equal(t, 9, report.Skipped)
	assert.Zero(t, report.Extracted)
	assert.Empty(t, g.Files())
}

func TestRun_FailureDoesNotStopRun(t *testing.T) {
	g := graph.NewCodeGraph()
	boom := errors.New("boom")
	ex := failingExtractor{path: "util.go", err: boom, next: extract.New()}

	report, err := New(g, WithExtractor(ex), WithWorkers(3)).Run(context.Background(), fixture)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 7, report.Extracted)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "util.go", report.Failures[0].Path)
	assert.ErrorIs(t, report.Failures[0], boom)

	_, ok := g.File("util.go")
	assert.False(t, ok)
	_, ok = g.File("main.go")
	assert.True(t, ok)
}

func TestRun_FailedFileKeepsPreviousContribution(t *testing.T) {
	dir := copyFixture(t)
	g := graph.NewCodeGraph()
	_, err := New(g).Run(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "util.go"), []byte("package main\n"), 0o644))
	ex := failingExtractor{path: "util.go", err: &extract.ParseError{Path: "util.go"}, next: extract.New()}
	report, err := New(g, WithExtractor(ex)).Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Removed)
	assert.ErrorIs(t, report.Failures[0], extract.ErrParseFailed)

	_, ok := g.Symbol("util.go#helper")
	assert.True(t, ok)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(graph.NewCodeGraph()).Run(ctx, fixture)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_MissingRoot(t *testing.T) {
	_, err := New(graph.NewCodeGraph()).Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRun_MalformedWorkspaceIsWarning(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ts"), []byte("export const a = 1;\n"), 0o644))

	report, err := New(graph.NewCodeGraph()).Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Extracted)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "workspace")
}

func TestRun_EmitsProgress(t *testing.T) {
	pr := NewProgressReporter()
	defer pr.Close()

	_, err := New(graph.NewCodeGraph(), WithProgress(pr)).Run(context.Background(), fixture)
	require.NoError(t, err)

	events := drain(pr)
	assert.Contains(t, events, Event{Path: "broken.py", Status: StatusExtracted, Message: "partial"})
	assert.Contains(t, events, Event{Path: "main.go", Status: StatusExtracted})
	assert.Contains(t, events, Event{Path: "LICENSE", Status: StatusUnsupported})
	assert.Contains(t, events, Event{Path: "main.go", Status: StatusExtracting})
}

func TestReport_Summary(t *testing.T) {
	r := &Report{Files: 3, Extracted: 1, Unchanged: 1, Failed: 1}
	assert.Equal(t, "3 files: 1 extracted, 1 unchanged, 0 unsupported, 0 skipped, 1 failed, 0 partial, 0 removed", r.Summary())
}
