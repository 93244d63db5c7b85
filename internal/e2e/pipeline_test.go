//go:build e2e

package e2e

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/anchor/internal/graph"
	"github.com/dusk-indust/anchor/internal/pipeline"
)

func upstream(t *testing.T, s graph.Store, node string) []string {
	t.Helper()
	chains, err := s.GetDependencies(context.Background(), node, graph.DirectionUpstream, 1)
	require.NoError(t, err)
	var out []string
	for _, c := range chains {
		out = append(out, c.Nodes[len(c.Nodes)-1])
	}
	return out
}

// TestPipeline_E2E_TSMonorepo indexes a workspace monorepo and checks that
// package imports, subpath exports and relative imports all link to files.
func TestPipeline_E2E_TSMonorepo(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pr := pipeline.NewProgressReporter()
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for range pr.Subscribe() {
		}
	}()

	g := graph.NewCodeGraph()
	report, err := pipeline.New(g, pipeline.WithWorkers(4), pipeline.WithProgress(pr)).Run(ctx, fixtureDir("ts_monorepo"))
	pr.Close()
	<-drainDone
	require.NoError(t, err)

	assert.Equal(t, 5, report.Extracted)
	assert.Zero(t, report.Failed)
	assert.Empty(t, report.Warnings)

	assert.ElementsMatch(t, []string{
		"packages/db/src/index.ts",
		"packages/db/src/queries.ts",
		"packages/logger/src/index.ts",
		"src/utils.ts",
	}, upstream(t, g, "src/app.ts"))
}

// TestPipeline_E2E_BoltRoundTrip persists an indexed graph, reopens the
// store and replays it into a fresh graph.
func TestPipeline_E2E_BoltRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := fixtureDir("go_project")
	dbPath := filepath.Join(t.TempDir(), "graph.db")

	g := graph.NewCodeGraph()
	_, err := pipeline.New(g).Run(ctx, root)
	require.NoError(t, err)
	assert.Contains(t, upstream(t, g, "service.go"), "model.go")

	store, err := graph.NewBoltStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, graph.Persist(ctx, store, g))
	require.NoError(t, store.Close())

	store, err = graph.NewBoltStore(dbPath)
	require.NoError(t, err)
	defer store.Close()
	assert.Contains(t, upstream(t, store, "service.go"), "model.go")

	restored := graph.NewCodeGraph()
	n, err := graph.Load(ctx, store, restored)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, g.Snapshot(), restored.Snapshot())

	// Nothing changed on disk, so a run over the restored graph extracts
	// nothing.
	report, err := pipeline.New(restored).Run(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Unchanged)
	assert.Zero(t, report.Extracted)
}
