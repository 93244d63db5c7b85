package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dusk-indust/anchor/internal/config"
	"github.com/dusk-indust/anchor/internal/graph"
	"github.com/dusk-indust/anchor/internal/pipeline"
)

// env is the resolved project, configuration, graph and store shared by the
// commands.
type env struct {
	root    string
	cfg     *config.ProjectConfig
	graph   *graph.CodeGraph
	store   graph.Store // nil for the memory store
	stderr  io.Writer
	verbose bool
}

func newEnv(flags cliFlags, stderr io.Writer) (*env, error) {
	root, err := filepath.Abs(flags.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	cfg, err := loadConfig(root, flags)
	if err != nil {
		return nil, err
	}

	store, err := openStore(root, cfg)
	if err != nil {
		return nil, err
	}

	return &env{
		root:    root,
		cfg:     cfg,
		graph:   graph.NewCodeGraph(),
		store:   store,
		stderr:  stderr,
		verbose: flags.Verbose,
	}, nil
}

// loadConfig reads the project config and applies flag overrides.
func loadConfig(root string, flags cliFlags) (*config.ProjectConfig, error) {
	var cfg *config.ProjectConfig
	var err error
	if flags.Config != "" {
		cfg, err = config.LoadFile(flags.Config)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flags.Store != "" {
		cfg.Store = flags.Store
	}
	if flags.StorePath != "" {
		cfg.StorePath = flags.StorePath
	}
	if flags.Workers > 0 {
		cfg.Workers = flags.Workers
	}
	if flags.Timeout > 0 {
		cfg.ParseTimeout = config.Duration(flags.Timeout)
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured persistent store, or returns nil for the
// memory store.
func openStore(root string, cfg *config.ProjectConfig) (graph.Store, error) {
	dir := cfg.StorePath
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	switch cfg.Store {
	case config.StoreBolt:
		return graph.NewBoltStore(filepath.Join(dir, "graph.db"))
	case config.StoreKuzu:
		return openKuzuStore(filepath.Join(dir, "graph.kuzu"))
	}
	return nil, nil
}

func (e *env) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// load replays the persistent store into the graph. The memory store has
// nothing to replay.
func (e *env) load(ctx context.Context) error {
	src, ok := e.store.(graph.FileSource)
	if !ok {
		return nil
	}
	if err := e.store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	n, err := graph.Load(ctx, src, e.graph)
	if err != nil {
		return err
	}
	if e.verbose && n > 0 {
		fmt.Fprintf(e.stderr, "loaded %d files from %s store\n", n, e.cfg.Store)
	}
	return nil
}

// index brings the graph up to date with the project tree. A persistent
// store is replayed first so unchanged files are not extracted again, and
// receives the result afterwards.
func (e *env) index(ctx context.Context) (*pipeline.Report, error) {
	if err := e.load(ctx); err != nil {
		return nil, err
	}

	opts := pipeline.ConfigOptions(e.cfg)
	var done chan struct{}
	var pr *pipeline.ProgressReporter
	if e.verbose {
		pr = pipeline.NewProgressReporter()
		done = make(chan struct{})
		go func() {
			defer close(done)
			for ev := range pr.Subscribe() {
				fmt.Fprintln(e.stderr, pipeline.FormatProgress(ev))
			}
		}()
		opts = append(opts, pipeline.WithProgress(pr))
	}

	start := time.Now()
	report, err := pipeline.New(e.graph, opts...).Run(ctx, e.root)
	if pr != nil {
		pr.Close()
		<-done
	}
	if err != nil {
		return nil, err
	}
	if e.verbose {
		fmt.Fprintf(e.stderr, "indexed in %s\n", time.Since(start).Round(time.Millisecond))
	}

	if e.store != nil {
		if err := graph.Persist(ctx, e.store, e.graph); err != nil {
			return nil, err
		}
	}
	return report, nil
}
