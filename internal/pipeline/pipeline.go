// Package pipeline indexes a project directory: it discovers source files,
// extracts them in parallel and merges the results into a code graph.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/anchor/internal/config"
	"github.com/dusk-indust/anchor/internal/extract"
	"github.com/dusk-indust/anchor/internal/grammar"
	"github.com/dusk-indust/anchor/internal/graph"
	"github.com/dusk-indust/anchor/internal/lang"
)

// Extractor turns file content into symbols. *extract.Extractor implements it.
type Extractor interface {
	Extract(ctx context.Context, path string, content []byte) (*extract.Result, error)
}

// FileError records why one file could not be extracted.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e FileError) Error() string { return e.Path + ": " + e.Message }

func (e FileError) Unwrap() error { return e.Err }

// Report summarizes one run. Counts are per file.
type Report struct {
	Files       int         `json:"files"`
	Extracted   int         `json:"extracted"`
	Unchanged   int         `json:"unchanged"`
	Unsupported int         `json:"unsupported"`
	Skipped     int         `json:"skipped"`
	Failed      int         `json:"failed"`
	Partial     int         `json:"partial"`
	Removed     int         `json:"removed"`
	Failures    []FileError `json:"failures,omitempty"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// Pipeline indexes directories into a CodeGraph. A Pipeline may be reused;
// runs against the same graph are incremental.
type Pipeline struct {
	graph       *graph.CodeGraph
	extractor   Extractor
	workers     int
	excludes    []string
	languages   map[lang.Language]bool
	maxFileSize int64
	progress    *ProgressReporter
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds the number of files extracted concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithExcludes sets doublestar globs matched against slash-separated paths
// relative to the root.
func WithExcludes(patterns ...string) Option {
	return func(p *Pipeline) { p.excludes = patterns }
}

// WithLanguages restricts extraction to the given languages. No languages
// means all.
func WithLanguages(languages ...lang.Language) Option {
	return func(p *Pipeline) {
		p.languages = nil
		if len(languages) == 0 {
			return
		}
		p.languages = make(map[lang.Language]bool, len(languages))
		for _, l := range languages {
			p.languages[l] = true
		}
	}
}

// WithMaxFileSize skips files larger than n bytes. Zero disables the cap.
func WithMaxFileSize(n int64) Option {
	return func(p *Pipeline) { p.maxFileSize = n }
}

// WithExtractor replaces the default extractor.
func WithExtractor(e Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithProgress emits one event per file to pr. The pipeline never closes pr.
func WithProgress(pr *ProgressReporter) Option {
	return func(p *Pipeline) { p.progress = pr }
}

// ConfigOptions translates a validated project config into options.
func ConfigOptions(cfg *config.ProjectConfig) []Option {
	return []Option{
		WithWorkers(cfg.Workers),
		WithExcludes(cfg.Excludes()...),
		WithLanguages(cfg.EnabledLanguages()...),
		WithMaxFileSize(cfg.MaxFileSize),
		WithExtractor(extract.New(
			extract.WithGrammars(grammar.Default),
			extract.WithTimeout(time.Duration(cfg.ParseTimeout)),
		)),
	}
}

// New creates a Pipeline merging into g.
func New(g *graph.CodeGraph, opts ...Option) *Pipeline {
	p := &Pipeline{
		graph:       g,
		extractor:   extract.New(),
		excludes:    config.DefaultExcludes,
		maxFileSize: config.DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers <= 0 {
		p.workers = 1
	}
	return p
}

// Graph returns the graph the pipeline merges into.
func (p *Pipeline) Graph() *graph.CodeGraph { return p.graph }

type outcome int

const (
	outcomeExtracted outcome = iota
	outcomeUnchanged
	outcomeUnsupported
	outcomeSkipped
	outcomeFailed
)

type fileResult struct {
	path    string
	outcome outcome
	partial bool
	err     error
}

// Run indexes every file under root. Per-file failures are recorded in the
// report and never stop the run; only context cancellation does. Files that
// were in the graph but are no longer found are removed.
func (p *Pipeline) Run(ctx context.Context, root string) (*Report, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	report := &Report{}

	ws, err := graph.LoadWorkspace(root)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("workspace: %v", err))
	}
	p.graph.SetWorkspace(ws)

	paths, skipped, err := p.discover(ctx, root)
	if err != nil {
		return nil, err
	}
	for _, path := range skipped {
		p.emit(Event{Path: path, Status: StatusSkipped, Message: "over size cap"})
	}

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.emit(Event{Path: path, Status: StatusExtracting})
			results[i] = p.process(gctx, root, path)
			if err := gctx.Err(); err != nil {
				return err
			}
			p.report(results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("index %s: %w", root, err)
	}

	report.Files = len(paths) + len(skipped)
	report.Skipped = len(skipped)
	present := make(map[string]bool, len(paths))
	for _, r := range results {
		switch r.outcome {
		case outcomeExtracted:
			report.Extracted++
			present[r.path] = true
		case outcomeUnchanged:
			report.Unchanged++
			present[r.path] = true
		case outcomeUnsupported:
			report.Unsupported++
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Failed++
			// A failed file keeps its previous contribution.
			present[r.path] = true
			report.Failures = append(report.Failures, FileError{Path: r.path, Message: r.err.Error(), Err: r.err})
		}
		if r.partial {
			report.Partial++
		}
	}

	for _, f := range p.graph.Files() {
		if present[f.Path] {
			continue
		}
		if p.graph.Remove(f.Path) {
			report.Removed++
			p.emit(Event{Path: f.Path, Status: StatusRemoved})
		}
	}
	return report, nil
}

// process reads, hashes and extracts one file.
func (p *Pipeline) process(ctx context.Context, root, path string) fileResult {
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		return fileResult{path: path, outcome: outcomeFailed, err: fmt.Errorf("read: %w", err)}
	}
	language, ok := lang.Detect(path, content)
	if !ok {
		return fileResult{path: path, outcome: outcomeUnsupported}
	}
	if p.languages != nil && !p.languages[language] {
		return fileResult{path: path, outcome: outcomeSkipped}
	}
	if prev, ok := p.graph.File(path); ok && prev.ContentHash == xxhash.Sum64(content) {
		return fileResult{path: path, outcome: outcomeUnchanged, partial: prev.Partial}
	}

	res, err := p.extractor.Extract(ctx, path, content)
	switch {
	case extract.IsUnsupported(err):
		return fileResult{path: path, outcome: outcomeUnsupported}
	case err != nil:
		return fileResult{path: path, outcome: outcomeFailed, err: err}
	}
	p.graph.Merge(path, res)
	return fileResult{path: path, outcome: outcomeExtracted, partial: res.File.Partial}
}

func (p *Pipeline) report(r fileResult) {
	switch r.outcome {
	case outcomeExtracted:
		msg := ""
		if r.partial {
			msg = "partial"
		}
		p.emit(Event{Path: r.path, Status: StatusExtracted, Message: msg})
	case outcomeUnchanged:
		p.emit(Event{Path: r.path, Status: StatusUnchanged})
	case outcomeUnsupported:
		p.emit(Event{Path: r.path, Status: StatusUnsupported})
	case outcomeSkipped:
		p.emit(Event{Path: r.path, Status: StatusSkipped, Message: "language disabled"})
	case outcomeFailed:
		p.emit(Event{Path: r.path, Status: StatusFailed, Message: r.err.Error()})
	}
}

// discover walks root and returns candidate paths in walk order plus the
// paths skipped up front. Paths are slash-separated and relative to root.
// Files with an unregistered extension are not candidates; files without an
// extension are, so their shebang can be sniffed.
func (p *Pipeline) discover(ctx context.Context, root string) (paths, skipped []string, err error) {
	err = filepath.WalkDir(root, func(abs string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if abs == root {
				return walkErr
			}
			// Unreadable entries are left out of the index.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if p.excluded(rel + "/x") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || p.excluded(rel) {
			return nil
		}
		if _, ok := lang.Resolve(rel); !ok && filepath.Ext(rel) != "" {
			return nil
		}
		if p.maxFileSize > 0 {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.Size() > p.maxFileSize {
				skipped = append(skipped, rel)
				return nil
			}
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, skipped, nil
}

func (p *Pipeline) excluded(rel string) bool {
	for _, pattern := range p.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (p *Pipeline) emit(ev Event) {
	p.progress.Emit(ev)
}

// Summary formats the report counts on one line.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d files: %d extracted, %d unchanged, %d unsupported, %d skipped, %d failed, %d partial, %d removed",
		r.Files, r.Extracted, r.Unchanged, r.Unsupported, r.Skipped, r.Failed, r.Partial, r.Removed)
}
