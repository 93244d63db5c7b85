// Package extract drives a grammar over file content and turns the syntax
// tree into language-independent symbol records and reference edges. It
// performs no IO: content is supplied by the caller.
package extract

import (
	"bytes"
	"context"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/dusk-indust/anchor/internal/grammar"
	"github.com/dusk-indust/anchor/internal/lang"
	"github.com/dusk-indust/anchor/internal/normalize"
)

// GrammarSource supplies parse handles. *grammar.Loader implements it.
type GrammarSource interface {
	Get(language lang.Language) (*grammar.Handle, error)
}

// Extractor extracts symbols from single files. It holds no per-file state
// and is safe for concurrent use.
type Extractor struct {
	grammars GrammarSource
	timeout  time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithGrammars sets the grammar source. The default is grammar.Default.
func WithGrammars(g GrammarSource) Option {
	return func(e *Extractor) { e.grammars = g }
}

// WithTimeout bounds each parse. Zero means no bound beyond the caller's
// context.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{grammars: grammar.Default}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = New()

// File extracts path using the process-wide grammar cache.
func File(ctx context.Context, path string, content []byte) (*Result, error) {
	return defaultExtractor.Extract(ctx, path, content)
}

// parsedFile is the per-call view of one source file.
type parsedFile struct {
	path     string
	source   []byte
	language lang.Language
}

// Extract parses content as the language resolved from path and returns its
// symbols and references. It fails with *UnsupportedLanguageError when no
// grammar is registered, *grammar.InitError when the grammar cannot be
// built, and *ParseError when no tree is produced. Syntax errors inside the
// file are tolerated and reported through Result.File.
func (e *Extractor) Extract(ctx context.Context, path string, content []byte) (*Result, error) {
	language, ok := lang.Detect(path, content)
	if !ok {
		return nil, &UnsupportedLanguageError{Path: path}
	}
	table, ok := normalize.Lookup(language)
	if !ok {
		return nil, &UnsupportedLanguageError{Path: path}
	}

	handle, err := e.grammars.Get(language)
	if err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	file := parsedFile{path: path, source: content, language: language}
	tree := handle.Parse(ctx, file.source)
	if tree == nil {
		return nil, &ParseError{Path: path, Err: ctx.Err()}
	}
	defer tree.Close()

	root := tree.RootNode()
	w := newWalker(table, file)
	cursor := root.Walk()
	w.walk(cursor)
	cursor.Close()

	return &Result{
		Path:     path,
		Language: language,
		File: FileInfo{
			LOC:          countLOC(content),
			ContentHash:  xxhash.Sum64(content),
			ErrorRegions: w.errorRegions,
			Partial:      root.HasError(),
		},
		Symbols:    w.symbols,
		References: w.refs,
	}, nil
}

// countLOC counts newline bytes, plus one for a final unterminated line.
func countLOC(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := bytes.Count(source, []byte{'\n'})
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}
