// Package grammar owns the process-wide cache of tree-sitter grammars. The
// first request for a language constructs and validates its binding; every
// later request gets the cached handle. Failures are cached as well: a
// grammar that cannot be built is a build or configuration problem and is
// never retried.
package grammar

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/singleflight"

	"github.com/dusk-indust/anchor/internal/lang"
)

// ErrNoGrammar is wrapped by InitError when no factory is registered for the
// requested language.
var ErrNoGrammar = errors.New("no grammar registered")

var errNilBinding = errors.New("grammar binding returned nil language pointer")

// Factory constructs the raw grammar for one language.
type Factory func() (*tree_sitter.Language, error)

// InitError reports that a grammar could not be initialized.
type InitError struct {
	Language lang.Language
	Err      error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("parser init failed for %s: %v", e.Language, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// entry is a settled cache slot: exactly one of handle or err is set.
type entry struct {
	handle *Handle
	err    error
}

// Loader caches one validated grammar per language. It is safe for
// concurrent use; readers of settled entries only take a read lock, and
// concurrent first requests for the same language share one construction.
type Loader struct {
	factories map[lang.Language]Factory

	mu      sync.RWMutex
	entries map[lang.Language]*entry

	group singleflight.Group
	inits atomic.Int64
}

// NewLoader creates a Loader over the given factories. The map is copied.
func NewLoader(factories map[lang.Language]Factory) *Loader {
	fs := make(map[lang.Language]Factory, len(factories))
	for l, f := range factories {
		fs[l] = f
	}
	return &Loader{
		factories: fs,
		entries:   make(map[lang.Language]*entry),
	}
}

// Default is the process-wide loader over the builtin grammars.
var Default = NewLoader(Builtin())

// Get returns the handle for language from the Default loader.
func Get(language lang.Language) (*Handle, error) {
	return Default.Get(language)
}

// Get returns the cached handle for language, constructing it on first use.
// A failed construction is returned as *InitError on every call.
func (l *Loader) Get(language lang.Language) (*Handle, error) {
	if e, ok := l.lookup(language); ok {
		return e.handle, e.err
	}

	v, _, _ := l.group.Do(string(language), func() (any, error) {
		// A previous flight may have settled between lookup and Do.
		if e, ok := l.lookup(language); ok {
			return e, nil
		}
		e := l.construct(language)
		l.mu.Lock()
		l.entries[language] = e
		l.mu.Unlock()
		return e, nil
	})
	e := v.(*entry)
	return e.handle, e.err
}

// Initializations returns how many grammar constructions have run.
func (l *Loader) Initializations() int {
	return int(l.inits.Load())
}

// Languages returns the languages this loader has factories for.
func (l *Loader) Languages() []lang.Language {
	out := make([]lang.Language, 0, len(l.factories))
	for _, language := range lang.All() {
		if _, ok := l.factories[language]; ok {
			out = append(out, language)
		}
	}
	return out
}

func (l *Loader) lookup(language lang.Language) (*entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[language]
	return e, ok
}

// construct builds and validates one grammar. Panics from the binding are
// converted to errors so one broken grammar cannot take the process down.
func (l *Loader) construct(language lang.Language) (e *entry) {
	l.inits.Add(1)

	fail := func(err error) *entry {
		return &entry{err: &InitError{Language: language, Err: err}}
	}

	factory, ok := l.factories[language]
	if !ok {
		return fail(ErrNoGrammar)
	}

	defer func() {
		if r := recover(); r != nil {
			e = fail(fmt.Errorf("panic: %v", r))
		}
	}()

	grammar, err := factory()
	if err != nil {
		return fail(err)
	}
	if grammar == nil {
		return fail(errNilBinding)
	}
	if err := validate(grammar); err != nil {
		return fail(err)
	}
	return &entry{handle: &Handle{language: language, grammar: grammar}}
}

// validate checks ABI compatibility by loading the grammar into a throwaway
// parser.
func validate(grammar *tree_sitter.Language) error {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(grammar); err != nil {
		return fmt.Errorf("incompatible grammar: %w", err)
	}
	return nil
}
