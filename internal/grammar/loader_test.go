package grammar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"go.uber.org/goleak"

	"github.com/dusk-indust/anchor/internal/lang"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// countingFactory wraps a factory and counts invocations.
func countingFactory(f Factory, n *atomic.Int64) Factory {
	return func() (*tree_sitter.Language, error) {
		n.Add(1)
		return f()
	}
}

// ---------------------------------------------------------------------------
// Builtin grammars
// ---------------------------------------------------------------------------

func TestBuiltin_CoversEveryLanguage(t *testing.T) {
	factories := Builtin()
	for _, l := range lang.All() {
		_, ok := factories[l]
		assert.True(t, ok, "no grammar factory for %s", l)
	}
	assert.Len(t, factories, len(lang.All()))
}

func TestLoader_BuiltinGrammarsInitialize(t *testing.T) {
	loader := NewLoader(Builtin())
	for _, l := range lang.All() {
		h, err := loader.Get(l)
		require.NoError(t, err, "language %s", l)
		require.NotNil(t, h)
		assert.Equal(t, l, h.Language())
		assert.NotNil(t, h.Grammar())
	}
	assert.Equal(t, len(lang.All()), loader.Initializations())
	assert.Equal(t, lang.All(), loader.Languages())
}

func TestLoader_ReturnsCachedHandle(t *testing.T) {
	loader := NewLoader(Builtin())
	first, err := loader.Get(lang.Go)
	require.NoError(t, err)
	second, err := loader.Get(lang.Go)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.Initializations())
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestLoader_ConcurrentFirstRequestsInitializeOnce(t *testing.T) {
	var calls atomic.Int64
	builtin := Builtin()
	factories := map[lang.Language]Factory{
		lang.Go:     countingFactory(builtin[lang.Go], &calls),
		lang.Python: countingFactory(builtin[lang.Python], &calls),
		lang.Rust:   countingFactory(builtin[lang.Rust], &calls),
	}
	loader := NewLoader(factories)

	const workers = 64
	langs := []lang.Language{lang.Go, lang.Python, lang.Rust}
	handles := make([]*Handle, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			h, err := loader.Get(langs[i%len(langs)])
			if err == nil {
				handles[i] = h
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(len(langs)), calls.Load())
	assert.Equal(t, len(langs), loader.Initializations())
	for i, h := range handles {
		require.NotNil(t, h, "worker %d", i)
		assert.Same(t, handles[i%len(langs)], h)
	}
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

func TestLoader_InitFailureIsCachedAndIsolated(t *testing.T) {
	var calls atomic.Int64
	boom := errors.New("shared object missing")
	loader := NewLoader(map[lang.Language]Factory{
		lang.Java: countingFactory(func() (*tree_sitter.Language, error) { return nil, boom }, &calls),
		lang.Go:   Builtin()[lang.Go],
	})

	for i := 0; i < 3; i++ {
		h, err := loader.Get(lang.Java)
		assert.Nil(t, h)
		require.Error(t, err)

		var initErr *InitError
		require.True(t, errors.As(err, &initErr))
		assert.Equal(t, lang.Java, initErr.Language)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "parser init failed for java")
	}
	assert.Equal(t, int64(1), calls.Load(), "failed init must not be retried")

	h, err := loader.Get(lang.Go)
	require.NoError(t, err)
	assert.NotNil(t, h)
}

func TestLoader_PanickingFactory(t *testing.T) {
	loader := NewLoader(map[lang.Language]Factory{
		lang.Ruby: func() (*tree_sitter.Language, error) { panic("bad binding") },
	})

	_, err := loader.Get(lang.Ruby)
	var initErr *InitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, lang.Ruby, initErr.Language)
	assert.Contains(t, err.Error(), "bad binding")
}

func TestLoader_NilGrammar(t *testing.T) {
	loader := NewLoader(map[lang.Language]Factory{
		lang.C: func() (*tree_sitter.Language, error) { return nil, nil },
	})

	_, err := loader.Get(lang.C)
	require.Error(t, err)
	assert.ErrorIs(t, err, errNilBinding)
}

func TestLoader_UnregisteredLanguage(t *testing.T) {
	loader := NewLoader(nil)

	_, err := loader.Get(lang.Zig)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoGrammar)

	var initErr *InitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, lang.Zig, initErr.Language)
}

// ---------------------------------------------------------------------------
// Handle.Parse
// ---------------------------------------------------------------------------

func TestHandle_Parse(t *testing.T) {
	h, err := NewLoader(Builtin()).Get(lang.Go)
	require.NoError(t, err)

	tree := h.Parse(context.Background(), []byte("package main\n\nfunc main() {}\n"))
	require.NotNil(t, tree)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "source_file", root.Kind())
	assert.False(t, root.HasError())
}

func TestHandle_ParseEmptySource(t *testing.T) {
	h, err := NewLoader(Builtin()).Get(lang.Python)
	require.NoError(t, err)

	tree := h.Parse(context.Background(), nil)
	require.NotNil(t, tree)
	defer tree.Close()
	assert.Equal(t, uint(0), tree.RootNode().NamedChildCount())
}

func TestHandle_ParseCanceled(t *testing.T) {
	h, err := NewLoader(Builtin()).Get(lang.Go)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tree := h.Parse(ctx, []byte("package main\n"))
	assert.Nil(t, tree, "a canceled parse produces no tree")
}
