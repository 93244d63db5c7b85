package grammar

import (
	"context"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/anchor/internal/lang"
)

// Handle is a validated grammar for one language. It is immutable and safe
// to share; each Parse call creates its own parser.
type Handle struct {
	language lang.Language
	grammar  *tree_sitter.Language
}

// Language returns the language this handle parses.
func (h *Handle) Language() lang.Language { return h.language }

// Grammar returns the underlying tree-sitter language.
func (h *Handle) Grammar() *tree_sitter.Language { return h.grammar }

// Parse parses source and returns the syntax tree, or nil when no tree was
// produced. Parsing stops early once ctx is done. The caller owns the
// returned tree and must Close it.
func (h *Handle) Parse(ctx context.Context, source []byte) *tree_sitter.Tree {
	if ctx.Err() != nil {
		return nil
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(h.grammar); err != nil {
		return nil
	}

	read := func(offset int, _ tree_sitter.Point) []byte {
		if offset >= len(source) {
			return nil
		}
		return source[offset:]
	}
	opts := &tree_sitter.ParseOptions{
		ProgressCallback: func(tree_sitter.ParseState) bool {
			return ctx.Err() != nil
		},
	}
	return parser.ParseWithOptions(read, nil, opts)
}
