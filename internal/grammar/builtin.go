package grammar

import (
	"unsafe"

	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/dusk-indust/anchor/internal/lang"
)

// Builtin returns the statically linked grammar factories, one per
// supported language.
func Builtin() map[lang.Language]Factory {
	return map[lang.Language]Factory{
		lang.Go:         binding(tree_sitter_go.Language),
		lang.Python:     binding(tree_sitter_python.Language),
		lang.TypeScript: binding(tree_sitter_typescript.LanguageTypescript),
		lang.TSX:        binding(tree_sitter_typescript.LanguageTSX),
		lang.JavaScript: binding(tree_sitter_javascript.Language),
		lang.Rust:       binding(tree_sitter_rust.Language),
		lang.Java:       binding(tree_sitter_java.Language),
		lang.C:          binding(tree_sitter_c.Language),
		lang.Cpp:        binding(tree_sitter_cpp.Language),
		lang.CSharp:     binding(tree_sitter_csharp.Language),
		lang.Ruby:       binding(tree_sitter_ruby.Language),
		lang.PHP:        binding(tree_sitter_php.LanguagePHP),
		lang.Zig:        binding(tree_sitter_zig.Language),
	}
}

// binding adapts a generated grammar entry point to a Factory.
func binding(ptr func() unsafe.Pointer) Factory {
	return func() (*tree_sitter.Language, error) {
		p := ptr()
		if p == nil {
			return nil, errNilBinding
		}
		return tree_sitter.NewLanguage(p), nil
	}
}
