package normalize

import (
	"strings"

	"github.com/dusk-indust/anchor/internal/lang"
)

// SymbolRule describes how one node kind becomes a symbol.
type SymbolRule struct {
	Kind SymbolKind

	// NameField is the field holding the name. When empty the first
	// identifier-like child is used, unless Anonymous is set.
	NameField string

	// EachName emits one record per child at NameField, for declarations
	// that introduce several names at once.
	EachName bool

	// Qualifier names a field whose type name prefixes the qualified name,
	// e.g. a Go method receiver.
	Qualifier string

	// Anonymous allows the construct to have no name.
	Anonymous bool

	// Refine overrides Kind by the node kind found at RefineField, or at any
	// direct named child when RefineField is empty.
	Refine      map[string]SymbolKind
	RefineField string

	// Require is a field that must be present, e.g. a struct body, so that
	// forward declarations and type uses are not symbols.
	Require string

	// DeclarationOnly rules are ignored inside function and method bodies.
	DeclarationOnly bool
}

// ReferenceRule describes how one node kind becomes reference edges.
type ReferenceRule struct {
	Kind ReferenceKind

	// Target lists fields whose texts are joined with "." to form the
	// target name. When empty the first named child is used.
	Target []string

	// Field restricts the rule to nodes found at this field of their parent.
	Field string

	// Each emits one edge per named child. Only filters those children by
	// kind; Flatten names wrapper kinds whose own children are used instead.
	Each    bool
	Only    []string
	Flatten []string

	// Skip lists fields of the node whose children are never targets, such
	// as the alias in a C# using directive.
	Skip []string

	// Unwrap maps a child kind to the field holding the actual target, e.g.
	// the module path inside a Python aliased import. Children of other
	// kinds are used whole, so qualified names keep their qualifier.
	Unwrap map[string]string
}

// Table is the static mapping for one language.
type Table struct {
	Language lang.Language

	Symbols    map[string]SymbolRule
	References map[string]ReferenceRule

	// Scopes are node kinds that qualify nested names without being symbols
	// themselves, mapped to the field holding the qualifying type.
	Scopes map[string]string

	// Exported decides visibility from the name. Nil means the conventional
	// leading-underscore rule.
	Exported func(name string) bool
}

// Symbol returns the symbol rule for a node kind.
func (t *Table) Symbol(kind string) (SymbolRule, bool) {
	r, ok := t.Symbols[kind]
	return r, ok
}

// Reference returns the reference rule for a node kind found at field of
// its parent (empty for none).
func (t *Table) Reference(kind, field string) (ReferenceRule, bool) {
	r, ok := t.References[kind]
	if !ok || (r.Field != "" && r.Field != field) {
		return ReferenceRule{}, false
	}
	return r, true
}

// Scope returns the qualifier field for a scope node kind.
func (t *Table) Scope(kind string) (string, bool) {
	f, ok := t.Scopes[kind]
	return f, ok
}

// IsExported applies the table's visibility rule.
func (t *Table) IsExported(name string) bool {
	if t.Exported != nil {
		return t.Exported(name)
	}
	return conventionallyPublic(name)
}

func conventionallyPublic(name string) bool {
	return name != "" && !strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "#")
}

var tables = map[lang.Language]*Table{
	lang.Go:         goTable,
	lang.Python:     pythonTable,
	lang.TypeScript: typeScriptTable(lang.TypeScript),
	lang.TSX:        typeScriptTable(lang.TSX),
	lang.JavaScript: javaScriptTable,
	lang.Rust:       rustTable,
	lang.Java:       javaTable,
	lang.C:          cTable,
	lang.Cpp:        cppTable,
	lang.CSharp:     cSharpTable,
	lang.Ruby:       rubyTable,
	lang.PHP:        phpTable,
	lang.Zig:        zigTable,
}

// Lookup returns the table for a language.
func Lookup(l lang.Language) (*Table, bool) {
	t, ok := tables[l]
	return t, ok
}

// Classify maps a node kind to a symbol kind. Unmapped kinds are
// non-symbols, not errors.
func Classify(l lang.Language, nodeKind string) (SymbolKind, bool) {
	t, ok := tables[l]
	if !ok {
		return "", false
	}
	r, ok := t.Symbols[nodeKind]
	return r.Kind, ok
}

// ClassifyReference maps a node kind to a reference kind, ignoring any
// parent-field restriction on the rule.
func ClassifyReference(l lang.Language, nodeKind string) (ReferenceKind, bool) {
	t, ok := tables[l]
	if !ok {
		return "", false
	}
	r, ok := t.References[nodeKind]
	return r.Kind, ok
}
