package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/anchor/internal/lang"
)

// ---------------------------------------------------------------------------
// Table coverage
// ---------------------------------------------------------------------------

func TestLookup_EveryLanguageHasTable(t *testing.T) {
	for _, l := range lang.All() {
		tbl, ok := Lookup(l)
		require.True(t, ok, "no table for %s", l)
		assert.Equal(t, l, tbl.Language)
		assert.NotEmpty(t, tbl.Symbols, "%s has no symbol rules", l)
		assert.NotEmpty(t, tbl.References, "%s has no reference rules", l)
	}
}

func TestTables_RulesAreWellFormed(t *testing.T) {
	for _, l := range lang.All() {
		tbl, _ := Lookup(l)
		for kind, rule := range tbl.Symbols {
			assert.NotEmpty(t, rule.Kind, "%s/%s: empty symbol kind", l, kind)
			if rule.RefineField != "" {
				assert.NotEmpty(t, rule.Refine, "%s/%s: refine field without table", l, kind)
			}
		}
		for kind, rule := range tbl.Symbols {
			if rule.EachName {
				assert.NotEmpty(t, rule.NameField, "%s/%s: EachName without name field", l, kind)
			}
		}
		for kind, rule := range tbl.References {
			assert.NotEmpty(t, rule.Kind, "%s/%s: empty reference kind", l, kind)
			if !rule.Each {
				assert.Empty(t, rule.Only, "%s/%s: Only requires Each", l, kind)
				assert.Empty(t, rule.Flatten, "%s/%s: Flatten requires Each", l, kind)
				assert.Empty(t, rule.Skip, "%s/%s: Skip requires Each", l, kind)
				assert.Empty(t, rule.Unwrap, "%s/%s: Unwrap requires Each", l, kind)
			}
		}
		for kind, field := range tbl.Scopes {
			assert.NotEmpty(t, field, "%s/%s: scope without qualifier field", l, kind)
		}
	}
}

func TestJavaScriptTable(t *testing.T) {
	tbl, ok := Lookup(lang.JavaScript)
	require.True(t, ok)
	_, ok = tbl.Symbol("function_declaration")
	assert.True(t, ok)
	_, ok = tbl.Symbol("class_declaration")
	assert.True(t, ok)
	_, ok = tbl.Reference("class_heritage", "")
	assert.True(t, ok)
}

func TestTypeScriptAndTSXShareRules(t *testing.T) {
	ts, _ := Lookup(lang.TypeScript)
	tsx, _ := Lookup(lang.TSX)
	assert.Equal(t, ts.Symbols, tsx.Symbols)
	assert.Equal(t, ts.References, tsx.References)
	assert.NotSame(t, ts, tsx)
}

// ---------------------------------------------------------------------------
// Classify
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	tests := []struct {
		language lang.Language
		nodeKind string
		want     SymbolKind
		wantOK   bool
	}{
		{lang.Go, "function_declaration", SymbolKindFunction, true},
		{lang.Go, "method_declaration", SymbolKindMethod, true},
		{lang.Go, "type_spec", SymbolKindType, true},
		{lang.Go, "package_clause", SymbolKindModule, true},
		{lang.Python, "class_definition", SymbolKindClass, true},
		{lang.Python, "lambda", SymbolKindFunction, true},
		{lang.TypeScript, "interface_declaration", SymbolKindInterface, true},
		{lang.TSX, "enum_declaration", SymbolKindEnum, true},
		{lang.JavaScript, "arrow_function", SymbolKindFunction, true},
		{lang.Rust, "trait_item", SymbolKindInterface, true},
		{lang.Java, "constructor_declaration", SymbolKindMethod, true},
		{lang.C, "preproc_def", SymbolKindConstant, true},
		{lang.Cpp, "class_specifier", SymbolKindClass, true},
		{lang.CSharp, "namespace_declaration", SymbolKindModule, true},
		{lang.Ruby, "module", SymbolKindModule, true},
		{lang.PHP, "trait_declaration", SymbolKindType, true},
		{lang.Zig, "function_declaration", SymbolKindFunction, true},

		// Structural kinds are non-symbols, never errors.
		{lang.Go, "block", "", false},
		{lang.Python, "if_statement", "", false},
		{lang.JavaScript, "interface_declaration", "", false},
		{lang.C, "class_specifier", "", false},
		{"cobol", "paragraph", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.language)+"/"+tt.nodeKind, func(t *testing.T) {
			got, ok := Classify(tt.language, tt.nodeKind)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyReference(t *testing.T) {
	tests := []struct {
		language lang.Language
		nodeKind string
		want     ReferenceKind
		wantOK   bool
	}{
		{lang.Go, "call_expression", ReferenceKindCall, true},
		{lang.Go, "import_spec", ReferenceKindImport, true},
		{lang.Python, "import_from_statement", ReferenceKindImport, true},
		{lang.Python, "argument_list", ReferenceKindExtends, true},
		{lang.TypeScript, "implements_clause", ReferenceKindImplements, true},
		{lang.Java, "super_interfaces", ReferenceKindImplements, true},
		{lang.Rust, "use_declaration", ReferenceKindImport, true},
		{lang.C, "preproc_include", ReferenceKindImport, true},
		{lang.Go, "selector_expression", "", false},
		{"cobol", "call", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.language)+"/"+tt.nodeKind, func(t *testing.T) {
			got, ok := ClassifyReference(tt.language, tt.nodeKind)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_ReferenceFieldRestriction(t *testing.T) {
	py, _ := Lookup(lang.Python)

	rule, ok := py.Reference("argument_list", "superclasses")
	require.True(t, ok)
	assert.Equal(t, ReferenceKindExtends, rule.Kind)

	_, ok = py.Reference("argument_list", "arguments")
	assert.False(t, ok, "call arguments are not superclasses")

	_, ok = py.Reference("argument_list", "")
	assert.False(t, ok)
}

func TestTable_Scope(t *testing.T) {
	rs, _ := Lookup(lang.Rust)
	field, ok := rs.Scope("impl_item")
	require.True(t, ok)
	assert.Equal(t, "type", field)

	goTbl, _ := Lookup(lang.Go)
	_, ok = goTbl.Scope("impl_item")
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Visibility
// ---------------------------------------------------------------------------

func TestTable_IsExported(t *testing.T) {
	tests := []struct {
		language lang.Language
		name     string
		want     bool
	}{
		{lang.Go, "NewUserService", true},
		{lang.Go, "newUser", false},
		{lang.Go, "Ünicode", true},
		{lang.Go, "_", false},
		{lang.Python, "public_fn", true},
		{lang.Python, "_private", false},
		{lang.Python, "__init__", true},
		{lang.Python, "__mangled", false},
		{lang.JavaScript, "render", true},
		{lang.JavaScript, "_internal", false},
		{lang.TypeScript, "#secret", false},
		{lang.Rust, "anything", true},
		{lang.Ruby, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.language)+"/"+tt.name, func(t *testing.T) {
			tbl, ok := Lookup(tt.language)
			require.True(t, ok)
			assert.Equal(t, tt.want, tbl.IsExported(tt.name))
		})
	}
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, SymbolKindFunction.Callable())
	assert.True(t, SymbolKindMethod.Callable())
	assert.False(t, SymbolKindClass.Callable())

	assert.True(t, SymbolKindClass.TypeLike())
	assert.True(t, SymbolKindInterface.TypeLike())
	assert.False(t, SymbolKindModule.TypeLike())
	assert.False(t, SymbolKindVariable.TypeLike())

	assert.True(t, ReferenceKindExtends.Inheritance())
	assert.True(t, ReferenceKindImplements.Inheritance())
	assert.False(t, ReferenceKindCall.Inheritance())
}
