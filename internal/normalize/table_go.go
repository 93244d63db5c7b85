package normalize

import (
	"unicode"
	"unicode/utf8"

	"github.com/dusk-indust/anchor/internal/lang"
)

var goTable = &Table{
	Language: lang.Go,
	Symbols: map[string]SymbolRule{
		"package_clause":       {Kind: SymbolKindModule},
		"function_declaration": {Kind: SymbolKindFunction, NameField: "name"},
		"method_declaration":   {Kind: SymbolKindMethod, NameField: "name", Qualifier: "receiver"},
		"func_literal":         {Kind: SymbolKindFunction, Anonymous: true},
		"type_spec": {
			Kind:        SymbolKindType,
			NameField:   "name",
			RefineField: "type",
			Refine:      map[string]SymbolKind{"interface_type": SymbolKindInterface},
		},
		"type_alias":  {Kind: SymbolKindType, NameField: "name"},
		"method_elem": {Kind: SymbolKindMethod, NameField: "name"},
		"method_spec": {Kind: SymbolKindMethod, NameField: "name"},
		"const_spec":  {Kind: SymbolKindConstant, NameField: "name", EachName: true, DeclarationOnly: true},
		"var_spec":    {Kind: SymbolKindVariable, NameField: "name", EachName: true, DeclarationOnly: true},
	},
	References: map[string]ReferenceRule{
		"call_expression": {Kind: ReferenceKindCall, Target: []string{"function"}},
		"import_spec":     {Kind: ReferenceKindImport, Target: []string{"path"}},
	},
	Exported: isGoExported,
}

// isGoExported reports whether name starts with an upper-case letter.
func isGoExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && unicode.IsUpper(r)
}
