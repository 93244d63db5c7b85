package normalize

import "github.com/dusk-indust/anchor/internal/lang"

var zigTable = &Table{
	Language: lang.Zig,
	Symbols: map[string]SymbolRule{
		"function_declaration": {Kind: SymbolKindFunction},
		"fn_decl":              {Kind: SymbolKindFunction},
		"variable_declaration": {
			Kind: SymbolKindVariable,
			Refine: map[string]SymbolKind{
				"struct_declaration": SymbolKindType,
				"union_declaration":  SymbolKindType,
				"enum_declaration":   SymbolKindEnum,
				"opaque_declaration": SymbolKindType,
			},
			DeclarationOnly: true,
		},
	},
	References: map[string]ReferenceRule{
		"call_expression": {Kind: ReferenceKindCall},
	},
}
