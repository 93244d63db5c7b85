package normalize

import "github.com/dusk-indust/anchor/internal/lang"

var rubyTable = &Table{
	Language: lang.Ruby,
	Symbols: map[string]SymbolRule{
		"module":           {Kind: SymbolKindModule, NameField: "name"},
		"class":            {Kind: SymbolKindClass, NameField: "name"},
		"method":           {Kind: SymbolKindFunction, NameField: "name"},
		"singleton_method": {Kind: SymbolKindMethod, NameField: "name"},
		"lambda":           {Kind: SymbolKindFunction, Anonymous: true},
		"assignment": {
			Kind:            SymbolKindVariable,
			NameField:       "left",
			RefineField:     "left",
			Refine:          map[string]SymbolKind{"constant": SymbolKindConstant},
			DeclarationOnly: true,
		},
	},
	References: map[string]ReferenceRule{
		"call": {Kind: ReferenceKindCall, Target: []string{"receiver", "method"}},
		"superclass": {
			Kind: ReferenceKindExtends,
			Each: true,
			Only: []string{"constant", "scope_resolution"},
		},
	},
}
