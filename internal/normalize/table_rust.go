package normalize

import "github.com/dusk-indust/anchor/internal/lang"

var rustTable = &Table{
	Language: lang.Rust,
	Symbols: map[string]SymbolRule{
		"function_item":           {Kind: SymbolKindFunction, NameField: "name"},
		"function_signature_item": {Kind: SymbolKindFunction, NameField: "name"},
		"closure_expression":      {Kind: SymbolKindFunction, Anonymous: true},
		"struct_item":             {Kind: SymbolKindType, NameField: "name"},
		"union_item":              {Kind: SymbolKindType, NameField: "name"},
		"type_item":               {Kind: SymbolKindType, NameField: "name"},
		"enum_item":               {Kind: SymbolKindEnum, NameField: "name"},
		"trait_item":              {Kind: SymbolKindInterface, NameField: "name"},
		"mod_item":                {Kind: SymbolKindModule, NameField: "name"},
		"const_item":              {Kind: SymbolKindConstant, NameField: "name"},
		"static_item":             {Kind: SymbolKindVariable, NameField: "name"},
	},
	References: map[string]ReferenceRule{
		"call_expression":  {Kind: ReferenceKindCall, Target: []string{"function"}},
		"macro_invocation": {Kind: ReferenceKindCall, Target: []string{"macro"}},
		"use_declaration":  {Kind: ReferenceKindImport, Target: []string{"argument"}},
		"impl_item":        {Kind: ReferenceKindImplements, Target: []string{"trait"}},
	},
	Scopes: map[string]string{
		"impl_item": "type",
	},
}
