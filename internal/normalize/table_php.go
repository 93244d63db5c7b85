package normalize

import "github.com/dusk-indust/anchor/internal/lang"

var phpNames = []string{"name", "qualified_name"}

var phpTable = &Table{
	Language: lang.PHP,
	Symbols: map[string]SymbolRule{
		"namespace_definition":                   {Kind: SymbolKindModule, NameField: "name", Anonymous: true},
		"class_declaration":                      {Kind: SymbolKindClass, NameField: "name"},
		"interface_declaration":                  {Kind: SymbolKindInterface, NameField: "name"},
		"trait_declaration":                      {Kind: SymbolKindType, NameField: "name"},
		"enum_declaration":                       {Kind: SymbolKindEnum, NameField: "name"},
		"function_definition":                    {Kind: SymbolKindFunction, NameField: "name"},
		"method_declaration":                     {Kind: SymbolKindMethod, NameField: "name"},
		"anonymous_function":                     {Kind: SymbolKindFunction, Anonymous: true},
		"anonymous_function_creation_expression": {Kind: SymbolKindFunction, Anonymous: true},
		"arrow_function":                         {Kind: SymbolKindFunction, Anonymous: true},
	},
	References: map[string]ReferenceRule{
		"function_call_expression":        {Kind: ReferenceKindCall, Target: []string{"function"}},
		"member_call_expression":          {Kind: ReferenceKindCall, Target: []string{"object", "name"}},
		"nullsafe_member_call_expression": {Kind: ReferenceKindCall, Target: []string{"object", "name"}},
		"scoped_call_expression":          {Kind: ReferenceKindCall, Target: []string{"scope", "name"}},
		"object_creation_expression":      {Kind: ReferenceKindCall},
		"namespace_use_declaration": {
			Kind: ReferenceKindImport,
			Each: true,
			Only: []string{"namespace_use_clause"},
		},
		"base_clause":            {Kind: ReferenceKindExtends, Each: true, Only: phpNames},
		"class_interface_clause": {Kind: ReferenceKindImplements, Each: true, Only: phpNames},
	},
}
