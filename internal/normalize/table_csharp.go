package normalize

import "github.com/dusk-indust/anchor/internal/lang"

var cSharpTable = &Table{
	Language: lang.CSharp,
	Symbols: map[string]SymbolRule{
		"namespace_declaration":             {Kind: SymbolKindModule, NameField: "name"},
		"file_scoped_namespace_declaration": {Kind: SymbolKindModule, NameField: "name"},
		"class_declaration":                 {Kind: SymbolKindClass, NameField: "name"},
		"record_declaration":                {Kind: SymbolKindClass, NameField: "name"},
		"struct_declaration":                {Kind: SymbolKindType, NameField: "name"},
		"delegate_declaration":              {Kind: SymbolKindType, NameField: "name"},
		"interface_declaration":             {Kind: SymbolKindInterface, NameField: "name"},
		"enum_declaration":                  {Kind: SymbolKindEnum, NameField: "name"},
		"method_declaration":                {Kind: SymbolKindMethod, NameField: "name"},
		"constructor_declaration":           {Kind: SymbolKindMethod, NameField: "name"},
		"local_function_statement":          {Kind: SymbolKindFunction, NameField: "name"},
		"property_declaration":              {Kind: SymbolKindVariable, NameField: "name", DeclarationOnly: true},
		"lambda_expression":                 {Kind: SymbolKindFunction, Anonymous: true},
		"anonymous_method_expression":       {Kind: SymbolKindFunction, Anonymous: true},
	},
	References: map[string]ReferenceRule{
		"invocation_expression":      {Kind: ReferenceKindCall, Target: []string{"function"}},
		"object_creation_expression": {Kind: ReferenceKindCall, Target: []string{"type"}},
		"using_directive": {
			Kind: ReferenceKindImport,
			Each: true,
			Only: []string{"qualified_name", "identifier"},
			Skip: []string{"name"},
		},
		"base_list": {
			Kind: ReferenceKindExtends,
			Each: true,
			Only: []string{"identifier", "qualified_name", "generic_name"},
		},
	},
}
