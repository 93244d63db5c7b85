package normalize

import "github.com/dusk-indust/anchor/internal/lang"

var javaTypeNames = []string{"type_identifier", "scoped_type_identifier", "generic_type"}

var javaTable = &Table{
	Language: lang.Java,
	Symbols: map[string]SymbolRule{
		"package_declaration":         {Kind: SymbolKindModule},
		"class_declaration":           {Kind: SymbolKindClass, NameField: "name"},
		"record_declaration":          {Kind: SymbolKindClass, NameField: "name"},
		"interface_declaration":       {Kind: SymbolKindInterface, NameField: "name"},
		"annotation_type_declaration": {Kind: SymbolKindInterface, NameField: "name"},
		"enum_declaration":            {Kind: SymbolKindEnum, NameField: "name"},
		"method_declaration":          {Kind: SymbolKindMethod, NameField: "name"},
		"constructor_declaration":     {Kind: SymbolKindMethod, NameField: "name"},
		"lambda_expression":           {Kind: SymbolKindFunction, Anonymous: true},
		"field_declaration":           {Kind: SymbolKindVariable, NameField: "declarator", DeclarationOnly: true},
	},
	References: map[string]ReferenceRule{
		"method_invocation":          {Kind: ReferenceKindCall, Target: []string{"object", "name"}},
		"object_creation_expression": {Kind: ReferenceKindCall, Target: []string{"type"}},
		"import_declaration": {
			Kind: ReferenceKindImport,
			Each: true,
			Only: []string{"scoped_identifier", "identifier"},
		},
		"superclass":         {Kind: ReferenceKindExtends, Each: true, Only: javaTypeNames},
		"super_interfaces":   {Kind: ReferenceKindImplements, Each: true, Only: javaTypeNames, Flatten: []string{"type_list"}},
		"extends_interfaces": {Kind: ReferenceKindExtends, Each: true, Only: javaTypeNames, Flatten: []string{"type_list"}},
	},
}
