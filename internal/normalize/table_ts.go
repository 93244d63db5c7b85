package normalize

import "github.com/dusk-indust/anchor/internal/lang"

var tsTypeNames = []string{"type_identifier", "generic_type", "nested_type_identifier", "identifier", "member_expression"}

// typeScriptTable builds the table shared by the TypeScript and TSX
// grammars.
func typeScriptTable(l lang.Language) *Table {
	t := &Table{
		Language:   l,
		Symbols:    ecmaSymbols(),
		References: ecmaReferences(),
	}
	for kind, rule := range map[string]SymbolRule{
		"abstract_class_declaration": {Kind: SymbolKindClass, NameField: "name"},
		"interface_declaration":      {Kind: SymbolKindInterface, NameField: "name"},
		"type_alias_declaration":     {Kind: SymbolKindType, NameField: "name"},
		"enum_declaration":           {Kind: SymbolKindEnum, NameField: "name"},
		"internal_module":            {Kind: SymbolKindModule, NameField: "name"},
		"module":                     {Kind: SymbolKindModule, NameField: "name"},
		"function_signature":         {Kind: SymbolKindFunction, NameField: "name"},
		"method_signature":           {Kind: SymbolKindMethod, NameField: "name"},
		"abstract_method_signature":  {Kind: SymbolKindMethod, NameField: "name"},
		"public_field_definition":    {Kind: SymbolKindVariable, NameField: "name", DeclarationOnly: true},
	} {
		t.Symbols[kind] = rule
	}
	t.References["extends_clause"] = ReferenceRule{Kind: ReferenceKindExtends, Target: []string{"value"}}
	t.References["implements_clause"] = ReferenceRule{Kind: ReferenceKindImplements, Each: true, Only: tsTypeNames}
	t.References["extends_type_clause"] = ReferenceRule{Kind: ReferenceKindExtends, Each: true, Only: tsTypeNames}
	return t
}
