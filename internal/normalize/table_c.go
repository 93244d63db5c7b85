package normalize

import "github.com/dusk-indust/anchor/internal/lang"

// cSymbols are the symbol rules shared by C and C++.
func cSymbols() map[string]SymbolRule {
	return map[string]SymbolRule{
		"function_definition":  {Kind: SymbolKindFunction, NameField: "declarator"},
		"struct_specifier":     {Kind: SymbolKindType, NameField: "name", Require: "body"},
		"union_specifier":      {Kind: SymbolKindType, NameField: "name", Require: "body"},
		"enum_specifier":       {Kind: SymbolKindEnum, NameField: "name", Require: "body"},
		"type_definition":      {Kind: SymbolKindType, NameField: "declarator"},
		"preproc_def":          {Kind: SymbolKindConstant, NameField: "name"},
		"preproc_function_def": {Kind: SymbolKindFunction, NameField: "name"},
	}
}

// cReferences are the reference rules shared by C and C++.
func cReferences() map[string]ReferenceRule {
	return map[string]ReferenceRule{
		"call_expression": {Kind: ReferenceKindCall, Target: []string{"function"}},
		"preproc_include": {Kind: ReferenceKindImport, Target: []string{"path"}},
	}
}

var cTable = &Table{
	Language:   lang.C,
	Symbols:    cSymbols(),
	References: cReferences(),
}

var cppTable = func() *Table {
	t := &Table{
		Language:   lang.Cpp,
		Symbols:    cSymbols(),
		References: cReferences(),
	}
	t.Symbols["class_specifier"] = SymbolRule{Kind: SymbolKindClass, NameField: "name", Require: "body"}
	t.Symbols["namespace_definition"] = SymbolRule{Kind: SymbolKindModule, NameField: "name", Anonymous: true}
	t.Symbols["lambda_expression"] = SymbolRule{Kind: SymbolKindFunction, Anonymous: true}
	t.Symbols["alias_declaration"] = SymbolRule{Kind: SymbolKindType, NameField: "name"}
	t.References["new_expression"] = ReferenceRule{Kind: ReferenceKindCall, Target: []string{"type"}}
	t.References["base_class_clause"] = ReferenceRule{
		Kind: ReferenceKindExtends,
		Each: true,
		Only: []string{"type_identifier", "qualified_identifier", "template_type"},
	}
	return t
}()
