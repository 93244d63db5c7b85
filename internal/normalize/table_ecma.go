package normalize

import "github.com/dusk-indust/anchor/internal/lang"

// ecmaSymbols are the symbol rules shared by JavaScript and TypeScript.
func ecmaSymbols() map[string]SymbolRule {
	return map[string]SymbolRule{
		"function_declaration":           {Kind: SymbolKindFunction, NameField: "name"},
		"generator_function_declaration": {Kind: SymbolKindFunction, NameField: "name"},
		"function_expression":            {Kind: SymbolKindFunction, NameField: "name", Anonymous: true},
		"function":                       {Kind: SymbolKindFunction, NameField: "name", Anonymous: true},
		"generator_function":             {Kind: SymbolKindFunction, NameField: "name", Anonymous: true},
		"arrow_function":                 {Kind: SymbolKindFunction, Anonymous: true},
		"method_definition":              {Kind: SymbolKindMethod, NameField: "name"},
		"class_declaration":              {Kind: SymbolKindClass, NameField: "name"},
		"class":                          {Kind: SymbolKindClass, NameField: "name", Anonymous: true},
		"variable_declarator":            {Kind: SymbolKindVariable, NameField: "name", DeclarationOnly: true},
	}
}

// ecmaReferences are the reference rules shared by JavaScript and TypeScript.
func ecmaReferences() map[string]ReferenceRule {
	return map[string]ReferenceRule{
		"call_expression":  {Kind: ReferenceKindCall, Target: []string{"function"}},
		"new_expression":   {Kind: ReferenceKindCall, Target: []string{"constructor"}},
		"import_statement": {Kind: ReferenceKindImport, Target: []string{"source"}},
	}
}

var javaScriptTable = func() *Table {
	t := &Table{
		Language:   lang.JavaScript,
		Symbols:    ecmaSymbols(),
		References: ecmaReferences(),
	}
	t.References["class_heritage"] = ReferenceRule{
		Kind: ReferenceKindExtends,
		Each: true,
		Only: []string{"identifier", "member_expression"},
	}
	return t
}()
