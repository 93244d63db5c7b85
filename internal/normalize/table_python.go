package normalize

import (
	"strings"

	"github.com/dusk-indust/anchor/internal/lang"
)

var pythonTable = &Table{
	Language: lang.Python,
	Symbols: map[string]SymbolRule{
		"function_definition": {Kind: SymbolKindFunction, NameField: "name"},
		"class_definition":    {Kind: SymbolKindClass, NameField: "name"},
		"lambda":              {Kind: SymbolKindFunction, Anonymous: true},
		"assignment":          {Kind: SymbolKindVariable, NameField: "left", DeclarationOnly: true},
	},
	References: map[string]ReferenceRule{
		"call":                  {Kind: ReferenceKindCall, Target: []string{"function"}},
		"import_from_statement": {Kind: ReferenceKindImport, Target: []string{"module_name"}},
		"import_statement": {
			Kind:   ReferenceKindImport,
			Each:   true,
			Only:   []string{"dotted_name", "aliased_import"},
			Unwrap: map[string]string{"aliased_import": "name"},
		},
		"argument_list": {
			Kind:  ReferenceKindExtends,
			Field: "superclasses",
			Each:  true,
			Only:  []string{"identifier", "attribute"},
		},
	},
	Exported: isPythonPublic,
}

// isPythonPublic treats single-underscore names as private and dunder names
// as public.
func isPythonPublic(name string) bool {
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}
	return conventionallyPublic(name)
}
