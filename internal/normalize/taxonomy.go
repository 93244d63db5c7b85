// Package normalize maps grammar-specific node kinds onto a shared symbol
// taxonomy. Each supported language has one static Table; the extractor
// walk consults tables only through this package and never names a
// grammar's node kinds itself.
package normalize

// SymbolKind classifies a definable construct.
type SymbolKind string

const (
	SymbolKindFunction  SymbolKind = "function"
	SymbolKindMethod    SymbolKind = "method"
	SymbolKindClass     SymbolKind = "class"
	SymbolKindType      SymbolKind = "type"
	SymbolKindInterface SymbolKind = "interface"
	SymbolKindEnum      SymbolKind = "enum"
	SymbolKindModule    SymbolKind = "module"
	SymbolKindVariable  SymbolKind = "variable"
	SymbolKindConstant  SymbolKind = "constant"
)

// Callable reports whether symbols of this kind can be the target of a call.
func (k SymbolKind) Callable() bool {
	return k == SymbolKindFunction || k == SymbolKindMethod
}

// TypeLike reports whether symbols of this kind introduce a type that can
// own methods or be extended.
func (k SymbolKind) TypeLike() bool {
	switch k {
	case SymbolKindClass, SymbolKindType, SymbolKindInterface, SymbolKindEnum:
		return true
	}
	return false
}

// ReferenceKind classifies a syntactic link from a symbol to a name.
type ReferenceKind string

const (
	ReferenceKindCall       ReferenceKind = "call"
	ReferenceKindImport     ReferenceKind = "import"
	ReferenceKindExtends    ReferenceKind = "extends"
	ReferenceKindImplements ReferenceKind = "implements"
)

// Inheritance reports whether the reference names a supertype.
func (k ReferenceKind) Inheritance() bool {
	return k == ReferenceKindExtends || k == ReferenceKindImplements
}
