// Package lang is the registry of supported source languages. It maps file
// identity (extension, or a shebang line for extensionless scripts) to one of
// a closed set of languages, each of which has exactly one registered grammar.
package lang

import (
	"sort"
	"strings"
)

// Language identifies a programming language with a registered grammar.
type Language string

const (
	Go         Language = "go"
	Python     Language = "python"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	JavaScript Language = "javascript"
	Rust       Language = "rust"
	Java       Language = "java"
	C          Language = "c"
	Cpp        Language = "cpp"
	CSharp     Language = "csharp"
	Ruby       Language = "ruby"
	PHP        Language = "php"
	Zig        Language = "zig"
)

// all lists every supported language in a fixed order.
var all = []Language{Go, Python, TypeScript, TSX, JavaScript, Rust, Java, C, Cpp, CSharp, Ruby, PHP, Zig}

// extensions maps each language to the file extensions it owns. An extension
// appears under exactly one language.
var extensions = map[Language][]string{
	Go:         {".go"},
	Python:     {".py", ".pyi", ".pyw"},
	TypeScript: {".ts", ".mts", ".cts"},
	TSX:        {".tsx"},
	JavaScript: {".js", ".jsx", ".mjs", ".cjs"},
	Rust:       {".rs"},
	Java:       {".java"},
	C:          {".c", ".h"},
	Cpp:        {".cpp", ".cc", ".cxx", ".c++", ".hpp", ".hh", ".hxx", ".h++", ".ipp"},
	CSharp:     {".cs"},
	Ruby:       {".rb", ".rake", ".gemspec"},
	PHP:        {".php", ".phtml"},
	Zig:        {".zig"},
}

// aliases maps configuration names to languages.
var aliases = map[string]Language{
	"golang":     Go,
	"py":         Python,
	"python3":    Python,
	"ts":         TypeScript,
	"js":         JavaScript,
	"node":       JavaScript,
	"rs":         Rust,
	"c++":        Cpp,
	"cxx":        Cpp,
	"c#":         CSharp,
	"cs":         CSharp,
	"c_sharp":    CSharp,
	"rb":         Ruby,
	"ecmascript": JavaScript,
}

var byExtension = func() map[string]Language {
	m := make(map[string]Language)
	for l, exts := range extensions {
		for _, ext := range exts {
			m[ext] = l
		}
	}
	return m
}()

// All returns every supported language.
func All() []Language {
	out := make([]Language, len(all))
	copy(out, all)
	return out
}

// String returns the language name.
func (l Language) String() string { return string(l) }

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := extensions[l]
	return ok
}

// Extensions returns the file extensions owned by l, sorted.
func Extensions(l Language) []string {
	exts := append([]string(nil), extensions[l]...)
	sort.Strings(exts)
	return exts
}

// Parse maps a language name or common alias to a Language. Matching is
// case-insensitive.
func Parse(name string) (Language, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if l := Language(name); l.Valid() {
		return l, true
	}
	l, ok := aliases[name]
	return l, ok
}
