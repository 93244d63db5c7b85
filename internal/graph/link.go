package graph

import (
	"strings"

	"github.com/dusk-indust/anchor/internal/lang"
	"github.com/dusk-indust/anchor/internal/normalize"
)

// receiverPrefixes are stripped from a normalized call target before lookup.
var receiverPrefixes = []string{"$this.", "this.", "self.", "super.", "@"}

// normalizeTarget rewrites language-specific scope separators to "." and
// drops receiver prefixes, so "Self::new", "$this->save" and "self.save"
// all look up by plain dotted names.
func normalizeTarget(target string) string {
	t := strings.NewReplacer("::", ".", "->", ".", `\`, ".").Replace(target)
	t = strings.TrimLeft(t, ".")
	for stripped := true; stripped; {
		stripped = false
		for _, p := range receiverPrefixes {
			if strings.HasPrefix(t, p) {
				t = t[len(p):]
				stripped = true
			}
		}
	}
	return t
}

// lastSegment returns the text after the final ".".
func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// accepts reports whether a symbol of kind k can be the target of a
// reference of kind rk.
func accepts(rk normalize.ReferenceKind, k normalize.SymbolKind) bool {
	switch rk {
	case normalize.ReferenceKindCall:
		return k.Callable() || k.TypeLike()
	case normalize.ReferenceKindExtends, normalize.ReferenceKindImplements:
		return k.TypeLike()
	}
	return false
}

// compatible reports whether code in a can name symbols defined in b.
func compatible(a, b lang.Language) bool {
	return family(a) == family(b)
}

func family(l lang.Language) lang.Language {
	switch l {
	case lang.TSX, lang.JavaScript:
		return lang.TypeScript
	case lang.Cpp:
		return lang.C
	}
	return l
}

// linkSymbol resolves a non-import reference to a symbol ID. The caller
// holds at least the read lock.
func (g *CodeGraph) linkSymbol(ref Reference, from lang.Language) string {
	name := normalizeTarget(ref.Target)
	if name == "" {
		return ""
	}
	if id := g.pick(g.byQualified[name], ref, from); id != "" {
		return id
	}
	return g.pick(g.byName[lastSegment(name)], ref, from)
}

// pick chooses among candidate IDs: a match in the referencing file wins,
// otherwise only a unique match elsewhere is accepted.
func (g *CodeGraph) pick(ids []string, ref Reference, from lang.Language) string {
	var local, remote string
	remotes := 0
	for _, id := range ids {
		sym, ok := g.symbols[id]
		if !ok || !accepts(ref.Kind, sym.Kind) || !compatible(from, sym.Language) {
			continue
		}
		if sym.FilePath == ref.FilePath {
			if local == "" {
				local = id
			}
			continue
		}
		remotes++
		remote = id
	}
	if local != "" {
		return local
	}
	if remotes == 1 {
		return remote
	}
	return ""
}

// resolve fills ResolvedID / ResolvedFile on a copy of ref. The caller holds
// at least the read lock.
func (g *CodeGraph) resolve(ref Reference) Reference {
	fe, ok := g.files[ref.FilePath]
	if !ok {
		return ref
	}
	from := fe.node.Language
	if ref.Kind == normalize.ReferenceKindImport {
		if file, ok := g.importResolver().Resolve(from, ref.Target, ref.FilePath); ok && file != ref.FilePath {
			ref.ResolvedFile = file
		}
		return ref
	}
	if id := g.linkSymbol(ref, from); id != "" {
		ref.ResolvedID = id
		ref.ResolvedFile = g.symbols[id].FilePath
	}
	return ref
}
