package extract

import (
	"fmt"
	"strconv"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/anchor/internal/normalize"
)

// frame is one level of the walk's scope stack: either a symbol or a
// qualifying scope such as a Rust impl block.
type frame struct {
	id        string
	qualified string
	kind      normalize.SymbolKind
	scope     bool
}

// walker is the language-agnostic depth-first traversal. All language
// knowledge comes from the normalizer table.
type walker struct {
	table *normalize.Table
	file  parsedFile

	symbols []SymbolRecord
	refs    []ReferenceEdge

	frames       []frame
	seen         map[string]int
	errorRegions int
}

func newWalker(table *normalize.Table, file parsedFile) *walker {
	return &walker{
		table:   table,
		file:    file,
		symbols: []SymbolRecord{},
		refs:    []ReferenceEdge{},
		seen:    make(map[string]int),
	}
}

func (w *walker) walk(cursor *tree_sitter.TreeCursor) {
	node := cursor.Node()

	pushed := false
	switch {
	case node.IsMissing():
		// Inserted by error recovery; there is no source behind it.
		w.errorRegions++
		return
	case node.IsError():
		// Recovery fragments inside an error region are not trustworthy
		// constructs; the whole subtree is skipped.
		w.errorRegions++
		return
	case !node.IsNamed():
		// Keywords share kind names with real nodes ("function", "class").
		return
	default:
		pushed = w.classify(cursor, node)
	}

	if cursor.GotoFirstChild() {
		w.walk(cursor)
		for cursor.GotoNextSibling() {
			w.walk(cursor)
		}
		cursor.GotoParent()
	}

	if pushed {
		w.frames = w.frames[:len(w.frames)-1]
	}
}

// classify consults the table for node and reports whether a frame was
// pushed.
func (w *walker) classify(cursor *tree_sitter.TreeCursor, node *tree_sitter.Node) bool {
	kind := node.Kind()
	if rule, ok := w.table.Reference(kind, cursor.FieldName()); ok {
		w.reference(node, rule)
	}
	if rule, ok := w.table.Symbol(kind); ok {
		return w.symbol(node, rule)
	}
	if field, ok := w.table.Scope(kind); ok {
		return w.scope(node, field)
	}
	return false
}

// symbol emits a record for node and pushes it as the enclosing frame.
func (w *walker) symbol(node *tree_sitter.Node, rule normalize.SymbolRule) bool {
	if rule.Require != "" && node.ChildByFieldName(rule.Require) == nil {
		return false
	}
	if rule.DeclarationOnly && w.inCallable() {
		return false
	}

	if rule.EachName {
		names := symbolNames(node, rule, w.file.source)
		if len(names) == 0 {
			return false
		}
		// Every name gets a record; nested constructs belong to the first.
		first := w.record(node, rule, names[0], false)
		for _, name := range names[1:] {
			w.record(node, rule, name, false)
		}
		w.frames = append(w.frames, first)
		return true
	}

	name, ok := symbolName(node, rule, w.file.source)
	anonymous := false
	if !ok {
		if !rule.Anonymous {
			return false
		}
		start := node.StartPosition()
		name = fmt.Sprintf("<anonymous@%d:%d>", start.Row+1, start.Column+1)
		anonymous = true
	}
	w.frames = append(w.frames, w.record(node, rule, name, anonymous))
	return true
}

// record appends one symbol record and returns its frame without pushing it.
func (w *walker) record(node *tree_sitter.Node, rule normalize.SymbolRule, name string, anonymous bool) frame {
	kind := refine(node, rule)
	if kind == normalize.SymbolKindFunction && w.inTypeScope() {
		kind = normalize.SymbolKindMethod
	}

	prefix := w.prefix()
	if rule.Qualifier != "" {
		if q := qualifierName(node.ChildByFieldName(rule.Qualifier), w.file.source); q != "" {
			prefix = joinQualified(prefix, q)
		}
	}
	qualified := joinQualified(prefix, name)
	id := w.uniqueID(qualified)

	w.symbols = append(w.symbols, SymbolRecord{
		ID:            id,
		Name:          name,
		QualifiedName: qualified,
		Kind:          kind,
		Language:      w.file.language,
		Span:          spanOf(node),
		Enclosing:     w.enclosingID(),
		Anonymous:     anonymous,
		Exported:      !anonymous && w.table.IsExported(name),
	})
	return frame{id: id, qualified: qualified, kind: kind}
}

// scope pushes a qualifying frame that is not itself a symbol.
func (w *walker) scope(node *tree_sitter.Node, field string) bool {
	q := qualifierName(node.ChildByFieldName(field), w.file.source)
	if q == "" {
		return false
	}
	w.frames = append(w.frames, frame{qualified: joinQualified(w.prefix(), q), scope: true})
	return true
}

// reference emits the edges described by rule, attributed to the nearest
// enclosing symbol.
func (w *walker) reference(node *tree_sitter.Node, rule normalize.ReferenceRule) {
	source := w.enclosingID()

	if rule.Each {
		for _, child := range eachTargets(node, rule) {
			if target := cleanTarget(nodeText(child, w.file.source), rule.Kind); target != "" {
				w.addRef(source, target, rule.Kind, child)
			}
		}
		return
	}

	text, ok := targetText(node, rule, w.file.source)
	if !ok {
		return
	}
	if target := cleanTarget(text, rule.Kind); target != "" {
		w.addRef(source, target, rule.Kind, node)
	}
}

func (w *walker) addRef(source, target string, kind normalize.ReferenceKind, node *tree_sitter.Node) {
	w.refs = append(w.refs, ReferenceEdge{
		Source: source,
		Target: target,
		Kind:   kind,
		Span:   spanOf(node),
	})
}

// uniqueID returns qualified, suffixed with ~N for the Nth occurrence.
func (w *walker) uniqueID(qualified string) string {
	w.seen[qualified]++
	n := w.seen[qualified]
	if n == 1 {
		return qualified
	}
	return qualified + "~" + strconv.Itoa(n)
}

// enclosingID returns the nearest symbol frame's ID, skipping scopes.
func (w *walker) enclosingID() string {
	for i := len(w.frames) - 1; i >= 0; i-- {
		if !w.frames[i].scope {
			return w.frames[i].id
		}
	}
	return ""
}

func (w *walker) prefix() string {
	if len(w.frames) == 0 {
		return ""
	}
	return w.frames[len(w.frames)-1].qualified
}

// inCallable reports whether the nearest enclosing symbol is a function or
// method body.
func (w *walker) inCallable() bool {
	for i := len(w.frames) - 1; i >= 0; i-- {
		if !w.frames[i].scope {
			return w.frames[i].kind.Callable()
		}
	}
	return false
}

// inTypeScope reports whether the innermost frame is a type or a qualifying
// scope, which turns functions into methods.
func (w *walker) inTypeScope() bool {
	if len(w.frames) == 0 {
		return false
	}
	top := w.frames[len(w.frames)-1]
	return top.scope || top.kind.TypeLike()
}

func spanOf(n *tree_sitter.Node) Span {
	start, end := n.StartPosition(), n.EndPosition()
	return Span{
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
		Start:     Point{Line: int(start.Row) + 1, Column: int(start.Column)},
		End:       Point{Line: int(end.Row) + 1, Column: int(end.Column)},
	}
}

func joinQualified(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
