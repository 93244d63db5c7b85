package extract

import (
	"strings"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/anchor/internal/normalize"
)

const (
	maxDeclaratorDepth = 8
	maxTargetLen       = 256
)

// nameKinds are leaf node kinds that spell a name, beyond the many kinds
// ending in "identifier".
var nameKinds = map[string]bool{
	"name":             true,
	"constant":         true,
	"setter":           true,
	"scope_resolution": true,
	"qualified_name":   true,
	"namespace_name":   true,
	"dotted_name":      true,
	"destructor_name":  true,
	"operator_name":    true,
	"string":           true,
}

func isNameKind(kind string) bool {
	return strings.HasSuffix(kind, "identifier") || nameKinds[kind]
}

// symbolName resolves the name of a symbol node. Declarator chains (C
// pointers, Java field declarators) are followed down to the name leaf.
func symbolName(node *tree_sitter.Node, rule normalize.SymbolRule, source []byte) (string, bool) {
	var n *tree_sitter.Node
	switch {
	case rule.NameField != "":
		n = descendToName(node.ChildByFieldName(rule.NameField))
	case rule.Anonymous:
		return "", false
	default:
		n = firstNameChild(node)
	}
	if n == nil || n.IsError() || n.IsMissing() || !isNameKind(n.Kind()) {
		return "", false
	}
	name := strings.Trim(compactSpace(nodeText(n, source)), "\"'`")
	return name, name != ""
}

// symbolNames returns every name found at the rule's name field, in source
// order, for declarations such as "var a, b = 1, 2".
func symbolNames(node *tree_sitter.Node, rule normalize.SymbolRule, source []byte) []string {
	var names []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if node.FieldNameForNamedChild(uint32(i)) != rule.NameField {
			continue
		}
		n := descendToName(node.NamedChild(i))
		if n == nil || n.IsError() || n.IsMissing() || !isNameKind(n.Kind()) {
			continue
		}
		if name := strings.Trim(compactSpace(nodeText(n, source)), "\"'`"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func descendToName(n *tree_sitter.Node) *tree_sitter.Node {
	for depth := 0; n != nil && depth < maxDeclaratorDepth; depth++ {
		if isNameKind(n.Kind()) {
			return n
		}
		next := n.ChildByFieldName("declarator")
		if next == nil {
			next = n.ChildByFieldName("name")
		}
		if next == nil && strings.HasSuffix(n.Kind(), "_declarator") {
			next = n.NamedChild(0)
		}
		n = next
	}
	return n
}

func firstNameChild(n *tree_sitter.Node) *tree_sitter.Node {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c != nil && isNameKind(c.Kind()) {
			return c
		}
	}
	return nil
}

// refine applies the rule's child-kind overrides.
func refine(node *tree_sitter.Node, rule normalize.SymbolRule) normalize.SymbolKind {
	if len(rule.Refine) == 0 {
		return rule.Kind
	}
	if rule.RefineField != "" {
		if c := node.ChildByFieldName(rule.RefineField); c != nil {
			if k, ok := rule.Refine[c.Kind()]; ok {
				return k
			}
		}
		return rule.Kind
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if c := node.NamedChild(i); c != nil {
			if k, ok := rule.Refine[c.Kind()]; ok {
				return k
			}
		}
	}
	return rule.Kind
}

// qualifierName finds the type name inside a receiver or impl target, e.g.
// "User" in "(u *User)" or "Vec" in "Vec<T>".
func qualifierName(n *tree_sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	if t := findTypeName(n); t != nil {
		return compactSpace(nodeText(t, source))
	}
	if isNameKind(n.Kind()) {
		return compactSpace(nodeText(n, source))
	}
	return ""
}

func findTypeName(n *tree_sitter.Node) *tree_sitter.Node {
	if strings.HasSuffix(n.Kind(), "type_identifier") {
		return n
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c != nil {
			if t := findTypeName(c); t != nil {
				return t
			}
		}
	}
	return nil
}

// targetText joins the rule's target fields, or falls back to the first
// named child.
func targetText(node *tree_sitter.Node, rule normalize.ReferenceRule, source []byte) (string, bool) {
	if len(rule.Target) == 0 {
		for i := uint(0); i < node.NamedChildCount(); i++ {
			c := node.NamedChild(i)
			if c == nil || c.IsExtra() {
				continue
			}
			if c.IsError() || c.IsMissing() {
				return "", false
			}
			return nodeText(c, source), true
		}
		return "", false
	}

	parts := make([]string, 0, len(rule.Target))
	for _, field := range rule.Target {
		c := node.ChildByFieldName(field)
		if c == nil {
			continue
		}
		if c.IsError() || c.IsMissing() {
			return "", false
		}
		parts = append(parts, nodeText(c, source))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "."), true
}

// eachTargets lists the children of node that each become one edge.
func eachTargets(node *tree_sitter.Node, rule normalize.ReferenceRule) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c == nil || c.IsExtra() || c.IsError() || c.IsMissing() {
				continue
			}
			if len(rule.Skip) > 0 && contains(rule.Skip, n.FieldNameForNamedChild(uint32(i))) {
				continue
			}
			if contains(rule.Flatten, c.Kind()) {
				visit(c)
				continue
			}
			if len(rule.Only) > 0 && !contains(rule.Only, c.Kind()) {
				continue
			}
			if field, ok := rule.Unwrap[c.Kind()]; ok {
				if inner := c.ChildByFieldName(field); inner != nil {
					c = inner
				}
			}
			out = append(out, c)
		}
	}
	visit(node)
	return out
}

// cleanTarget normalizes reference text. Call and inheritance targets must
// look like a name path; anything else, such as an immediately invoked
// function literal, yields "".
func cleanTarget(s string, kind normalize.ReferenceKind) string {
	if kind == normalize.ReferenceKindImport {
		s = compactSpace(s)
		if i := strings.Index(s, " as "); i > 0 {
			s = s[:i]
		}
		s = strings.ReplaceAll(s, " ", "")
		return clip(strings.Trim(s, "\"'`<>;"))
	}

	s = strings.Join(strings.Fields(s), "")
	if strings.ContainsAny(s, "{}\"'`;") {
		return ""
	}
	if i := strings.IndexAny(s, "<("); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, ".:?!")
	if s == "" || strings.ContainsAny(s, "()[],=+*/%&|^~") {
		return ""
	}
	return clip(s)
}

func nodeText(n *tree_sitter.Node, source []byte) string {
	return n.Utf8Text(source)
}

func compactSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string) string {
	if len(s) <= maxTargetLen {
		return s
	}
	i := maxTargetLen
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
