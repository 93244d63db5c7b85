package export

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dusk-indust/anchor/internal/graph"
)

// Mermaid produces a Mermaid graph TD diagram from a snapshot. Files are
// grouped by cluster; resolved cross-file references become arrows.
func Mermaid(snap *graph.Snapshot) string {
	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	clustered := make(map[string]bool)
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	// Emit cluster subgraphs.
	for _, c := range snap.Clusters {
		if len(c.Members) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  subgraph %s[\"%s\"]\n", getID("cluster:"+c.Name), label(c.Name, 40))
		for _, member := range c.Members {
			clustered[member] = true
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", getID(member), label(shortPath(member), 60))
		}
		sb.WriteString("  end\n")
	}

	// Files outside every cluster.
	for _, fc := range snap.Files {
		if !clustered[fc.File.Path] {
			fmt.Fprintf(&sb, "  %s[\"%s\"]\n", getID(fc.File.Path), label(shortPath(fc.File.Path), 60))
		}
	}

	for _, l := range fileEdges(snap) {
		fmt.Fprintf(&sb, "  %s --> %s\n", getID(l[0]), getID(l[1]))
	}
	return sb.String()
}

// fileEdges returns the distinct "a depends on b" file pairs, sorted.
func fileEdges(snap *graph.Snapshot) [][2]string {
	known := make(map[string]bool, len(snap.Files))
	for _, fc := range snap.Files {
		known[fc.File.Path] = true
	}
	seen := make(map[[2]string]bool)
	var edges [][2]string
	for _, fc := range snap.Files {
		for _, r := range fc.References {
			if r.ResolvedFile == "" || r.ResolvedFile == fc.File.Path || !known[r.ResolvedFile] {
				continue
			}
			e := [2]string{fc.File.Path, r.ResolvedFile}
			if !seen[e] {
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// shortPath returns the last 2 path segments for readability.
func shortPath(p string) string {
	parts := strings.Split(path.Clean(p), "/")
	if len(parts) <= 2 {
		return p
	}
	return strings.Join(parts[len(parts)-2:], "/")
}

// label escapes quotes for a Mermaid node label and truncates to n runes.
func label(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		s = string(r[:n])
	}
	return strings.ReplaceAll(s, `"`, "#quot;")
}
