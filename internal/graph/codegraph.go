package graph

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dusk-indust/anchor/internal/extract"
)

// Compile-time assertion: *CodeGraph satisfies Store.
var _ Store = (*CodeGraph)(nil)

// CodeGraph is the in-memory cross-file graph. Whole-file contributions are
// swapped under the write lock, so readers never observe a file half
// replaced. References are stored unresolved and linked against the current
// indexes on every read.
type CodeGraph struct {
	mu          sync.RWMutex
	files       map[string]*fileEntry
	symbols     map[string]Symbol
	byQualified map[string][]string // qualified name -> symbol IDs
	byName      map[string][]string // simple name -> symbol IDs
	workspace   *Workspace

	// resolver is rebuilt lazily after the file set changes. Writers clear
	// it under the write lock; readers build and publish it under the read
	// lock.
	resolver atomic.Pointer[ImportResolver]
}

type fileEntry struct {
	node    FileNode
	symbols []string // IDs in document order
	refs    []Reference
}

// NewCodeGraph returns an empty graph.
func NewCodeGraph() *CodeGraph {
	return &CodeGraph{
		files:       make(map[string]*fileEntry),
		symbols:     make(map[string]Symbol),
		byQualified: make(map[string][]string),
		byName:      make(map[string][]string),
	}
}

// SetWorkspace installs repository metadata used to resolve imports.
func (g *CodeGraph) SetWorkspace(ws *Workspace) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.workspace = ws
	g.resolver.Store(nil)
}

// Merge replaces the contribution of path with the given extraction result.
func (g *CodeGraph) Merge(path string, res *extract.Result) GraphDelta {
	if res.Path != path {
		cp := *res
		cp.Path = path
		res = &cp
	}
	return g.replace(Contribution(res))
}

// ReplaceFile implements Store.
func (g *CodeGraph) ReplaceFile(_ context.Context, file FileNode, symbols []Symbol, refs []Reference) error {
	g.replace(FileContribution{File: file, Symbols: symbols, References: refs})
	return nil
}

func (g *CodeGraph) replace(fc FileContribution) GraphDelta {
	path := fc.File.Path

	// Built outside the lock.
	entry := &fileEntry{
		node:    fc.File,
		symbols: make([]string, 0, len(fc.Symbols)),
		refs:    make([]Reference, 0, len(fc.References)),
	}
	for _, s := range fc.Symbols {
		entry.symbols = append(entry.symbols, s.ID)
	}
	for _, r := range fc.References {
		r.FilePath = path
		r.ResolvedID, r.ResolvedFile = "", ""
		entry.refs = append(entry.refs, r)
	}
	delta := GraphDelta{Path: path, References: len(entry.refs)}

	g.mu.Lock()
	defer g.mu.Unlock()

	old, replaced := g.files[path]
	delta.Replaced = replaced
	oldIDs := make(map[string]bool)
	if replaced {
		for _, id := range old.symbols {
			oldIDs[id] = true
		}
		g.unindex(old)
	}

	g.files[path] = entry
	for _, s := range fc.Symbols {
		s.FilePath = path
		g.symbols[s.ID] = s
		g.byQualified[s.QualifiedName] = append(g.byQualified[s.QualifiedName], s.ID)
		g.byName[s.Name] = append(g.byName[s.Name], s.ID)
		if oldIDs[s.ID] {
			delta.Kept = append(delta.Kept, s.ID)
			delete(oldIDs, s.ID)
		} else {
			delta.Added = append(delta.Added, s.ID)
		}
	}
	delta.Removed = sortedKeys(oldIDs)
	if !replaced {
		g.resolver.Store(nil)
	}

	for _, r := range entry.refs {
		if !g.resolve(r).Dangling() {
			delta.Resolved++
		}
	}
	return delta
}

// unindex drops every index entry owned by e. The caller holds the write lock.
func (g *CodeGraph) unindex(e *fileEntry) {
	for _, id := range e.symbols {
		s, ok := g.symbols[id]
		if !ok {
			continue
		}
		delete(g.symbols, id)
		g.byQualified[s.QualifiedName] = without(g.byQualified[s.QualifiedName], id)
		if len(g.byQualified[s.QualifiedName]) == 0 {
			delete(g.byQualified, s.QualifiedName)
		}
		g.byName[s.Name] = without(g.byName[s.Name], id)
		if len(g.byName[s.Name]) == 0 {
			delete(g.byName, s.Name)
		}
	}
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// Remove drops the whole contribution of path. It reports whether the file
// was present.
func (g *CodeGraph) Remove(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.files[path]
	if !ok {
		return false
	}
	g.unindex(e)
	delete(g.files, path)
	g.resolver.Store(nil)
	return true
}

// RemoveFile implements Store.
func (g *CodeGraph) RemoveFile(_ context.Context, path string) error {
	g.Remove(path)
	return nil
}

// importResolver returns the resolver for the current file set. The caller
// holds at least the read lock.
func (g *CodeGraph) importResolver() *ImportResolver {
	if r := g.resolver.Load(); r != nil {
		return r
	}
	paths := make([]string, 0, len(g.files))
	for p := range g.files {
		paths = append(paths, p)
	}
	r := NewImportResolver(g.workspace, paths)
	if g.resolver.CompareAndSwap(nil, r) {
		return r
	}
	return g.resolver.Load()
}

// InitSchema is a no-op for the in-memory graph.
func (g *CodeGraph) InitSchema(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory graph.
func (g *CodeGraph) Close() error {
	return nil
}

// ---------- Reads ----------

// Symbol returns the symbol with the given graph ID.
func (g *CodeGraph) Symbol(id string) (Symbol, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.symbols[id]
	return s, ok
}

// File returns the file node for path.
func (g *CodeGraph) File(path string) (FileNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.files[path]
	if !ok {
		return FileNode{}, false
	}
	return e.node, true
}

// Files returns all file nodes ordered by path.
func (g *CodeGraph) Files() []FileNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]FileNode, 0, len(g.files))
	for _, e := range g.files {
		out = append(out, e.node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// SymbolsInFile returns the symbols of path in document order.
func (g *CodeGraph) SymbolsInFile(path string) []Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.files[path]
	if !ok {
		return nil
	}
	out := make([]Symbol, 0, len(e.symbols))
	for _, id := range e.symbols {
		out = append(out, g.symbols[id])
	}
	return out
}

// References returns the resolved references made from path.
func (g *CodeGraph) References(path string) []Reference {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.files[path]
	if !ok {
		return nil
	}
	out := make([]Reference, 0, len(e.refs))
	for _, r := range e.refs {
		out = append(out, g.resolve(r))
	}
	return out
}

// ReferencesFrom returns the resolved references whose source is symbol id.
func (g *CodeGraph) ReferencesFrom(id string) []Reference {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.symbols[id]
	if !ok {
		return nil
	}
	var out []Reference
	for _, r := range g.files[s.FilePath].refs {
		if r.SourceID == id {
			out = append(out, g.resolve(r))
		}
	}
	return out
}

// ReferencesTo returns every reference in the graph that resolves to id.
// A file path matches import references resolved to that file.
func (g *CodeGraph) ReferencesTo(id string) []Reference {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, isFile := g.files[id]
	var out []Reference
	for _, path := range g.sortedPaths() {
		for _, r := range g.files[path].refs {
			rr := g.resolve(r)
			if rr.ResolvedID == id || (isFile && rr.ResolvedID == "" && rr.ResolvedFile == id) {
				out = append(out, rr)
			}
		}
	}
	return out
}

// GetFile returns the file node for the given path, or nil if not found.
func (g *CodeGraph) GetFile(_ context.Context, path string) (*FileNode, error) {
	f, ok := g.File(path)
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// GetSymbol returns the symbol for the given ID, or nil if not found.
func (g *CodeGraph) GetSymbol(_ context.Context, id string) (*Symbol, error) {
	s, ok := g.Symbol(id)
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// QuerySymbols returns symbols whose name or qualified name contains query
// (case-insensitive), ordered by ID, up to limit results. A limit <= 0
// returns all matches.
func (g *CodeGraph) QuerySymbols(_ context.Context, query string, limit int) ([]Symbol, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	lowerQuery := strings.ToLower(query)
	var results []Symbol
	for _, sym := range g.symbols {
		if strings.Contains(strings.ToLower(sym.Name), lowerQuery) ||
			strings.Contains(strings.ToLower(sym.QualifiedName), lowerQuery) {
			results = append(results, sym)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetDependencies performs a BFS from nodeID, a file path or a symbol ID, up
// to maxDepth hops. Upstream follows what the node depends on; downstream
// follows what depends on it. One DependencyChain is returned per reachable
// node.
func (g *CodeGraph) GetDependencies(_ context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var adj map[string][]string
	switch {
	case g.files[nodeID] != nil:
		adj = g.fileAdjacency(direction)
	case g.symbols[nodeID].ID != "":
		adj = g.symbolAdjacency(direction)
	default:
		return nil, ErrNotFound
	}
	return bfsChains(nodeID, adj, maxDepth), nil
}

// bfsChains walks adj from start and returns one chain per reachable node.
func bfsChains(start string, adj map[string][]string, maxDepth int) []DependencyChain {
	if maxDepth <= 0 {
		return nil
	}

	// BFS state: each entry tracks the path from start to the current node.
	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{start: true}
	queue := []bfsEntry{{id: start, path: []string{start}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			for _, nb := range adj[entry.id] {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, DependencyChain{
					Nodes: newPath,
					Depth: len(newPath) - 1,
				})
				nextQueue = append(nextQueue, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = nextQueue
	}
	return chains
}

// fileLinks returns the distinct cross-file links "a depends on b", sorted.
// The caller holds at least the read lock.
func (g *CodeGraph) fileLinks() [][2]string {
	seen := make(map[[2]string]bool)
	var links [][2]string
	for _, path := range g.sortedPaths() {
		for _, r := range g.files[path].refs {
			rr := g.resolve(r)
			if rr.ResolvedFile == "" || rr.ResolvedFile == path {
				continue
			}
			l := [2]string{path, rr.ResolvedFile}
			if !seen[l] {
				seen[l] = true
				links = append(links, l)
			}
		}
	}
	return links
}

func (g *CodeGraph) fileAdjacency(direction Direction) map[string][]string {
	return orient(g.fileLinks(), direction)
}

func (g *CodeGraph) symbolAdjacency(direction Direction) map[string][]string {
	seen := make(map[[2]string]bool)
	var links [][2]string
	for _, path := range g.sortedPaths() {
		for _, r := range g.files[path].refs {
			if r.SourceID == "" {
				continue
			}
			rr := g.resolve(r)
			if rr.ResolvedID == "" || rr.ResolvedID == r.SourceID {
				continue
			}
			l := [2]string{r.SourceID, rr.ResolvedID}
			if !seen[l] {
				seen[l] = true
				links = append(links, l)
			}
		}
	}
	return orient(links, direction)
}

// orient builds an adjacency list from "a depends on b" links.
func orient(links [][2]string, direction Direction) map[string][]string {
	adj := make(map[string][]string)
	for _, l := range links {
		if direction == DirectionDownstream {
			adj[l[1]] = append(adj[l[1]], l[0])
		} else {
			adj[l[0]] = append(adj[l[0]], l[1])
		}
	}
	return adj
}

// Impact computes the blast radius of changing the given files: the files
// that depend on them directly and the full downstream closure.
func (g *CodeGraph) Impact(changedFiles []string) *ImpactResult {
	g.mu.RLock()
	defer g.mu.RUnlock()

	changedSet := make(map[string]bool, len(changedFiles))
	for _, f := range changedFiles {
		changedSet[f] = true
	}
	down := g.fileAdjacency(DirectionDownstream)

	directSet := make(map[string]bool)
	for _, f := range changedFiles {
		for _, dep := range down[f] {
			if !changedSet[dep] {
				directSet[dep] = true
			}
		}
	}

	// Expand from directly affected files until no new files appear.
	allAffected := make(map[string]bool, len(directSet))
	frontier := make([]string, 0, len(directSet))
	for k := range directSet {
		allAffected[k] = true
		frontier = append(frontier, k)
	}
	for len(frontier) > 0 {
		var next []string
		for _, f := range frontier {
			for _, dep := range down[f] {
				if !changedSet[dep] && !allAffected[dep] {
					allAffected[dep] = true
					next = append(next, dep)
				}
			}
		}
		frontier = next
	}

	var riskScore float64
	if len(g.files) > 0 {
		riskScore = math.Min(1.0, float64(len(allAffected))/float64(len(g.files)))
	}
	return &ImpactResult{
		DirectlyAffected:     sortedKeys(directSet),
		TransitivelyAffected: sortedKeys(allAffected),
		RiskScore:            riskScore,
	}
}

// Clusters groups files connected by resolved references.
func (g *CodeGraph) Clusters() []Cluster {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return computeClusters(g.sortedPaths(), g.fileLinks())
}

// Stats returns counts of files, symbols and references.
func (g *CodeGraph) Stats(_ context.Context) (*GraphStats, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st := g.stats()
	return &st, nil
}

func (g *CodeGraph) stats() GraphStats {
	st := GraphStats{FileCount: len(g.files), SymbolCount: len(g.symbols)}
	for _, e := range g.files {
		st.ReferenceCount += len(e.refs)
		for _, r := range e.refs {
			if !g.resolve(r).Dangling() {
				st.ResolvedCount++
			}
		}
	}
	return st
}

// Snapshot returns a consistent, resolved copy of the whole graph.
func (g *CodeGraph) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	paths := g.sortedPaths()
	snap := &Snapshot{Files: make([]FileContribution, 0, len(paths))}
	for _, path := range paths {
		e := g.files[path]
		fc := FileContribution{
			File:       e.node,
			Symbols:    make([]Symbol, 0, len(e.symbols)),
			References: make([]Reference, 0, len(e.refs)),
		}
		for _, id := range e.symbols {
			fc.Symbols = append(fc.Symbols, g.symbols[id])
		}
		for _, r := range e.refs {
			fc.References = append(fc.References, g.resolve(r))
		}
		snap.Files = append(snap.Files, fc)
	}
	snap.Clusters = computeClusters(paths, g.fileLinks())
	snap.Stats = g.stats()
	return snap
}

// sortedPaths returns the known file paths in order. The caller holds at
// least the read lock.
func (g *CodeGraph) sortedPaths() []string {
	paths := make([]string, 0, len(g.files))
	for p := range g.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// sortedKeys converts a string bool map to a sorted slice.
func sortedKeys(s map[string]bool) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
