package graph

import (
	"sort"
	"strings"
)

// computeClusters groups files into the connected components of the
// undirected link graph and returns those with two or more members,
// ordered by their first member path.
//
// Components are merged with a disjoint set over the deduplicated links.
// Cohesion is the link density of a component: distinct internal links
// divided by the number of member pairs.
func computeClusters(files []string, links [][2]string) []Cluster {
	ds := newDisjointSet(files)
	edges := make(map[[2]string]struct{}, len(links))
	for _, l := range links {
		a, b := l[0], l[1]
		if !ds.has(a) || !ds.has(b) || a == b {
			continue
		}
		if b < a {
			a, b = b, a
		}
		edges[[2]string{a, b}] = struct{}{}
		ds.union(a, b)
	}

	groups := make(map[string][]string)
	for _, f := range files {
		root := ds.find(f)
		groups[root] = append(groups[root], f)
	}
	internal := make(map[string]int, len(groups))
	for e := range edges {
		internal[ds.find(e[0])]++
	}

	var clusters []Cluster
	for root, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		name := longestCommonPrefix(members)
		if name == "" || name == "/" {
			name = members[0]
		}
		n := len(members)
		clusters = append(clusters, Cluster{
			Name:          name,
			CohesionScore: float64(internal[root]) / float64(n*(n-1)/2),
			Members:       members,
		})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Members[0] < clusters[j].Members[0]
	})
	return clusters
}

// disjointSet is a union-find over file paths with path halving.
type disjointSet struct {
	parent map[string]string
}

func newDisjointSet(items []string) *disjointSet {
	ds := &disjointSet{parent: make(map[string]string, len(items))}
	for _, it := range items {
		ds.parent[it] = it
	}
	return ds
}

func (ds *disjointSet) has(x string) bool {
	_, ok := ds.parent[x]
	return ok
}

func (ds *disjointSet) find(x string) string {
	for ds.parent[x] != x {
		ds.parent[x] = ds.parent[ds.parent[x]]
		x = ds.parent[x]
	}
	return x
}

// union keeps the lexically smaller root so results do not depend on
// link order.
func (ds *disjointSet) union(a, b string) {
	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
}

// longestCommonPrefix returns the deepest directory shared by all paths,
// with a trailing slash. A single path is returned unchanged.
func longestCommonPrefix(paths []string) string {
	switch len(paths) {
	case 0:
		return ""
	case 1:
		return paths[0]
	}

	common := dirSegments(paths[0])
	for _, p := range paths[1:] {
		segs := dirSegments(p)
		n := 0
		for n < len(common) && n < len(segs) && common[n] == segs[n] {
			n++
		}
		common = common[:n]
		if n == 0 {
			return ""
		}
	}
	return strings.Join(common, "/") + "/"
}

// dirSegments splits the directory part of a slash-separated path.
func dirSegments(p string) []string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return nil
	}
	return strings.Split(p[:i], "/")
}
