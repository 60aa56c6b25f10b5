package review

import (
	"github.com/agenthands/modelstd/internal/core/model"
)

// Clusters groups proposals that should be settled together: two proposals
// are linked when they share a candidate, or when a reaction proposal
// depends on the compound of another. Only groups of two or more are
// returned, in order of first appearance.
func Clusters(proposals []model.ProposedMatch) [][]model.ProposedMatch {
	key := func(kind model.Kind, local string) string { return string(kind) + ":" + local }

	index := make(map[string]int, len(proposals))
	for i, p := range proposals {
		index[key(p.Kind, p.Local)] = i
	}

	adj := make(map[int][]int)
	link := func(a, b int) {
		if a == b {
			return
		}
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}

	byCandidate := make(map[string]int)
	for i, p := range proposals {
		for _, c := range p.Candidates {
			ck := key(p.Kind, c.Canonical)
			if j, seen := byCandidate[ck]; seen {
				link(i, j)
			} else {
				byCandidate[ck] = i
			}
			for local := range c.Substitutions {
				if j, ok := index[key(model.KindCompound, local)]; ok {
					link(i, j)
				}
			}
		}
		for _, local := range p.Unresolved {
			if j, ok := index[key(model.KindCompound, local)]; ok {
				link(i, j)
			}
		}
	}

	visited := make(map[int]bool)
	var clusters [][]model.ProposedMatch
	for i := range proposals {
		if visited[i] {
			continue
		}
		var component []int
		dfs(i, adj, visited, &component)
		if len(component) < 2 {
			continue
		}
		cluster := make([]model.ProposedMatch, 0, len(component))
		for _, j := range component {
			cluster = append(cluster, proposals[j])
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

func dfs(u int, adj map[int][]int, visited map[int]bool, component *[]int) {
	visited[u] = true
	*component = append(*component, u)
	for _, v := range adj[u] {
		if !visited[v] {
			dfs(v, adj, visited, component)
		}
	}
}
