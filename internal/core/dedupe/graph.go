package dedupe

import "github.com/civigraph/resolve/internal/core/model"

// computeGraphFeatures derives neighbor sets, local clustering coefficients and
// degree centrality for every entity from the undirected relationship graph.
// Multi-edges collapse to one, self-edges are ignored, and edge endpoints that
// are not themselves entities still count as neighbors. The input slice is not
// mutated; a copy with the derived fields populated is returned.
func computeGraphFeatures(entities []model.Entity, relationships []model.Relationship) []model.Entity {
	adj := make(map[string]map[string]struct{})
	for _, rel := range relationships {
		if rel.Source == "" || rel.Target == "" || rel.Source == rel.Target {
			continue
		}
		if adj[rel.Source] == nil {
			adj[rel.Source] = make(map[string]struct{})
		}
		if adj[rel.Target] == nil {
			adj[rel.Target] = make(map[string]struct{})
		}
		adj[rel.Source][rel.Target] = struct{}{}
		adj[rel.Target][rel.Source] = struct{}{}
	}

	out := make([]model.Entity, len(entities))
	for i, e := range entities {
		out[i] = e
		neighbors := adj[e.Title]
		if len(neighbors) == 0 {
			out[i].Neighbors = map[string]struct{}{}
			out[i].ClusteringCoeff = 0
			out[i].DegreeCentrality = 0
			continue
		}
		ns := make(map[string]struct{}, len(neighbors))
		for n := range neighbors {
			ns[n] = struct{}{}
		}
		out[i].Neighbors = ns
		out[i].DegreeCentrality = len(ns)
		out[i].ClusteringCoeff = clusteringCoefficient(adj, neighbors)
	}
	return out
}

// clusteringCoefficient is the fraction of neighbor pairs that are themselves
// connected; 0 for nodes with fewer than 2 neighbors.
func clusteringCoefficient(adj map[string]map[string]struct{}, neighbors map[string]struct{}) float64 {
	k := len(neighbors)
	if k < 2 {
		return 0
	}
	titles := make([]string, 0, k)
	for n := range neighbors {
		titles = append(titles, n)
	}
	links := 0
	for i := 0; i < len(titles); i++ {
		for j := i + 1; j < len(titles); j++ {
			if _, ok := adj[titles[i]][titles[j]]; ok {
				links++
			}
		}
	}
	return float64(2*links) / float64(k*(k-1))
}
