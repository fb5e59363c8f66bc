// Package community groups the deduplicated entity graph into clusters of
// related entities via label propagation.
package community

import (
	"sort"

	"github.com/civigraph/resolve/internal/core/model"
)

// Group is one detected community, identified by its member titles.
type Group struct {
	Label   string   `json:"label"`
	Members []string `json:"members"`
}

// LabelPropagationDetector implements community detection using the Label
// Propagation Algorithm over the relationship graph, weighted by relationship
// weight.
type LabelPropagationDetector struct {
	MaxIterations int
}

func NewLabelPropagationDetector() *LabelPropagationDetector {
	return &LabelPropagationDetector{
		MaxIterations: 20,
	}
}

// Detect returns communities of size >= 2. Singleton labels are filtered:
// an entity alone in its label is not a cluster. Deterministic for a fixed
// input: entities are visited in sorted title order and label ties break to
// the lexicographically largest label.
func (d *LabelPropagationDetector) Detect(entities []model.Entity, relationships []model.Relationship) []Group {
	if len(entities) == 0 {
		return nil
	}

	titles := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		titles[e.Title] = struct{}{}
	}

	adj := make(map[string]map[string]float64, len(entities))
	for t := range titles {
		adj[t] = make(map[string]float64)
	}
	for _, r := range relationships {
		if _, ok := titles[r.Source]; !ok {
			continue
		}
		if _, ok := titles[r.Target]; !ok {
			continue
		}
		if r.Source == r.Target {
			continue
		}
		w := r.Weight
		if w <= 0 {
			w = 1
		}
		adj[r.Source][r.Target] += w
		adj[r.Target][r.Source] += w
	}

	labels := make(map[string]string, len(entities))
	order := make([]string, 0, len(entities))
	for _, e := range entities {
		labels[e.Title] = e.Title
		order = append(order, e.Title)
	}
	sort.Strings(order)

	for iter := 0; iter < d.MaxIterations; iter++ {
		changed := 0
		for _, u := range order {
			neighbors := adj[u]
			if len(neighbors) == 0 {
				continue
			}

			labelWeights := make(map[string]float64)
			maxWeight := 0.0
			for v, w := range neighbors {
				label := labels[v]
				labelWeights[label] += w
				if labelWeights[label] > maxWeight {
					maxWeight = labelWeights[label]
				}
			}

			var candidates []string
			for label, w := range labelWeights {
				if w == maxWeight {
					candidates = append(candidates, label)
				}
			}
			sort.Strings(candidates)
			best := candidates[len(candidates)-1]

			if labels[u] != best {
				labels[u] = best
				changed++
			}
		}
		if changed == 0 {
			break
		}
	}

	clusters := make(map[string][]string)
	for _, title := range order {
		label := labels[title]
		clusters[label] = append(clusters[label], title)
	}

	var groups []Group
	for label, members := range clusters {
		if len(members) >= 2 {
			sort.Strings(members)
			groups = append(groups, Group{Label: label, Members: members})
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Label < groups[j].Label })
	return groups
}
