package model

// Entity is a named node (person, organization, department, item) produced by
// the upstream graph-indexing stage. Title is the natural key used for all
// relationship joins; ID is only carried through to reports.
type Entity struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Aliases     []string `json:"aliases,omitempty"`

	// Derived from the relationship graph before scoring. Neighbors is keyed
	// by adjacent node title.
	Neighbors        map[string]struct{} `json:"-"`
	ClusteringCoeff  float64             `json:"clustering_coeff"`
	DegreeCentrality int                 `json:"degree_centrality"`
}

// HasNeighbor reports whether title is adjacent to the entity.
func (e *Entity) HasNeighbor(title string) bool {
	_, ok := e.Neighbors[title]
	return ok
}

// HasAlias reports whether title was already recorded as an alias.
func (e *Entity) HasAlias(title string) bool {
	for _, a := range e.Aliases {
		if a == title {
			return true
		}
	}
	return false
}
