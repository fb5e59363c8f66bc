package model

// Relationship is a weighted edge between two entity titles. Relationships are
// read-only for the resolver: they only feed the graph feature analysis and
// are never deduplicated themselves.
type Relationship struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}
