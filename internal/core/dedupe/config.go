package dedupe

import "fmt"

// Signal names. Every score map produced by the engine is keyed by exactly
// this set.
const (
	SignalStringSimilarity   = "string_similarity"
	SignalTokenOverlap       = "token_overlap"
	SignalPartialNameMatch   = "partial_name_match"
	SignalAbbreviationMatch  = "abbreviation_match"
	SignalRoleMatch          = "role_match"
	SignalGraphStructure     = "graph_structure"
	SignalSemanticSimilarity = "semantic_similarity"
)

// Weights for the four signals that enter the weighted combination. The three
// remaining signals (partial name, abbreviation, role) only contribute through
// the capped bonus.
type Weights struct {
	StringSimilarity   float64 `toml:"string_similarity" json:"string_similarity"`
	TokenOverlap       float64 `toml:"token_overlap" json:"token_overlap"`
	GraphStructure     float64 `toml:"graph_structure" json:"graph_structure"`
	SemanticSimilarity float64 `toml:"semantic_similarity" json:"semantic_similarity"`
}

// Config controls one deduplication run. It is immutable for the duration of
// the run. Obtain one from Preset and override fields before calling New.
type Config struct {
	Name             string  `json:"name"`
	MinCombinedScore float64 `json:"min_combined_score"`
	Weights          Weights `json:"weights"`

	EnableTokenMatching          bool `json:"enable_token_matching"`
	EnablePartialNameMatching    bool `json:"enable_partial_name_matching"`
	EnableAbbreviationMatching   bool `json:"enable_abbreviation_matching"`
	EnableRoleMatching           bool `json:"enable_role_matching"`
	EnableGraphStructureMatching bool `json:"enable_graph_structure_matching"`
	EnableSemanticMatching       bool `json:"enable_semantic_matching"`

	ClusteringTolerance       float64 `json:"clustering_tolerance"`
	HighConnectivityThreshold int     `json:"high_connectivity_threshold"`

	// Workers is the comparison pool size. 1 means sequential; 0 picks a
	// sensible default at run time.
	Workers int `json:"workers"`

	// NearMissLimit caps the unresolved candidates recorded in the report.
	NearMissLimit int `json:"near_miss_limit"`
}

// Preset names accepted by PresetByName.
const (
	PresetAggressive   = "aggressive"
	PresetConservative = "conservative"
	PresetNameFocused  = "name_focused"
)

// AggressivePreset favors network evidence and merges readily.
func AggressivePreset() Config {
	return Config{
		Name:             PresetAggressive,
		MinCombinedScore: 0.75,
		Weights: Weights{
			StringSimilarity:   0.2,
			TokenOverlap:       0.2,
			GraphStructure:     0.4,
			SemanticSimilarity: 0.2,
		},
		EnableTokenMatching:          true,
		EnablePartialNameMatching:    true,
		EnableAbbreviationMatching:   true,
		EnableRoleMatching:           true,
		EnableGraphStructureMatching: true,
		EnableSemanticMatching:       true,
		ClusteringTolerance:          0.2,
		HighConnectivityThreshold:    5,
		NearMissLimit:                10,
	}
}

// ConservativePreset requires near-exact names and disables role matching.
func ConservativePreset() Config {
	return Config{
		Name:             PresetConservative,
		MinCombinedScore: 0.85,
		Weights: Weights{
			StringSimilarity:   0.4,
			TokenOverlap:       0.1,
			GraphStructure:     0.4,
			SemanticSimilarity: 0.1,
		},
		EnableTokenMatching:          true,
		EnablePartialNameMatching:    true,
		EnableAbbreviationMatching:   true,
		EnableRoleMatching:           false,
		EnableGraphStructureMatching: true,
		EnableSemanticMatching:       true,
		ClusteringTolerance:          0.1,
		HighConnectivityThreshold:    5,
		NearMissLimit:                10,
	}
}

// NameFocusedPreset is the balanced default.
func NameFocusedPreset() Config {
	return Config{
		Name:             PresetNameFocused,
		MinCombinedScore: 0.8,
		Weights: Weights{
			StringSimilarity:   0.2,
			TokenOverlap:       0.3,
			GraphStructure:     0.3,
			SemanticSimilarity: 0.2,
		},
		EnableTokenMatching:          true,
		EnablePartialNameMatching:    true,
		EnableAbbreviationMatching:   true,
		EnableRoleMatching:           true,
		EnableGraphStructureMatching: true,
		EnableSemanticMatching:       true,
		ClusteringTolerance:          0.15,
		HighConnectivityThreshold:    5,
		NearMissLimit:                10,
	}
}

// PresetByName resolves a preset name. Unknown names are rejected.
func PresetByName(name string) (Config, error) {
	switch name {
	case PresetAggressive:
		return AggressivePreset(), nil
	case PresetConservative:
		return ConservativePreset(), nil
	case PresetNameFocused, "":
		return NameFocusedPreset(), nil
	default:
		return Config{}, fmt.Errorf("unknown deduplication preset %q", name)
	}
}

// Validate rejects configurations that would produce scores outside [0,1] or
// make the run degenerate.
func (c *Config) Validate() error {
	if c.MinCombinedScore < 0 || c.MinCombinedScore > 1 {
		return fmt.Errorf("min_combined_score %v out of range [0,1]", c.MinCombinedScore)
	}
	for name, w := range map[string]float64{
		SignalStringSimilarity:   c.Weights.StringSimilarity,
		SignalTokenOverlap:       c.Weights.TokenOverlap,
		SignalGraphStructure:     c.Weights.GraphStructure,
		SignalSemanticSimilarity: c.Weights.SemanticSimilarity,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("weight for %s is %v, want [0,1]", name, w)
		}
	}
	if c.ClusteringTolerance <= 0 {
		return fmt.Errorf("clustering_tolerance %v must be positive", c.ClusteringTolerance)
	}
	if c.HighConnectivityThreshold < 0 {
		return fmt.Errorf("high_connectivity_threshold %d must be >= 0", c.HighConnectivityThreshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d must be >= 0", c.Workers)
	}
	if c.NearMissLimit < 0 {
		return fmt.Errorf("near_miss_limit %d must be >= 0", c.NearMissLimit)
	}
	return nil
}
