package model

// MergeCandidate is a scored, not-yet-committed proposal to absorb one entity
// into another. Scores always carries every signal name, with disabled signals
// present as 0, so downstream logic can treat the map uniformly.
type MergeCandidate struct {
	Entity1Title  string             `json:"entity1_title"`
	Entity2Title  string             `json:"entity2_title"`
	Entity1ID     string             `json:"entity1_id"`
	Entity2ID     string             `json:"entity2_id"`
	Scores        map[string]float64 `json:"scores"`
	CombinedScore float64            `json:"combined_score"`
	MergeReason   string             `json:"merge_reason"`
	PrimaryEntity string             `json:"primary_entity"`
}

// MergeRecord is one executed merge, kept for auditability.
type MergeRecord struct {
	PrimaryEntity string             `json:"primary"`
	MergedEntity  string             `json:"merged"`
	CombinedScore float64            `json:"combined_score"`
	MergeReason   string             `json:"reason"`
	Scores        map[string]float64 `json:"scores"`
}
