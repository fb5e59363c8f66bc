package dedupe

import (
	"unicode/utf8"

	"github.com/civigraph/resolve/internal/core/model"
)

// combineScores merges the individual signals into one score in [0,1].
//
// High token overlap paired with low character similarity and no structural
// corroboration is the classic false-positive shape (a bare surname against a
// full name); those pairs are rejected outright before weighting.
func (s *scorer) combineScores(scores map[string]float64) float64 {
	if scores[SignalTokenOverlap] > 0.7 &&
		scores[SignalStringSimilarity] < 0.8 &&
		scores[SignalGraphStructure] < 0.6 {
		return 0
	}

	type weighted struct {
		signal  string
		weight  float64
		enabled bool
	}
	parts := []weighted{
		{SignalStringSimilarity, s.cfg.Weights.StringSimilarity, true},
		{SignalTokenOverlap, s.cfg.Weights.TokenOverlap, s.cfg.EnableTokenMatching},
		{SignalGraphStructure, s.cfg.Weights.GraphStructure, s.cfg.EnableGraphStructureMatching},
		{SignalSemanticSimilarity, s.cfg.Weights.SemanticSimilarity, s.cfg.EnableSemanticMatching},
	}

	var combined, totalWeight float64
	for _, p := range parts {
		if !p.enabled {
			continue
		}
		combined += scores[p.signal] * p.weight
		totalWeight += p.weight
	}

	maxBonus := scores[SignalPartialNameMatch]
	if scores[SignalAbbreviationMatch] > maxBonus {
		maxBonus = scores[SignalAbbreviationMatch]
	}
	if scores[SignalRoleMatch] > maxBonus {
		maxBonus = scores[SignalRoleMatch]
	}
	bonus := maxBonus * 0.2
	if bonus > 0.2 {
		bonus = 0.2
	}

	if totalWeight == 0 {
		return 0
	}
	final := combined/totalWeight + bonus
	if final > 1 {
		return 1
	}
	return final
}

// validateCandidate applies the second-pass corroboration checks to a pair
// that already met the score threshold.
func validateCandidate(e1, e2 *model.Entity, scores map[string]float64, combined float64) bool {
	// A token overlap exceeding the character similarity signals a
	// partial/subset match; it needs at least one independent signal.
	if scores[SignalTokenOverlap] > scores[SignalStringSimilarity] {
		strongEvidence := scores[SignalGraphStructure] > 0.7 ||
			scores[SignalSemanticSimilarity] > 0.8 ||
			scores[SignalAbbreviationMatch] > 0.8 ||
			scores[SignalRoleMatch] > 0.7
		if !strongEvidence {
			return false
		}
	}

	if e1.Description != "" && e2.Description != "" {
		l1 := utf8.RuneCountInString(e1.Description)
		l2 := utf8.RuneCountInString(e2.Description)
		longer, shorter := l1, l2
		if l2 > l1 {
			longer, shorter = l2, l1
		}
		if longer > 3*shorter {
			return combined > 0.9
		}
	}
	return true
}

// mergeReason picks the reason tag: a special pattern above 0.7 wins first,
// otherwise the highest weighted signal, ties broken in listed order.
func mergeReason(scores map[string]float64) string {
	for _, special := range []string{
		SignalPartialNameMatch,
		SignalAbbreviationMatch,
		SignalRoleMatch,
	} {
		if scores[special] > 0.7 {
			return special
		}
	}

	reason := SignalStringSimilarity
	best := scores[SignalStringSimilarity]
	for _, signal := range []string{
		SignalTokenOverlap,
		SignalGraphStructure,
		SignalSemanticSimilarity,
	} {
		if scores[signal] > best {
			best = scores[signal]
			reason = signal
		}
	}
	return reason
}

// primaryTitle selects the surviving entity: higher degree centrality, then
// longer title, then lexicographically smaller title.
func primaryTitle(e1, e2 *model.Entity) string {
	if e1.DegreeCentrality != e2.DegreeCentrality {
		if e1.DegreeCentrality > e2.DegreeCentrality {
			return e1.Title
		}
		return e2.Title
	}
	l1 := utf8.RuneCountInString(e1.Title)
	l2 := utf8.RuneCountInString(e2.Title)
	if l1 != l2 {
		if l1 > l2 {
			return e1.Title
		}
		return e2.Title
	}
	if e1.Title < e2.Title {
		return e1.Title
	}
	return e2.Title
}
