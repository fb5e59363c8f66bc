package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civigraph/resolve/internal/core/model"
)

func signalScores(overrides map[string]float64) map[string]float64 {
	scores := map[string]float64{
		SignalStringSimilarity:   0,
		SignalTokenOverlap:       0,
		SignalPartialNameMatch:   0,
		SignalAbbreviationMatch:  0,
		SignalRoleMatch:          0,
		SignalGraphStructure:     0,
		SignalSemanticSimilarity: 0,
	}
	for k, v := range overrides {
		scores[k] = v
	}
	return scores
}

func TestCombineScoresPreRejection(t *testing.T) {
	cfg := NameFocusedPreset()
	s := &scorer{cfg: &cfg}

	// High token overlap, low character similarity, no structural backup.
	scores := signalScores(map[string]float64{
		SignalStringSimilarity: 0.5,
		SignalTokenOverlap:     0.8,
		SignalGraphStructure:   0.3,
	})
	assert.Equal(t, 0.0, s.combineScores(scores))

	// Same shape but with structural corroboration survives.
	scores[SignalGraphStructure] = 0.7
	assert.Greater(t, s.combineScores(scores), 0.0)
}

func TestCombineScoresExcludesDisabledWeights(t *testing.T) {
	cfg := NameFocusedPreset()
	scores := signalScores(map[string]float64{
		SignalStringSimilarity:   1.0,
		SignalTokenOverlap:       0.6,
		SignalGraphStructure:     0.9,
		SignalSemanticSimilarity: 0.9,
	})

	s := &scorer{cfg: &cfg}
	assert.InDelta(t, 0.83, s.combineScores(scores), 1e-9)

	// Disabling semantic matching removes its weight from the denominator
	// instead of averaging in a zero.
	cfg2 := NameFocusedPreset()
	cfg2.EnableSemanticMatching = false
	s2 := &scorer{cfg: &cfg2}
	assert.InDelta(t, 0.65/0.8, s2.combineScores(scores), 1e-9)
}

func TestCombineScoresBonus(t *testing.T) {
	cfg := NameFocusedPreset()
	s := &scorer{cfg: &cfg}

	scores := signalScores(map[string]float64{
		SignalStringSimilarity:   0.5,
		SignalTokenOverlap:       0.5,
		SignalGraphStructure:     0.5,
		SignalSemanticSimilarity: 0.5,
		SignalPartialNameMatch:   1.0,
	})
	assert.InDelta(t, 0.7, s.combineScores(scores), 1e-9)

	// The combined score never exceeds 1 even with full bonus.
	full := signalScores(map[string]float64{
		SignalStringSimilarity:   1.0,
		SignalTokenOverlap:       1.0,
		SignalGraphStructure:     1.0,
		SignalSemanticSimilarity: 1.0,
		SignalAbbreviationMatch:  1.0,
	})
	assert.Equal(t, 1.0, s.combineScores(full))
}

func TestValidateCandidateTokenDominance(t *testing.T) {
	e1 := &model.Entity{Title: "Smith"}
	e2 := &model.Entity{Title: "John Smith"}

	scores := signalScores(map[string]float64{
		SignalStringSimilarity: 0.6,
		SignalTokenOverlap:     0.8,
	})
	assert.False(t, validateCandidate(e1, e2, scores, 0.85))

	scores[SignalGraphStructure] = 0.8
	assert.True(t, validateCandidate(e1, e2, scores, 0.85))

	scores[SignalGraphStructure] = 0
	scores[SignalRoleMatch] = 0.75
	assert.True(t, validateCandidate(e1, e2, scores, 0.85))
}

func TestValidateCandidateDescriptionLengths(t *testing.T) {
	long := &model.Entity{
		Title:       "Parks Department",
		Description: "Oversees all municipal parks, recreation centers, trails, community programming and seasonal events across the city.",
	}
	short := &model.Entity{Title: "Parks Dept", Description: "City parks agency."}

	scores := signalScores(map[string]float64{
		SignalStringSimilarity: 0.9,
		SignalTokenOverlap:     0.5,
	})
	assert.False(t, validateCandidate(long, short, scores, 0.85))
	assert.True(t, validateCandidate(long, short, scores, 0.92))

	// Comparable description lengths skip the extra requirement.
	short.Description = "Oversees parks, recreation centers and community programming for residents."
	assert.True(t, validateCandidate(long, short, scores, 0.85))
}

func TestMergeReason(t *testing.T) {
	// Special patterns above 0.7 win, in listed order.
	assert.Equal(t, SignalPartialNameMatch, mergeReason(signalScores(map[string]float64{
		SignalPartialNameMatch:  0.8,
		SignalAbbreviationMatch: 0.9,
	})))
	assert.Equal(t, SignalAbbreviationMatch, mergeReason(signalScores(map[string]float64{
		SignalPartialNameMatch:  0.6,
		SignalAbbreviationMatch: 0.9,
	})))
	assert.Equal(t, SignalRoleMatch, mergeReason(signalScores(map[string]float64{
		SignalRoleMatch: 0.75,
	})))

	// Otherwise the strongest weighted signal.
	assert.Equal(t, SignalTokenOverlap, mergeReason(signalScores(map[string]float64{
		SignalStringSimilarity: 0.5,
		SignalTokenOverlap:     0.7,
		SignalGraphStructure:   0.6,
	})))

	// Ties break in listed order: string similarity first.
	assert.Equal(t, SignalStringSimilarity, mergeReason(signalScores(map[string]float64{
		SignalStringSimilarity: 0.6,
		SignalGraphStructure:   0.6,
	})))
}

func TestPrimaryTitle(t *testing.T) {
	hub := &model.Entity{Title: "Bob", DegreeCentrality: 5}
	leaf := &model.Entity{Title: "Robert Johnson", DegreeCentrality: 3}
	assert.Equal(t, "Bob", primaryTitle(hub, leaf))
	assert.Equal(t, "Bob", primaryTitle(leaf, hub))

	a := &model.Entity{Title: "V. Lago"}
	b := &model.Entity{Title: "Vince Lago"}
	assert.Equal(t, "Vince Lago", primaryTitle(a, b))

	x := &model.Entity{Title: "john smith"}
	y := &model.Entity{Title: "John Smith"}
	assert.Equal(t, "John Smith", primaryTitle(x, y))
}
