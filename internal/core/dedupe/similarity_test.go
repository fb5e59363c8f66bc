package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civigraph/resolve/internal/core/model"
)

func TestStringSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, stringSimilarity("john smith", "john smith"))
	assert.Equal(t, 0.0, stringSimilarity("abc", "xyz"))

	// "jon smith" matches block "n smith" plus "jo": 9 of 19 runes matched.
	assert.InDelta(t, 18.0/19.0, stringSimilarity("john smith", "jon smith"), 1e-9)
}

func TestTokenOverlapSimilarity(t *testing.T) {
	// Same tokens in any order, subset bonus caps at 1.
	assert.Equal(t, 1.0, tokenOverlapSimilarity("john smith", "smith john"))

	// Single-token subset with jaccard >= 0.5 gets the bonus ("of" is a
	// stop-word).
	assert.InDelta(t, 0.7, tokenOverlapSimilarity("city of miami", "miami"), 1e-9)

	// Two-token subset gets the bonus on top of jaccard 2/3.
	assert.InDelta(t, 2.0/3.0+0.2, tokenOverlapSimilarity("mayor john smith", "john smith"), 1e-9)

	// Disjoint sets.
	assert.Equal(t, 0.0, tokenOverlapSimilarity("smith", "john doe"))

	// One side empty after tokenization.
	assert.Equal(t, 0.0, tokenOverlapSimilarity("", "john"))
}

func TestPartialNameSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, partialNameSimilarity("smith", "john smith"))
	assert.Equal(t, 1.0, partialNameSimilarity("john q smith", "john smith"))
	assert.Equal(t, 0.5, partialNameSimilarity("alice wong", "bob wong"))
	assert.Equal(t, 0.0, partialNameSimilarity("", "john smith"))
}

func TestAbbreviationSimilarity(t *testing.T) {
	// Single-character prefix per token, either direction.
	assert.Equal(t, 1.0, abbreviationSimilarity("v. lago", "vince lago"))
	assert.Equal(t, 1.0, abbreviationSimilarity("vince lago", "v. lago"))

	// Collapsed initials.
	assert.Equal(t, 1.0, abbreviationSimilarity("fbi", "federal bureau investigation"))

	// Partial prefix match scores the matched fraction.
	assert.InDelta(t, 0.5, abbreviationSimilarity("vince lago", "v lagon"), 1e-9)

	assert.Equal(t, 0.0, abbreviationSimilarity("john", "smith"))
}

func TestRoleSimilarity(t *testing.T) {
	// Role on one side only: stripped remainder against the full other title.
	assert.Equal(t, 1.0, roleSimilarity("mayor lago", "lago"))

	// Different roles never match.
	assert.Equal(t, 0.0, roleSimilarity("mayor vince lago", "commissioner vince lago"))

	// Same role on both sides compares the remainders.
	got := roleSimilarity("mayor vince lago", "vice mayor lago")
	assert.Greater(t, got, 0.7)

	// No role present.
	assert.Equal(t, 0.0, roleSimilarity("alice", "bob"))
}

func TestGraphStructureSimilarity(t *testing.T) {
	cfg := NameFocusedPreset()
	s := &scorer{cfg: &cfg}

	isolated1 := &model.Entity{Title: "A", Neighbors: map[string]struct{}{}}
	isolated2 := &model.Entity{Title: "B", Neighbors: map[string]struct{}{}}
	assert.Equal(t, 1.0, s.graphStructureSimilarity(isolated1, isolated2))

	connected := &model.Entity{Title: "C", Neighbors: map[string]struct{}{"X": {}}}
	assert.Equal(t, 0.0, s.graphStructureSimilarity(isolated1, connected))

	e1 := &model.Entity{Title: "D", Neighbors: map[string]struct{}{"a": {}, "b": {}, "c": {}}}
	e2 := &model.Entity{Title: "E", Neighbors: map[string]struct{}{"a": {}, "b": {}, "d": {}}}
	// Jaccard 2/4 averaged with identical clustering coefficients.
	assert.InDelta(t, 0.75, s.graphStructureSimilarity(e1, e2), 1e-9)

	// Coefficient gap beyond the tolerance zeroes the closeness term.
	e1.ClusteringCoeff = 0.5
	e2.ClusteringCoeff = 0.0
	assert.InDelta(t, 0.25, s.graphStructureSimilarity(e1, e2), 1e-9)
}

func TestScorePairDisabledSignalsStayZero(t *testing.T) {
	cfg := NameFocusedPreset()
	cfg.EnableTokenMatching = false
	cfg.EnableRoleMatching = false
	s := &scorer{cfg: &cfg}

	e1 := &model.Entity{Title: "Mayor John Smith"}
	e2 := &model.Entity{Title: "John Smith"}
	scores := s.scorePair(e1, e2)

	assert.Equal(t, 0.0, scores[SignalTokenOverlap])
	assert.Equal(t, 0.0, scores[SignalRoleMatch])
	assert.Greater(t, scores[SignalStringSimilarity], 0.0)
	assert.Equal(t, 1.0, scores[SignalPartialNameMatch])
	assert.Len(t, scores, 7)
}

func TestScorePairNormalizesCase(t *testing.T) {
	cfg := NameFocusedPreset()
	s := &scorer{cfg: &cfg}

	e1 := &model.Entity{Title: "  John Smith "}
	e2 := &model.Entity{Title: "john smith"}
	scores := s.scorePair(e1, e2)

	assert.Equal(t, 1.0, scores[SignalStringSimilarity])
	assert.Equal(t, 1.0, scores[SignalTokenOverlap])
}
