package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civigraph/resolve/internal/core/model"
)

func TestComparisonPairsBuckets(t *testing.T) {
	entities := []model.Entity{
		{Title: "john smith"}, // bucket (j, 2)
		{Title: "john smyth"}, // bucket (j, 2)
		{Title: "alice"},      // bucket (a, 1)
	}
	pairs := comparisonPairs(entities, 5)
	assert.Equal(t, []pair{{0, 1}}, pairs)
}

func TestComparisonPairsNormalizesTitles(t *testing.T) {
	entities := []model.Entity{
		{Title: "  John Smith "},
		{Title: "john smyth"},
	}
	pairs := comparisonPairs(entities, 5)
	assert.Equal(t, []pair{{0, 1}}, pairs)
}

func TestComparisonPairsHighConnectivity(t *testing.T) {
	entities := []model.Entity{
		{Title: "alice wong", DegreeCentrality: 6},
		{Title: "bob", DegreeCentrality: 1},
		{Title: "zoning board", DegreeCentrality: 7},
	}
	pairs := comparisonPairs(entities, 5)
	// Different buckets everywhere; only the high-connectivity pair survives.
	assert.Equal(t, []pair{{0, 2}}, pairs)

	// Raising the threshold removes it.
	assert.Empty(t, comparisonPairs(entities, 8))
}

func TestComparisonPairsDeduplicated(t *testing.T) {
	// Same bucket and both highly connected: the pair must appear once.
	entities := []model.Entity{
		{Title: "north pier", DegreeCentrality: 6},
		{Title: "north dock", DegreeCentrality: 6},
	}
	pairs := comparisonPairs(entities, 5)
	assert.Equal(t, []pair{{0, 1}}, pairs)
}

func TestComparisonPairsDeterministic(t *testing.T) {
	entities := []model.Entity{
		{Title: "alpha one"},
		{Title: "alpha two"},
		{Title: "beta one"},
		{Title: "beta two"},
		{Title: "alpha ten"},
	}
	first := comparisonPairs(entities, 5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, comparisonPairs(entities, 5))
	}
}
