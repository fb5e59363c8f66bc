package dedupe

import (
	"sort"
	"strings"

	"github.com/civigraph/resolve/internal/core/model"
)

// pair indexes two entities in the working slice, i < j.
type pair struct {
	i, j int
}

type bucketKey struct {
	first  rune
	length int
}

// comparisonPairs partitions entities into (first character, title length/5)
// buckets and emits every pair within a bucket, then adds every pair among
// high-connectivity entities (degree >= threshold) regardless of bucket. Each
// unordered pair appears once. The result is deterministic for a fixed entity
// slice: buckets are visited in sorted key order and members keep input order.
func comparisonPairs(entities []model.Entity, highConnectivityThreshold int) []pair {
	buckets := make(map[bucketKey][]int)
	for i, e := range entities {
		title := strings.ToLower(strings.TrimSpace(e.Title))
		key := bucketKey{}
		runes := []rune(title)
		if len(runes) > 0 {
			key.first = runes[0]
		}
		key.length = len(runes) / 5
		buckets[key] = append(buckets[key], i)
	}

	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].first != keys[b].first {
			return keys[a].first < keys[b].first
		}
		return keys[a].length < keys[b].length
	})

	var pairs []pair
	seen := make(map[pair]struct{})
	add := func(i, j int) {
		if j < i {
			i, j = j, i
		}
		p := pair{i, j}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}

	for _, k := range keys {
		members := buckets[k]
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				add(members[a], members[b])
			}
		}
	}

	var connected []int
	for i, e := range entities {
		if e.DegreeCentrality >= highConnectivityThreshold {
			connected = append(connected, i)
		}
	}
	for a := 0; a < len(connected); a++ {
		for b := a + 1; b < len(connected); b++ {
			add(connected[a], connected[b])
		}
	}

	return pairs
}
