package dedupe

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/civigraph/resolve/internal/core/model"
)

var (
	tokenPattern = regexp.MustCompile(`\b\w+\b`)
	punctPattern = regexp.MustCompile(`[^\w\s]`)
)

// titleStopWords is the fixed stop-word set stripped before token overlap
// comparison.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
}

// roleVocabulary lists known civic roles, checked in order. A title "carries"
// a role when the role appears anywhere in it.
var roleVocabulary = []string{
	"mayor", "commissioner", "councilman", "councilwoman",
	"director", "manager", "chief",
}

// scorer computes the per-pair similarity signals. It holds only read-only
// state and is safe to share across workers.
type scorer struct {
	cfg      *Config
	semantic semanticIndex
}

// scorePair returns all seven signals for the candidate pair. Disabled signals
// are present in the map as 0 so the result shape is uniform.
func (s *scorer) scorePair(e1, e2 *model.Entity) map[string]float64 {
	t1 := strings.ToLower(strings.TrimSpace(e1.Title))
	t2 := strings.ToLower(strings.TrimSpace(e2.Title))

	scores := map[string]float64{
		SignalStringSimilarity:   stringSimilarity(t1, t2),
		SignalTokenOverlap:       0,
		SignalPartialNameMatch:   0,
		SignalAbbreviationMatch:  0,
		SignalRoleMatch:          0,
		SignalGraphStructure:     0,
		SignalSemanticSimilarity: 0,
	}

	if s.cfg.EnableTokenMatching {
		scores[SignalTokenOverlap] = tokenOverlapSimilarity(t1, t2)
	}
	if s.cfg.EnablePartialNameMatching {
		scores[SignalPartialNameMatch] = partialNameSimilarity(t1, t2)
	}
	if s.cfg.EnableAbbreviationMatching {
		scores[SignalAbbreviationMatch] = abbreviationSimilarity(t1, t2)
	}
	if s.cfg.EnableRoleMatching {
		scores[SignalRoleMatch] = roleSimilarity(t1, t2)
	}
	if s.cfg.EnableGraphStructureMatching {
		scores[SignalGraphStructure] = s.graphStructureSimilarity(e1, e2)
	}
	if s.cfg.EnableSemanticMatching && s.semantic != nil {
		scores[SignalSemanticSimilarity] = s.semantic.Similarity(e1.Title, e2.Title)
	}
	return scores
}

// stringSimilarity is the max of a normalized edit-distance similarity and the
// contiguous-block match ratio.
func stringSimilarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		maxLen = 1
	}
	levSim := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	ratio := matchRatio(a, b)
	if levSim > ratio {
		return levSim
	}
	return ratio
}

// matchRatio is twice the total length of recursively matched longest common
// substrings divided by the combined length of both strings.
func matchRatio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchedLength(ar, br)) / float64(total)
}

func matchedLength(a, b []rune) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchedLength(a[:ai], b[:bi]) +
		matchedLength(a[ai+size:], b[bi+size:])
}

// longestCommonBlock finds the leftmost longest common substring of a and b.
func longestCommonBlock(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

// tokenOverlapSimilarity is the Jaccard similarity of the stop-word-stripped
// token sets, with a flat +0.2 bonus for meaningful subset matches.
func tokenOverlapSimilarity(a, b string) float64 {
	set1 := tokenSet(a)
	set2 := tokenSet(b)
	if len(set1) == 0 || len(set2) == 0 {
		return 0
	}

	inter := 0
	for t := range set1 {
		if _, ok := set2[t]; ok {
			inter++
		}
	}
	union := len(set1) + len(set2) - inter
	if union == 0 {
		return 0
	}
	jaccard := float64(inter) / float64(union)

	minTokens := len(set1)
	if len(set2) < minTokens {
		minTokens = len(set2)
	}
	if inter == minTokens { // one set is a subset of the other
		if minTokens >= 2 || (minTokens == 1 && jaccard >= 0.5) {
			if jaccard+0.2 > 1 {
				return 1
			}
			return jaccard + 0.2
		}
	}
	return jaccard
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if _, stop := titleStopWords[tok]; !stop {
			set[tok] = struct{}{}
		}
	}
	return set
}

// partialNameSimilarity is the fraction of the shorter token list that
// literally appears in the longer one. Stop-words are kept here.
func partialNameSimilarity(a, b string) float64 {
	tokens1 := tokenPattern.FindAllString(a, -1)
	tokens2 := tokenPattern.FindAllString(b, -1)

	shorter, longer := tokens1, tokens2
	if len(tokens1) > len(tokens2) {
		shorter, longer = tokens2, tokens1
	}
	if len(shorter) == 0 {
		return 0
	}
	longerSet := make(map[string]struct{}, len(longer))
	for _, t := range longer {
		longerSet[t] = struct{}{}
	}
	matches := 0
	for _, t := range shorter {
		if _, ok := longerSet[t]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(shorter))
}

// abbreviationSimilarity checks both directions for (a) the shorter string
// matching the initials of the longer one, and (b) token-by-token single
// character prefix matches like "V. Lago" against "Vince Lago".
func abbreviationSimilarity(a, b string) float64 {
	s1 := abbreviationPattern(a, b)
	s2 := abbreviationPattern(b, a)
	if s1 > s2 {
		return s1
	}
	return s2
}

func abbreviationPattern(short, long string) float64 {
	shortClean := strings.TrimSpace(punctPattern.ReplaceAllString(short, ""))
	longClean := strings.TrimSpace(punctPattern.ReplaceAllString(long, ""))

	var initials strings.Builder
	for _, w := range tokenPattern.FindAllString(longClean, -1) {
		r := []rune(w)
		initials.WriteRune(r[0])
	}
	collapsed := strings.ToLower(strings.ReplaceAll(shortClean, " ", ""))
	if collapsed != "" && collapsed == strings.ToLower(initials.String()) {
		return 1
	}

	shortParts := strings.Fields(shortClean)
	longParts := strings.Fields(longClean)
	if len(shortParts) != len(longParts) || len(shortParts) == 0 {
		return 0
	}
	matches := 0
	for i := range shortParts {
		sp := strings.ToLower(shortParts[i])
		lp := strings.ToLower(longParts[i])
		if sp == lp || (utf8.RuneCountInString(sp) == 1 && strings.HasPrefix(lp, sp)) {
			matches++
		}
	}
	return float64(matches) / float64(len(shortParts))
}

// roleSimilarity strips the role vocabulary from both titles. With exactly one
// role present, the stripped remainder is compared against the other full
// title; with two, the roles must match before the remainders are compared.
func roleSimilarity(a, b string) float64 {
	role1, name1 := extractRole(a)
	role2, name2 := extractRole(b)

	switch {
	case role1 != "" && role2 == "":
		return stringSimilarity(name1, b)
	case role2 != "" && role1 == "":
		return stringSimilarity(name2, a)
	case role1 != "" && role2 != "":
		if role1 != role2 {
			return 0
		}
		return stringSimilarity(name1, name2)
	default:
		return 0
	}
}

func extractRole(title string) (role, remainder string) {
	for _, r := range roleVocabulary {
		if strings.Contains(title, r) {
			return r, strings.TrimSpace(strings.ReplaceAll(title, r, ""))
		}
	}
	return "", title
}

// graphStructureSimilarity averages the neighbor-set Jaccard similarity with a
// clustering-coefficient closeness term. Two entities with no relationships at
// all score 1.0; that inflates scores for isolated pairs, but the behavior is
// load-bearing for merge outcomes and is kept as is.
func (s *scorer) graphStructureSimilarity(e1, e2 *model.Entity) float64 {
	n1, n2 := e1.Neighbors, e2.Neighbors
	if len(n1) == 0 && len(n2) == 0 {
		return 1
	}
	if len(n1) == 0 || len(n2) == 0 {
		return 0
	}

	inter := 0
	for t := range n1 {
		if _, ok := n2[t]; ok {
			inter++
		}
	}
	union := len(n1) + len(n2) - inter
	jaccard := float64(inter) / float64(union)

	diff := e1.ClusteringCoeff - e2.ClusteringCoeff
	if diff < 0 {
		diff = -diff
	}
	scaled := diff / s.cfg.ClusteringTolerance
	if scaled > 1 {
		scaled = 1
	}
	coeffSim := 1 - scaled

	return (jaccard + coeffSim) / 2
}
