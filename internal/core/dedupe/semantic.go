package dedupe

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/civigraph/resolve/internal/core/model"
)

// semanticIndex answers pairwise similarity lookups over the entity corpus.
// Implementations are built once per run and are safe for concurrent reads.
type semanticIndex interface {
	// Similarity returns the cosine similarity of the two entities' text
	// vectors in [0,1]. Unknown titles score 0.
	Similarity(title1, title2 string) float64
}

const maxVocabularyTerms = 1000

// tfidfIndex is a sparse term-weighted index over title+description text,
// using unigrams and bigrams with English stop-words removed and the
// vocabulary capped at maxVocabularyTerms.
type tfidfIndex struct {
	vectors map[string]map[int]float64
}

// buildTFIDFIndex vectorizes the entity corpus. It returns nil when the corpus
// is degenerate (fewer than 2 non-empty texts or an empty vocabulary), in
// which case all semantic scores are 0.
func buildTFIDFIndex(entities []model.Entity, log *zap.Logger) *tfidfIndex {
	docs := make([][]string, len(entities))
	nonEmpty := 0
	for i, e := range entities {
		text := strings.TrimSpace(e.Title + " " + e.Description)
		if text == "" {
			text = e.Title
		}
		docs[i] = ngramTerms(text)
		if len(docs[i]) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		log.Warn("semantic index skipped: corpus degenerate", zap.Int("non_empty_texts", nonEmpty))
		return nil
	}

	// Vocabulary: top terms by total corpus count, ties broken
	// lexicographically.
	counts := make(map[string]int)
	for _, terms := range docs {
		for _, t := range terms {
			counts[t]++
		}
	}
	if len(counts) == 0 {
		log.Warn("semantic index skipped: empty vocabulary")
		return nil
	}
	allTerms := make([]string, 0, len(counts))
	for t := range counts {
		allTerms = append(allTerms, t)
	}
	sort.Slice(allTerms, func(i, j int) bool {
		if counts[allTerms[i]] != counts[allTerms[j]] {
			return counts[allTerms[i]] > counts[allTerms[j]]
		}
		return allTerms[i] < allTerms[j]
	})
	if len(allTerms) > maxVocabularyTerms {
		allTerms = allTerms[:maxVocabularyTerms]
	}
	vocab := make(map[string]int, len(allTerms))
	for id, t := range allTerms {
		vocab[t] = id
	}

	df := make([]int, len(vocab))
	for _, terms := range docs {
		seen := make(map[int]struct{})
		for _, t := range terms {
			if id, ok := vocab[t]; ok {
				seen[id] = struct{}{}
			}
		}
		for id := range seen {
			df[id]++
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for id, d := range df {
		idf[id] = math.Log((1+n)/(1+float64(d))) + 1
	}

	idx := &tfidfIndex{vectors: make(map[string]map[int]float64, len(entities))}
	for i, e := range entities {
		vec := make(map[int]float64)
		for _, t := range docs[i] {
			if id, ok := vocab[t]; ok {
				vec[id] += idf[id]
			}
		}
		normalize(vec)
		idx.vectors[e.Title] = vec
	}
	log.Debug("semantic index built",
		zap.Int("documents", len(docs)),
		zap.Int("vocabulary", len(vocab)))
	return idx
}

func (idx *tfidfIndex) Similarity(title1, title2 string) float64 {
	v1, ok1 := idx.vectors[title1]
	v2, ok2 := idx.vectors[title2]
	if !ok1 || !ok2 {
		return 0
	}
	return clamp01(sparseDot(v1, v2))
}

// ngramTerms lowercases, tokenizes, strips stop-words and emits unigrams plus
// adjacent bigrams (bigrams formed after stop-word removal).
func ngramTerms(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	kept := raw[:0:0]
	for _, tok := range raw {
		if _, stop := englishStopWords[tok]; !stop {
			kept = append(kept, tok)
		}
	}
	terms := make([]string, 0, 2*len(kept))
	terms = append(terms, kept...)
	for i := 0; i+1 < len(kept); i++ {
		terms = append(terms, kept[i]+" "+kept[i+1])
	}
	return terms
}

func normalize(vec map[int]float64) {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for id := range vec {
		vec[id] /= norm
	}
}

func sparseDot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for id, w := range a {
		dot += w * b[id]
	}
	return dot
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// englishStopWords is the stop list applied before vectorizing entity text.
// Title tokenization for the lexical signals uses its own, much smaller list.
var englishStopWords = func() map[string]struct{} {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "am", "an",
		"and", "any", "are", "as", "at", "be", "because", "been", "before",
		"being", "below", "between", "both", "but", "by", "can", "could",
		"did", "do", "does", "doing", "down", "during", "each", "few", "for",
		"from", "further", "had", "has", "have", "having", "he", "her",
		"here", "hers", "herself", "him", "himself", "his", "how", "i", "if",
		"in", "into", "is", "it", "its", "itself", "just", "me", "more",
		"most", "my", "myself", "no", "nor", "not", "now", "of", "off", "on",
		"once", "only", "or", "other", "our", "ours", "ourselves", "out",
		"over", "own", "same", "she", "should", "so", "some", "such", "than",
		"that", "the", "their", "theirs", "them", "themselves", "then",
		"there", "these", "they", "this", "those", "through", "to", "too",
		"under", "until", "up", "very", "was", "we", "were", "what", "when",
		"where", "which", "while", "who", "whom", "why", "will", "with",
		"you", "your", "yours", "yourself", "yourselves",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
