package dedupe

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/civigraph/resolve/internal/core/model"
	"github.com/civigraph/resolve/internal/embed"
)

// embeddingIndex backs the semantic signal with dense vectors from an external
// embedder instead of the default TF-IDF space. Entities whose embedding call
// failed simply score 0 against everything.
type embeddingIndex struct {
	vectors map[string][]float32
}

func buildEmbeddingIndex(ctx context.Context, client embed.Client, entities []model.Entity, log *zap.Logger) *embeddingIndex {
	idx := &embeddingIndex{vectors: make(map[string][]float32, len(entities))}
	for _, e := range entities {
		if err := ctx.Err(); err != nil {
			log.Warn("embedding index build cancelled", zap.Error(err))
			return nil
		}
		text := strings.TrimSpace(e.Title + " " + e.Description)
		if text == "" {
			text = e.Title
		}
		vec, err := client.Embed(ctx, text)
		if err != nil {
			log.Warn("embedding failed, entity excluded from semantic scoring",
				zap.String("title", e.Title), zap.Error(err))
			continue
		}
		idx.vectors[e.Title] = vec
	}
	if len(idx.vectors) < 2 {
		log.Warn("embedding index skipped: fewer than 2 embedded entities",
			zap.Int("embedded", len(idx.vectors)))
		return nil
	}
	return idx
}

func (idx *embeddingIndex) Similarity(title1, title2 string) float64 {
	v1, ok1 := idx.vectors[title1]
	v2, ok2 := idx.vectors[title2]
	if !ok1 || !ok2 || len(v1) != len(v2) || len(v1) == 0 {
		return 0
	}
	var dot, n1, n2 float64
	for i := range v1 {
		dot += float64(v1[i]) * float64(v2[i])
		n1 += float64(v1[i]) * float64(v1[i])
		n2 += float64(v2[i]) * float64(v2[i])
	}
	if n1 == 0 || n2 == 0 {
		return 0
	}
	return clamp01(dot / (math.Sqrt(n1) * math.Sqrt(n2)))
}
