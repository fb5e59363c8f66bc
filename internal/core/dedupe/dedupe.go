// Package dedupe resolves duplicate named entities in a document-derived
// knowledge graph. It combines lexical, token, structural and semantic
// similarity signals over a blocked candidate space, then greedily merges the
// ranked survivors into a deduplicated entity set.
package dedupe

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civigraph/resolve/internal/core/model"
	"github.com/civigraph/resolve/internal/embed"
)

// Deduplicator runs the resolution pipeline for one configuration. Entities
// and relationships passed to Run are treated as read-only snapshots; results
// are returned on fresh copies.
type Deduplicator struct {
	cfg      Config
	log      *zap.Logger
	embedder embed.Client
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithLogger installs a logger. The default is a nop logger, suitable for
// library use.
func WithLogger(log *zap.Logger) Option {
	return func(d *Deduplicator) {
		if log != nil {
			d.log = log
		}
	}
}

// WithEmbedder backs the semantic signal with an external embedding client
// instead of the built-in TF-IDF index. Failures degrade to TF-IDF, never
// abort the run.
func WithEmbedder(client embed.Client) Option {
	return func(d *Deduplicator) {
		d.embedder = client
	}
}

// New validates cfg and builds a Deduplicator.
func New(cfg Config, opts ...Option) (*Deduplicator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deduplication config: %w", err)
	}
	d := &Deduplicator{
		cfg: cfg,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Result is the outcome of one deduplication run.
type Result struct {
	Entities []model.Entity `json:"entities"`
	Report   Report         `json:"report"`
}

// Report records every executed merge and the top unresolved candidates so
// any merge can be audited after the fact.
type Report struct {
	RunID              string                 `json:"run_id"`
	Timestamp          time.Time              `json:"timestamp"`
	ConfigUsed         Config                 `json:"config_used"`
	OriginalCount      int                    `json:"original_count"`
	FinalCount         int                    `json:"final_count"`
	ComparisonsTotal   int                    `json:"comparisons_total"`
	ComparisonsBlocked int                    `json:"comparisons_after_blocking"`
	Merges             []model.MergeRecord    `json:"merges"`
	NearMissCandidates []model.MergeCandidate `json:"near_miss_candidates,omitempty"`
}

// Run executes the full pipeline: graph feature analysis, optional semantic
// indexing, blocking, parallel scoring, and the sequential merge pass. The
// context is honored between phases and inside the scoring pool.
func (d *Deduplicator) Run(ctx context.Context, entities []model.Entity, relationships []model.Relationship) (*Result, error) {
	if err := validateInput(entities, relationships); err != nil {
		return nil, err
	}

	d.log.Info("starting entity deduplication",
		zap.String("preset", d.cfg.Name),
		zap.Int("entities", len(entities)),
		zap.Int("relationships", len(relationships)),
		zap.Float64("min_combined_score", d.cfg.MinCombinedScore))

	working := computeGraphFeatures(entities, relationships)

	var semantic semanticIndex
	if d.cfg.EnableSemanticMatching {
		if d.embedder != nil {
			if idx := buildEmbeddingIndex(ctx, d.embedder, working, d.log); idx != nil {
				semantic = idx
			}
		}
		if semantic == nil {
			if idx := buildTFIDFIndex(working, d.log); idx != nil {
				semantic = idx
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs := comparisonPairs(working, d.cfg.HighConnectivityThreshold)
	total := len(working) * (len(working) - 1) / 2
	d.log.Debug("blocking complete",
		zap.Int("pairs_total", total),
		zap.Int("pairs_after_blocking", len(pairs)))

	candidates, err := d.scoreCandidates(ctx, working, pairs, semantic)
	if err != nil {
		return nil, err
	}
	d.log.Info("merge candidates found", zap.Int("candidates", len(candidates)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	final, records, nearMisses := resolveMerges(working, candidates, d.log)
	if limit := d.cfg.NearMissLimit; len(nearMisses) > limit {
		nearMisses = nearMisses[:limit]
	}

	report := Report{
		RunID:              uuid.New().String(),
		Timestamp:          time.Now().UTC(),
		ConfigUsed:         d.cfg,
		OriginalCount:      len(entities),
		FinalCount:         len(final),
		ComparisonsTotal:   total,
		ComparisonsBlocked: len(pairs),
		Merges:             records,
		NearMissCandidates: nearMisses,
	}

	d.log.Info("deduplication complete",
		zap.String("run_id", report.RunID),
		zap.Int("original_count", report.OriginalCount),
		zap.Int("final_count", report.FinalCount),
		zap.Int("merges", len(records)))

	return &Result{Entities: final, Report: report}, nil
}

// scoreCandidates fans the comparison pairs out over a worker pool. Workers
// share only read-only state and return surviving candidates; ordering is
// restored by a deterministic sort after the pool joins.
func (d *Deduplicator) scoreCandidates(ctx context.Context, entities []model.Entity, pairs []pair, semantic semanticIndex) ([]model.MergeCandidate, error) {
	workers := d.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers == 0 {
		return nil, nil
	}

	sc := &scorer{cfg: &d.cfg, semantic: semantic}
	results := make([][]model.MergeCandidate, workers)
	chunk := (len(pairs) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(pairs) {
			end = len(pairs)
		}
		if start >= end {
			continue
		}
		w := w
		slice := pairs[start:end]
		g.Go(func() error {
			var found []model.MergeCandidate
			for i, p := range slice {
				if i%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if cand, ok := d.scoreOne(sc, &entities[p.i], &entities[p.j]); ok {
					found = append(found, cand)
				}
			}
			results[w] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var candidates []model.MergeCandidate
	for _, r := range results {
		candidates = append(candidates, r...)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CombinedScore != candidates[j].CombinedScore {
			return candidates[i].CombinedScore > candidates[j].CombinedScore
		}
		li, hi := orderedTitles(&candidates[i])
		lj, hj := orderedTitles(&candidates[j])
		if li != lj {
			return li < lj
		}
		return hi < hj
	})
	return candidates, nil
}

// scoreOne evaluates a single pair end to end. A scoring fault is isolated to
// the pair: it is logged and the pair treated as non-matching.
func (d *Deduplicator) scoreOne(sc *scorer, e1, e2 *model.Entity) (cand model.MergeCandidate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("pair scoring failed, treating as non-matching",
				zap.String("entity1", e1.Title),
				zap.String("entity2", e2.Title),
				zap.Any("cause", r))
			ok = false
		}
	}()

	scores := sc.scorePair(e1, e2)
	combined := sc.combineScores(scores)
	if combined < d.cfg.MinCombinedScore {
		return model.MergeCandidate{}, false
	}
	if !validateCandidate(e1, e2, scores, combined) {
		return model.MergeCandidate{}, false
	}

	return model.MergeCandidate{
		Entity1Title:  e1.Title,
		Entity2Title:  e2.Title,
		Entity1ID:     e1.ID,
		Entity2ID:     e2.ID,
		Scores:        scores,
		CombinedScore: combined,
		MergeReason:   mergeReason(scores),
		PrimaryEntity: primaryTitle(e1, e2),
	}, true
}

func orderedTitles(c *model.MergeCandidate) (lo, hi string) {
	if c.Entity1Title <= c.Entity2Title {
		return c.Entity1Title, c.Entity2Title
	}
	return c.Entity2Title, c.Entity1Title
}

// validateInput enforces the input schema before any processing: non-empty
// unique titles and well-formed relationship endpoints.
func validateInput(entities []model.Entity, relationships []model.Relationship) error {
	seen := make(map[string]struct{}, len(entities))
	for i, e := range entities {
		if e.Title == "" {
			return fmt.Errorf("entity at index %d has an empty title", i)
		}
		if _, dup := seen[e.Title]; dup {
			return fmt.Errorf("duplicate entity title %q in input set", e.Title)
		}
		seen[e.Title] = struct{}{}
	}
	for i, r := range relationships {
		if r.Source == "" || r.Target == "" {
			return fmt.Errorf("relationship at index %d is missing source or target", i)
		}
	}
	return nil
}
