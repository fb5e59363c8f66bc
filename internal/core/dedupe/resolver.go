package dedupe

import (
	"strings"

	"go.uber.org/zap"

	"github.com/civigraph/resolve/internal/core/model"
)

// resolveMerges executes the ranked candidate list greedily. Once a title has
// been absorbed it is frozen: any later candidate touching it is skipped and
// recorded as a near miss. Strictly single-threaded; the skip state has
// sequential dependencies.
func resolveMerges(entities []model.Entity, candidates []model.MergeCandidate, log *zap.Logger) ([]model.Entity, []model.MergeRecord, []model.MergeCandidate) {
	work := make([]model.Entity, len(entities))
	copy(work, entities)
	byTitle := make(map[string]*model.Entity, len(work))
	for i := range work {
		byTitle[work[i].Title] = &work[i]
	}

	removed := make(map[string]struct{})
	mergeMap := make(map[string]string)
	var records []model.MergeRecord
	var nearMisses []model.MergeCandidate

	for _, cand := range candidates {
		if _, gone := removed[cand.Entity1Title]; !gone {
			_, gone = removed[cand.Entity2Title]
			if !gone {
				keepTitle := cand.PrimaryEntity
				dropTitle := cand.Entity1Title
				if dropTitle == keepTitle {
					dropTitle = cand.Entity2Title
				}
				keep, ok1 := byTitle[keepTitle]
				drop, ok2 := byTitle[dropTitle]
				if !ok1 || !ok2 {
					continue
				}

				mergeInto(keep, drop)
				removed[dropTitle] = struct{}{}
				mergeMap[dropTitle] = keepTitle
				records = append(records, model.MergeRecord{
					PrimaryEntity: keepTitle,
					MergedEntity:  dropTitle,
					CombinedScore: cand.CombinedScore,
					MergeReason:   cand.MergeReason,
					Scores:        cand.Scores,
				})
				log.Info("entities merged",
					zap.String("primary", keepTitle),
					zap.String("merged", dropTitle),
					zap.Float64("combined_score", cand.CombinedScore),
					zap.String("reason", cand.MergeReason),
					zap.Any("scores", cand.Scores))
				continue
			}
		}
		nearMisses = append(nearMisses, cand)
	}

	final := work[:0:0]
	for i := range work {
		if _, gone := removed[work[i].Title]; !gone {
			final = append(final, work[i])
		}
	}
	return final, records, nearMisses
}

// mergeInto folds drop into keep: the description is augmented unless already
// present, and drop's title plus its own aliases land directly on keep so the
// alias list stays flat.
func mergeInto(keep, drop *model.Entity) {
	if drop.Description != "" && !strings.Contains(keep.Description, drop.Description) {
		keep.Description = strings.TrimSpace(
			keep.Description + "\n[Also known as: " + drop.Title + "] " + drop.Description)
	} else {
		keep.Description = strings.TrimSpace(
			keep.Description + "\n[Also known as: " + drop.Title + "]")
	}

	if !keep.HasAlias(drop.Title) {
		keep.Aliases = append(keep.Aliases, drop.Title)
	}
	for _, a := range drop.Aliases {
		if a != keep.Title && !keep.HasAlias(a) {
			keep.Aliases = append(keep.Aliases, a)
		}
	}
}
