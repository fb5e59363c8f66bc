package driver

import (
	"context"
	"fmt"

	"github.com/civigraph/resolve/internal/core/model"
)

// Store is the typed load/save surface over a graph driver. Entities are read
// once before a run and written once after; the merge pass itself never
// touches the store.
type Store struct {
	Driver GraphDriver
}

func NewStore(d GraphDriver) *Store {
	return &Store{Driver: d}
}

// LoadGraph reads the full entity and relationship tables for a group.
func (s *Store) LoadGraph(ctx context.Context, groupID string) ([]model.Entity, []model.Relationship, error) {
	res, err := s.Driver.ExecuteQuery(ctx, LoadEntitiesQuery, map[string]interface{}{"group_id": groupID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load entities: %w", err)
	}

	var entities []model.Entity
	for _, rec := range res.Records {
		e := model.Entity{
			ID:          stringValue(rec.AsMap(), "id"),
			Title:       stringValue(rec.AsMap(), "title"),
			Description: stringValue(rec.AsMap(), "description"),
			Type:        stringValue(rec.AsMap(), "type"),
		}
		if raw, ok := rec.Get("aliases"); ok {
			if list, ok := raw.([]interface{}); ok {
				for _, a := range list {
					if str, ok := a.(string); ok {
						e.Aliases = append(e.Aliases, str)
					}
				}
			}
		}
		entities = append(entities, e)
	}

	res, err = s.Driver.ExecuteQuery(ctx, LoadRelationshipsQuery, map[string]interface{}{"group_id": groupID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load relationships: %w", err)
	}

	var relationships []model.Relationship
	for _, rec := range res.Records {
		m := rec.AsMap()
		rel := model.Relationship{
			Source:      stringValue(m, "source"),
			Target:      stringValue(m, "target"),
			Description: stringValue(m, "description"),
		}
		if w, ok := m["weight"].(float64); ok {
			rel.Weight = w
		}
		relationships = append(relationships, rel)
	}

	return entities, relationships, nil
}

// ApplyMerges writes a deduplication outcome back: each surviving primary gets
// its merged description and aliases, absorbed entities have their edges
// rewired to the primary and are then deleted.
func (s *Store) ApplyMerges(ctx context.Context, groupID string, survivors []model.Entity, merges []model.MergeRecord) error {
	byTitle := make(map[string]*model.Entity, len(survivors))
	for i := range survivors {
		byTitle[survivors[i].Title] = &survivors[i]
	}

	// A primary can itself be absorbed by a later merge; edges always land on
	// the final absorber.
	absorbedBy := make(map[string]string, len(merges))
	for _, m := range merges {
		absorbedBy[m.MergedEntity] = m.PrimaryEntity
	}
	finalTarget := func(title string) string {
		for {
			next, ok := absorbedBy[title]
			if !ok {
				return title
			}
			title = next
		}
	}

	for _, m := range merges {
		primary, ok := byTitle[finalTarget(m.PrimaryEntity)]
		if !ok {
			return fmt.Errorf("merge target %q not among surviving entities", m.PrimaryEntity)
		}

		params := map[string]interface{}{
			"group_id":    groupID,
			"title":       primary.Title,
			"description": primary.Description,
			"aliases":     primary.Aliases,
		}
		if _, err := s.Driver.ExecuteQuery(ctx, UpdatePrimaryEntityQuery, params); err != nil {
			return fmt.Errorf("failed to update primary %q: %w", primary.Title, err)
		}

		rewire := map[string]interface{}{
			"group_id": groupID,
			"merged":   m.MergedEntity,
			"primary":  primary.Title,
		}
		if _, err := s.Driver.ExecuteQuery(ctx, RewireOutgoingQuery, rewire); err != nil {
			return fmt.Errorf("failed to rewire edges of %q: %w", m.MergedEntity, err)
		}
		if _, err := s.Driver.ExecuteQuery(ctx, RewireIncomingQuery, rewire); err != nil {
			return fmt.Errorf("failed to rewire edges of %q: %w", m.MergedEntity, err)
		}

		del := map[string]interface{}{
			"group_id": groupID,
			"merged":   m.MergedEntity,
		}
		if _, err := s.Driver.ExecuteQuery(ctx, DeleteAbsorbedEntityQuery, del); err != nil {
			return fmt.Errorf("failed to delete absorbed entity %q: %w", m.MergedEntity, err)
		}
	}
	return nil
}

func stringValue(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
