package curation

import (
	"context"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/catalog"
)

// enrichableEntities são os tipos que o catálogo expõe pelo endpoint de filtro em lote.
var enrichableEntities = []string{
	entities.EntityWorks,
	entities.EntitySources,
	entities.EntityLocations,
}

// enrich preenche CurrentValue com uma chamada em lote por tipo de entidade.
// Falhas do catálogo só deixam o valor atual ausente.
func (s *CurationService) enrich(ctx context.Context, views []domain.CurationView) {
	if s.catalog == nil {
		return
	}

	for _, entity := range enrichableEntities {
		ids := pendingIDsFor(views, entity)
		if len(ids) == 0 {
			continue
		}

		records, err := s.catalog.GetEntitiesByIDs(ctx, entity, ids)
		if err != nil {
			s.logger.Warn("Skipping enrichment, catalog lookup failed",
				"entity", entity,
				"count", len(ids),
				"error", err)
			continue
		}

		for i := range views {
			view := &views[i]
			if view.Entity != entity || view.IsLive {
				continue
			}

			record, ok := records[catalog.BareID(view.EntityID)]
			if !ok {
				continue
			}

			if view.CreateNew {
				view.CurrentValue = record
				view.HasCurrent = true
				continue
			}

			if current, present := record[view.PropertyName()]; present {
				view.CurrentValue = current
				view.HasCurrent = true
			}
		}
	}
}

func pendingIDsFor(views []domain.CurationView, entity string) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)

	for _, view := range views {
		if view.Entity != entity || view.IsLive {
			continue
		}

		id := catalog.BareID(view.EntityID)
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids
}
