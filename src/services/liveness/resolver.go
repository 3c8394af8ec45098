package liveness

import (
	"context"
	"fmt"

	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/catalog"
)

// CatalogClient fetches a single entity from the catalog read API.
type CatalogClient interface {
	GetEntity(ctx context.Context, entity string, id string) (catalog.Record, error)
}

// Resolver produces the catalog record a curation has to be compared against.
// A nil record with a nil error means the target does not exist (yet).
type Resolver interface {
	Resolve(ctx context.Context, curation entities.Curation) (catalog.Record, error)
}

// DirectResolver reads GET /{entity}/{entity_id}.
type DirectResolver struct {
	catalog CatalogClient
}

func NewDirectResolver(client CatalogClient) *DirectResolver {
	return &DirectResolver{catalog: client}
}

func (r *DirectResolver) Resolve(ctx context.Context, curation entities.Curation) (catalog.Record, error) {
	return r.catalog.GetEntity(ctx, curation.Entity, curation.EntityID)
}

// NestedInParentResolver handles entities only embedded in a parent record: the entity lookup
// yields the parent id, then the entity is searched by id in the parent's list field.
type NestedInParentResolver struct {
	catalog      CatalogClient
	parentEntity string
	parentField  string
	listField    string
}

func NewNestedInParentResolver(client CatalogClient, parentEntity string, parentField string, listField string) *NestedInParentResolver {
	return &NestedInParentResolver{
		catalog:      client,
		parentEntity: parentEntity,
		parentField:  parentField,
		listField:    listField,
	}
}

func (r *NestedInParentResolver) Resolve(ctx context.Context, curation entities.Curation) (catalog.Record, error) {
	child, err := r.catalog.GetEntity(ctx, curation.Entity, curation.EntityID)
	if err != nil {
		return nil, err
	}

	parentID := catalog.BareID(child[r.parentField])
	if parentID == "" {
		return nil, fmt.Errorf("%s %s has no %s: %w", curation.Entity, curation.EntityID, r.parentField, catalog.ErrExternalFetch)
	}

	parent, err := r.catalog.GetEntity(ctx, r.parentEntity, parentID)
	if err != nil {
		return nil, err
	}

	return FindNested(parent, r.listField, curation.EntityID), nil
}

// FindNested returns the element of parent[listField] whose id is targetID, or nil.
// Ids are matched verbatim first and then by their bare trailing segment.
func FindNested(parent catalog.Record, listField string, targetID string) catalog.Record {
	items, ok := parent[listField].([]any)
	if !ok {
		return nil
	}

	for _, item := range items {
		var nested map[string]any
		switch v := item.(type) {
		case map[string]any:
			nested = v
		case catalog.Record:
			nested = v
		default:
			continue
		}

		id, _ := nested["id"].(string)
		if id == targetID || (id != "" && catalog.BareID(id) == catalog.BareID(targetID)) {
			return catalog.Record(nested)
		}
	}

	return nil
}

// ResolverRegistry selects the resolver strategy by entity type, falling back to direct fetch.
type ResolverRegistry struct {
	byEntity map[string]Resolver
	fallback Resolver
}

// NewResolverRegistry wires the catalog's entity types: locations live inside works.
func NewResolverRegistry(client CatalogClient) *ResolverRegistry {
	return &ResolverRegistry{
		byEntity: map[string]Resolver{
			entities.EntityLocations: NewNestedInParentResolver(client, entities.EntityWorks, "work_id", "locations"),
		},
		fallback: NewDirectResolver(client),
	}
}

func (r *ResolverRegistry) For(entity string) Resolver {
	if resolver, ok := r.byEntity[entity]; ok {
		return resolver
	}
	return r.fallback
}

func (r *ResolverRegistry) Resolve(ctx context.Context, curation entities.Curation) (catalog.Record, error) {
	return r.For(curation.Entity).Resolve(ctx, curation)
}
