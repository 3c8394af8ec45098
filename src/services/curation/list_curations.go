package curation

import (
	"context"
	"fmt"

	"curationsapi/src/domain"
	"curationsapi/src/repositories"
)

// ListCurations devolve uma página de curations filtrada e ordenada, com o valor atual do catálogo
// para as que ainda não estão live.
func (s *CurationService) ListCurations(ctx context.Context, query domain.ListQuery) (*domain.CurationPage, error) {
	criteria, err := resolveListCriteria(query)
	if err != nil {
		return nil, err
	}

	curations, total, err := s.store.List(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("CurationService.ListCurations - failed to list curations: %w", err)
	}

	views := make([]domain.CurationView, 0, len(curations))
	for _, curation := range curations {
		views = append(views, domain.CurationView{Curation: curation})
	}

	s.enrich(ctx, views)

	return &domain.CurationPage{
		Results: views,
		Total:   total,
		Offset:  criteria.Offset,
		Page:    criteria.Offset/criteria.Limit + 1,
		PerPage: criteria.Limit,
		HasMore: criteria.Offset+len(views) < total,
	}, nil
}

// resolveListCriteria valida filtros e ordenação contra a allow-list e resolve a paginação.
// page (1-based) tem precedência sobre offset; per_page é limitado a MaxPerPage.
func resolveListCriteria(query domain.ListQuery) (repositories.ListCriteria, error) {
	for _, filter := range query.Filters {
		if !repositories.IsFilterable(filter.Field) {
			return repositories.ListCriteria{}, domain.NewValidationError(filter.Field, "unknown filter field")
		}
	}

	if query.SortBy != "" && !repositories.IsSortable(query.SortBy) {
		return repositories.ListCriteria{}, domain.NewValidationError("sort_by", fmt.Sprintf("cannot sort by %q", query.SortBy))
	}

	switch query.SortOrder {
	case "", domain.SortAsc, domain.SortDesc:
	default:
		return repositories.ListCriteria{}, domain.NewValidationError("sort_order", fmt.Sprintf("must be asc or desc, got %q", query.SortOrder))
	}

	perPage := query.PerPage
	if perPage <= 0 {
		perPage = domain.DefaultPerPage
	}
	if perPage > domain.MaxPerPage {
		perPage = domain.MaxPerPage
	}

	if query.Page < 0 {
		return repositories.ListCriteria{}, domain.NewValidationError("page", "must be 1 or greater")
	}
	if query.Offset < 0 {
		return repositories.ListCriteria{}, domain.NewValidationError("offset", "must not be negative")
	}

	offset := query.Offset
	if query.Page > 0 {
		offset = (query.Page - 1) * perPage
	}

	return repositories.ListCriteria{
		Filters:   query.Filters,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
		Limit:     perPage,
		Offset:    offset,
	}, nil
}
