package http

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"curationsapi/src/domain"
)

// listParams are the query keys that are never read as field filters.
var listParams = map[string]bool{
	"filter":     true,
	"sort_by":    true,
	"sort_order": true,
	"page":       true,
	"per_page":   true,
	"offset":     true,
}

// ListCurations aceita filter=campo:valor,campo:valor ou campo=valor direto na query,
// além de sort_by, sort_order, page, per_page e offset. Campos fora da allow-list viram 400 no service.
func (s *Server) ListCurations(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	page, err := s.curationService.ListCurations(r.Context(), query)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, http.StatusOK, mapPageToResponse(page))
}

func parseListQuery(values url.Values) (domain.ListQuery, error) {
	query := domain.ListQuery{
		SortBy:    values.Get("sort_by"),
		SortOrder: domain.SortOrder(strings.ToLower(values.Get("sort_order"))),
	}

	if raw := values.Get("filter"); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			field, value, found := strings.Cut(pair, ":")
			if !found || strings.TrimSpace(field) == "" {
				return domain.ListQuery{}, domain.NewValidationError("filter", "expected field:value pairs")
			}
			query.Filters = append(query.Filters, domain.Filter{Field: strings.TrimSpace(field), Value: value})
		}
	}

	fields := make([]string, 0, len(values))
	for field := range values {
		if !listParams[field] {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	for _, field := range fields {
		for _, value := range values[field] {
			query.Filters = append(query.Filters, domain.Filter{Field: field, Value: value})
		}
	}

	var err error
	if query.Page, err = intParam(values, "page"); err != nil {
		return domain.ListQuery{}, err
	}
	if query.PerPage, err = intParam(values, "per_page"); err != nil {
		return domain.ListQuery{}, err
	}
	if query.Offset, err = intParam(values, "offset"); err != nil {
		return domain.ListQuery{}, err
	}

	return query, nil
}

func intParam(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return value, nil
}
