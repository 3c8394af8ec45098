package repositories

import (
	"fmt"
	"strconv"
	"strings"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
)

// columnSpec maps a public field name to its column and to the parser of its filter value.
type columnSpec struct {
	column   string
	parse    func(raw string) (any, error)
	sortable bool
}

func parseText(raw string) (any, error) {
	return raw, nil
}

func parseBool(raw string) (any, error) {
	return strconv.ParseBool(raw)
}

func parseID(raw string) (any, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func parseStatus(raw string) (any, error) {
	status := entities.CurationStatus(raw)
	if !status.IsValid() {
		return nil, fmt.Errorf("unknown status %q", raw)
	}
	return string(status), nil
}

// curationColumns é a lista fechada de campos que podem ser filtrados ou ordenados.
var curationColumns = map[string]columnSpec{
	"id":              {column: "id", parse: parseID, sortable: true},
	"status":          {column: "status", parse: parseStatus, sortable: true},
	"entity":          {column: "entity", parse: parseText, sortable: true},
	"entity_id":       {column: "entity_id", parse: parseText, sortable: true},
	"property":        {column: "property", parse: parseText, sortable: true},
	"property_value":  {column: "property_value", parse: parseText},
	"create_new":      {column: "create_new", parse: parseBool, sortable: true},
	"submitter_email": {column: "submitter_email", parse: parseText, sortable: true},
	"moderator_email": {column: "moderator_email", parse: parseText, sortable: true},
	"is_live":         {column: "is_live", parse: parseBool, sortable: true},
	"submitted_date":  {column: "submitted_date", sortable: true},
	"moderated_date":  {column: "moderated_date", sortable: true},
	"live_date":       {column: "live_date", sortable: true},
}

const defaultSortField = "submitted_date"

// IsFilterable reports whether the field can be used as an exact-match filter.
func IsFilterable(field string) bool {
	spec, ok := curationColumns[field]
	return ok && spec.parse != nil
}

// IsSortable reports whether the field can be used in sort_by.
func IsSortable(field string) bool {
	spec, ok := curationColumns[field]
	return ok && spec.sortable
}

// ListCriteria is the resolved listing request handed to the repository.
type ListCriteria struct {
	Filters   []domain.Filter
	SortBy    string
	SortOrder domain.SortOrder
	Limit     int
	Offset    int
}

// buildWhere translates the filters to a WHERE clause with positional arguments.
func buildWhere(filters []domain.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))

	for _, filter := range filters {
		spec, ok := curationColumns[filter.Field]
		if !ok || spec.parse == nil {
			return "", nil, domain.NewValidationError(filter.Field, "unknown filter field")
		}

		value, err := spec.parse(filter.Value)
		if err != nil {
			return "", nil, domain.NewValidationError(filter.Field, err.Error())
		}

		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", spec.column, len(args)))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// buildOrderBy uses id as a tiebreaker so pages are stable between requests.
func buildOrderBy(sortBy string, order domain.SortOrder) (string, error) {
	if sortBy == "" {
		sortBy = defaultSortField
	}

	spec, ok := curationColumns[sortBy]
	if !ok || !spec.sortable {
		return "", domain.NewValidationError("sort_by", fmt.Sprintf("cannot sort by %q", sortBy))
	}

	direction := "DESC"
	switch order {
	case domain.SortAsc:
		direction = "ASC"
	case domain.SortDesc, "":
	default:
		return "", domain.NewValidationError("sort_order", fmt.Sprintf("must be asc or desc, got %q", order))
	}

	if spec.column == "id" {
		return fmt.Sprintf(" ORDER BY id %s", direction), nil
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id %s", spec.column, direction, direction), nil
}

// BuildListQuery returns the page query and the count query sharing the same filter arguments.
func BuildListQuery(criteria ListCriteria) (string, string, []any, error) {
	where, args, err := buildWhere(criteria.Filters)
	if err != nil {
		return "", "", nil, err
	}

	orderBy, err := buildOrderBy(criteria.SortBy, criteria.SortOrder)
	if err != nil {
		return "", "", nil, err
	}

	countQuery := "SELECT COUNT(*) FROM curations" + where

	pageArgs := append(append([]any{}, args...), criteria.Limit, criteria.Offset)
	pageQuery := fmt.Sprintf("SELECT %s FROM curations%s%s LIMIT $%d OFFSET $%d",
		selectColumns, where, orderBy, len(args)+1, len(args)+2)

	return pageQuery, countQuery, pageArgs, nil
}
