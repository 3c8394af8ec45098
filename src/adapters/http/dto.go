package http

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
)

// CreateCurationRequestDTO keeps property_value raw so an absent key can be told apart from null.
type CreateCurationRequestDTO struct {
	Entity         string          `json:"entity"`
	EntityID       string          `json:"entity_id"`
	Property       *string         `json:"property"`
	PropertyValue  json.RawMessage `json:"property_value"`
	CreateNew      bool            `json:"create_new"`
	SubmitterEmail string          `json:"submitter_email"`
	ModeratorEmail *string         `json:"moderator_email"`
	Status         *string         `json:"status"`
}

type CreateCurationResponseDTO struct {
	ID int64 `json:"id"`
}

type UpdateStatusRequestDTO struct {
	Status         string  `json:"status"`
	ModeratorEmail *string `json:"moderator_email"`
}

type CurationDTO struct {
	ID             int64      `json:"id"`
	Status         string     `json:"status"`
	Entity         string     `json:"entity"`
	EntityID       string     `json:"entity_id"`
	Property       *string    `json:"property"`
	PropertyValue  *string    `json:"property_value"`
	CreateNew      bool       `json:"create_new"`
	SubmitterEmail *string    `json:"submitter_email"`
	ModeratorEmail *string    `json:"moderator_email"`
	SubmittedDate  time.Time  `json:"submitted_date"`
	ModeratedDate  *time.Time `json:"moderated_date"`
	LiveDate       *time.Time `json:"live_date"`
	IsLive         bool       `json:"is_live"`
	CurrentValue   any        `json:"current_value,omitempty"`
}

type ListMetaDTO struct {
	Count   int  `json:"count"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

type ListCurationsResponseDTO struct {
	Meta    ListMetaDTO   `json:"meta"`
	Results []CurationDTO `json:"results"`
}

type PendingResponseDTO struct {
	Count   int      `json:"count"`
	Results []string `json:"results"`
}

type ErrorResponseDTO struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// toDomain traduz o corpo recebido. property_value em texto é gravado como veio;
// qualquer outro valor JSON (número, booleano, objeto) é gravado na forma compacta.
func (dto CreateCurationRequestDTO) toDomain() domain.CreateCurationRequest {
	request := domain.CreateCurationRequest{
		Entity:         dto.Entity,
		EntityID:       dto.EntityID,
		Property:       dto.Property,
		CreateNew:      dto.CreateNew,
		SubmitterEmail: dto.SubmitterEmail,
		ModeratorEmail: dto.ModeratorEmail,
	}

	if dto.Status != nil {
		status := entities.CurationStatus(strings.TrimSpace(*dto.Status))
		request.Status = &status
	}

	if len(dto.PropertyValue) > 0 {
		request.PropertyValueSet = true
		request.PropertyValue = rawToText(dto.PropertyValue)
	}

	return request
}

func rawToText(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if string(trimmed) == "null" {
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return &text
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		text := string(trimmed)
		return &text
	}
	text := compact.String()
	return &text
}

func mapCurationToResponse(curation entities.Curation) CurationDTO {
	return CurationDTO{
		ID:             curation.ID,
		Status:         string(curation.Status),
		Entity:         curation.Entity,
		EntityID:       curation.EntityID,
		Property:       curation.Property,
		PropertyValue:  curation.PropertyValue,
		CreateNew:      curation.CreateNew,
		SubmitterEmail: curation.SubmitterEmail,
		ModeratorEmail: curation.ModeratorEmail,
		SubmittedDate:  curation.SubmittedDate,
		ModeratedDate:  curation.ModeratedDate,
		LiveDate:       curation.LiveDate,
		IsLive:         curation.IsLive,
	}
}

func mapPageToResponse(page *domain.CurationPage) ListCurationsResponseDTO {
	results := make([]CurationDTO, 0, len(page.Results))
	for _, view := range page.Results {
		dto := mapCurationToResponse(view.Curation)
		if view.HasCurrent {
			dto.CurrentValue = view.CurrentValue
		}
		results = append(results, dto)
	}

	return ListCurationsResponseDTO{
		Meta: ListMetaDTO{
			Count:   page.Total,
			Page:    page.Page,
			PerPage: page.PerPage,
			Offset:  page.Offset,
			HasMore: page.HasMore,
		},
		Results: results,
	}
}
