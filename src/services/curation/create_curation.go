package curation

import (
	"context"
	"fmt"
	"strings"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
	"curationsapi/src/services/liveness"
)

// CreateCuration valida e grava um pedido de correção. Sem status explícito a curation já nasce aprovada.
func (s *CurationService) CreateCuration(ctx context.Context, request domain.CreateCurationRequest) (int64, error) {
	if err := validateCreateRequest(request); err != nil {
		return 0, err
	}

	status := entities.StatusApproved
	if request.Status != nil {
		status = *request.Status
	}

	now := s.now()
	submitter := request.SubmitterEmail
	curation := entities.Curation{
		Status:         status,
		Entity:         strings.TrimSpace(request.Entity),
		EntityID:       strings.TrimSpace(request.EntityID),
		Property:       request.Property,
		PropertyValue:  request.PropertyValue,
		CreateNew:      request.CreateNew,
		SubmitterEmail: &submitter,
		ModeratorEmail: request.ModeratorEmail,
		SubmittedDate:  now,
	}

	if status.IsDecided() {
		curation.ModeratedDate = &now
		if curation.ModeratorEmail == nil && s.cfg.TrustedModeratorEmail != "" {
			trusted := s.cfg.TrustedModeratorEmail
			curation.ModeratorEmail = &trusted
		}
	}

	id, err := s.store.Insert(ctx, curation)
	if err != nil {
		return 0, fmt.Errorf("CurationService.CreateCuration - failed to insert curation for %s/%s: %w", curation.Entity, curation.EntityID, err)
	}

	s.logger.Info("Curation created",
		"curation_id", id,
		"entity", curation.Entity,
		"entity_id", curation.EntityID,
		"status", curation.Status)

	return id, nil
}

func validateCreateRequest(request domain.CreateCurationRequest) error {
	if strings.TrimSpace(request.Entity) == "" {
		return domain.NewValidationError("entity", "is required")
	}
	if strings.TrimSpace(request.EntityID) == "" {
		return domain.NewValidationError("entity_id", "is required")
	}
	if strings.TrimSpace(request.SubmitterEmail) == "" {
		return domain.NewValidationError("submitter_email", "is required")
	}
	// null e "" são pedidos válidos de "limpar o campo"; só a chave ausente é rejeitada.
	if !request.PropertyValueSet {
		return domain.NewValidationError("property_value", "is required (null and empty string are allowed)")
	}

	if request.CreateNew {
		if request.Property != nil {
			return domain.NewValidationError("property", "must be null when create_new is true")
		}
		if request.PropertyValue == nil {
			return domain.NewValidationError("property_value", "must be a JSON object when create_new is true")
		}
		if _, err := liveness.DecodeObject(*request.PropertyValue); err != nil {
			return domain.NewValidationError("property_value", "must be a JSON object when create_new is true")
		}
	} else if request.Property == nil || strings.TrimSpace(*request.Property) == "" {
		return domain.NewValidationError("property", "is required when create_new is false")
	}

	if request.Status != nil && !request.Status.IsValid() {
		return domain.NewValidationError("status", fmt.Sprintf("must be one of %s, %s, %s, got %q",
			entities.StatusNeedsModeration, entities.StatusApproved, entities.StatusDenied, *request.Status))
	}

	return nil
}
