package curation

import (
	"context"
	"fmt"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
)

// UpdateStatus aplica a decisão do moderador. A notificação sai somente na transição
// needs-moderation -> approved/denied, decidida a partir do status lido na mesma transação.
func (s *CurationService) UpdateStatus(ctx context.Context, id int64, request domain.UpdateStatusRequest) (*entities.Curation, error) {
	if !request.Status.IsValid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("must be one of %s, %s, %s, got %q",
			entities.StatusNeedsModeration, entities.StatusApproved, entities.StatusDenied, request.Status))
	}

	transition, err := s.store.UpdateStatus(ctx, id, request.Status, request.ModeratorEmail, s.now())
	if err != nil {
		return nil, fmt.Errorf("CurationService.UpdateStatus - failed to update curation %d: %w", id, err)
	}

	s.logger.Info("Curation status updated",
		"curation_id", id,
		"previous_status", transition.PreviousStatus,
		"status", transition.Curation.Status)

	if transition.CrossesModerationEdge() && s.notifier != nil {
		if err := s.notifier.NotifyModerationOutcome(ctx, transition.Curation); err != nil {
			s.logger.Error("Failed to notify moderation outcome",
				"curation_id", id,
				"entity_id", transition.Curation.EntityID,
				"error", err)
		}
	}

	return &transition.Curation, nil
}
