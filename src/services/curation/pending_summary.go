package curation

import (
	"context"
	"fmt"
)

// PendingSummary lista os pares "entity_id|property" ainda não publicados no catálogo.
func (s *CurationService) PendingSummary(ctx context.Context) ([]string, error) {
	keys, err := s.store.PendingSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("CurationService.PendingSummary - failed to read pending curations: %w", err)
	}

	return keys, nil
}
