package curation

import (
	"context"
	"fmt"

	"curationsapi/src/domain/entities"
)

func (s *CurationService) GetCuration(ctx context.Context, id int64) (*entities.Curation, error) {
	curation, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("CurationService.GetCuration - failed to get curation %d: %w", id, err)
	}

	return &curation, nil
}
