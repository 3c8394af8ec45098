package curation

import (
	"context"
	"log/slog"
	"time"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/catalog"
	"curationsapi/src/repositories"
)

// Store is the persistence the curation workflow needs. *repositories.CurationRepository implements it.
type Store interface {
	Insert(ctx context.Context, curation entities.Curation) (int64, error)
	GetByID(ctx context.Context, id int64) (entities.Curation, error)
	UpdateStatus(ctx context.Context, id int64, status entities.CurationStatus, moderatorEmail *string, moderatedAt time.Time) (domain.StatusTransition, error)
	List(ctx context.Context, criteria repositories.ListCriteria) ([]entities.Curation, int, error)
	PendingSummary(ctx context.Context) ([]string, error)
}

// CatalogLookup fetches catalog records in batch for the listing enrichment.
type CatalogLookup interface {
	GetEntitiesByIDs(ctx context.Context, entity string, ids []string) (map[string]catalog.Record, error)
}

// Notifier is told when a curation leaves needs-moderation.
type Notifier interface {
	NotifyModerationOutcome(ctx context.Context, curation entities.Curation) error
}

type Config struct {
	// TrustedModeratorEmail é usado quando uma curation já nasce aprovada sem moderador informado.
	TrustedModeratorEmail string
}

type CurationService struct {
	logger   *slog.Logger
	store    Store
	catalog  CatalogLookup
	notifier Notifier
	cfg      Config
	now      func() time.Time
}

func NewCurationService(
	logger *slog.Logger,
	store Store,
	catalogLookup CatalogLookup,
	notifier Notifier,
	cfg Config,
) *CurationService {
	return &CurationService{
		logger:   logger,
		store:    store,
		catalog:  catalogLookup,
		notifier: notifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}
