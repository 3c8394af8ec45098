package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"curationsapi/src/domain"
)

// Colunas da planilha legada: [timestamp, approved, ingested, entity, entity_id, property, value, email].
const (
	colTimestamp = iota
	colApproved
	colIngested
	colEntity
	colEntityID
	colProperty
	colValue
	colEmail
	rowWidth
)

// RowStore is a worksheet that can be appended to and read back. *sheets.Client implements it.
type RowStore interface {
	AppendRow(ctx context.Context, row []string) error
	ReadRows(ctx context.Context) ([][]string, error)
}

// LegacyCorrection é o formato antigo de correção, registrado direto na planilha.
type LegacyCorrection struct {
	Entity   string `json:"entity"`
	EntityID string `json:"entity_id"`
	Property string `json:"property"`
	Value    string `json:"value"`
	Email    string `json:"email"`
}

type Service struct {
	logger *slog.Logger
	rows   RowStore
	now    func() time.Time
}

func NewService(logger *slog.Logger, rows RowStore) *Service {
	return &Service{
		logger: logger,
		rows:   rows,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// AppendCorrection grava uma linha com approved e ingested em branco, aguardando a triagem manual.
func (s *Service) AppendCorrection(ctx context.Context, correction LegacyCorrection) error {
	if strings.TrimSpace(correction.EntityID) == "" {
		return domain.NewValidationError("entity_id", "is required")
	}
	if strings.TrimSpace(correction.Property) == "" {
		return domain.NewValidationError("property", "is required")
	}
	if correction.Value == "" {
		return domain.NewValidationError("value", "is required")
	}

	row := make([]string, rowWidth)
	row[colTimestamp] = s.now().Format(time.RFC3339)
	row[colEntity] = correction.Entity
	row[colEntityID] = correction.EntityID
	row[colProperty] = correction.Property
	row[colValue] = correction.Value
	row[colEmail] = correction.Email

	if err := s.rows.AppendRow(ctx, row); err != nil {
		return fmt.Errorf("LedgerService.AppendCorrection - failed to append row for %s: %w", correction.EntityID, err)
	}

	s.logger.Info("Legacy correction recorded", "entity_id", correction.EntityID, "property", correction.Property)
	return nil
}

// Pending returns the property column of every row not yet ingested and not rejected.
func (s *Service) Pending(ctx context.Context) ([]string, error) {
	rows, err := s.rows.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("LedgerService.Pending - failed to read rows: %w", err)
	}

	pending := make([]string, 0)
	for i, row := range rows {
		if i == 0 {
			// cabeçalho
			continue
		}

		if cell(row, colIngested) == "yes" || cell(row, colApproved) == "no" {
			continue
		}
		pending = append(pending, cell(row, colProperty))
	}

	return pending, nil
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
