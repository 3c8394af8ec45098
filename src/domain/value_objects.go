package domain

import (
	"errors"
	"fmt"
	"time"

	"curationsapi/src/domain/entities"
)

var (
	ErrCurationNotFound = errors.New("curation not found")

	ErrInvalidInput = errors.New("invalid input")

	ErrPersistence = errors.New("persistence failure")

	ErrUnavailableServer = errors.New("Oops, something unexpected happened. Please try again later.")
)

// ValidationError rejects a request before any state is changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError is returned for an unknown curation id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("curation %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrCurationNotFound
}

// ############################################################
// ################ ESCRITA DAS CURATIONS #####################
// ############################################################

// CreateCurationRequest é o pedido de correção recebido na intake.
// PropertyValueSet distingue "chave ausente" de "valor nulo".
type CreateCurationRequest struct {
	Entity           string
	EntityID         string
	Property         *string
	PropertyValue    *string
	PropertyValueSet bool
	CreateNew        bool
	SubmitterEmail   string
	ModeratorEmail   *string
	Status           *entities.CurationStatus
}

// UpdateStatusRequest é a decisão de um moderador.
type UpdateStatusRequest struct {
	Status         entities.CurationStatus
	ModeratorEmail *string
}

// StatusTransition guarda o status anterior lido dentro da mesma transação da escrita.
type StatusTransition struct {
	Curation       entities.Curation
	PreviousStatus entities.CurationStatus
}

// CrossesModerationEdge reports whether the transition is the one that notifies the submitter.
func (t StatusTransition) CrossesModerationEdge() bool {
	return t.PreviousStatus == entities.StatusNeedsModeration && t.Curation.Status.IsDecided()
}

// ############################################################
// ################ LEITURA DAS CURATIONS #####################
// ############################################################

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Filter is an exact-match predicate on a stored curation field.
type Filter struct {
	Field string
	Value string
}

// ListQuery descreve filtros, ordenação e paginação. Page tem precedência sobre Offset quando informado.
type ListQuery struct {
	Filters   []Filter
	SortBy    string
	SortOrder SortOrder
	Offset    int
	Page      int
	PerPage   int
}

// CurationView é uma curation acompanhada do valor atual no catálogo (quando disponível).
type CurationView struct {
	entities.Curation
	CurrentValue any  `json:"current_value,omitempty"`
	HasCurrent   bool `json:"-"`
}

type CurationPage struct {
	Results []CurationView
	Total   int
	Offset  int
	Page    int
	PerPage int
	HasMore bool
}

// ############################################################
// ############ EVENTOS DE MODERAÇÃO / LIVENESS ###############
// ############################################################

const (
	EventTypeCurationApproved = "curation.approved"
	EventTypeCurationDenied   = "curation.denied"
)

// ModerationOutcomeEvent is published when a curation leaves needs-moderation.
type ModerationOutcomeEvent struct {
	EventID    string            `json:"event_id"`
	EventType  string            `json:"event_type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Curation   entities.Curation `json:"curation"`
}

// ReconcileResult summarizes one liveness reconciliation batch.
type ReconcileResult struct {
	Checked int     `json:"checked"`
	Live    int     `json:"live"`
	Pending int     `json:"pending"`
	Failed  int     `json:"failed"`
	LiveIDs []int64 `json:"live_ids"`
}
