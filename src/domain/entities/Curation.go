package entities

import (
	"time"
)

type CurationStatus string

const (
	StatusNeedsModeration CurationStatus = "needs-moderation"
	StatusApproved        CurationStatus = "approved"
	StatusDenied          CurationStatus = "denied"
)

// IsValid reports whether s is one of the three workflow positions.
func (s CurationStatus) IsValid() bool {
	switch s {
	case StatusNeedsModeration, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// IsDecided reports whether a moderator (or a trusted source) has ruled on the curation.
func (s CurationStatus) IsDecided() bool {
	return s == StatusApproved || s == StatusDenied
}

// Entity types exposed by the catalog read API.
const (
	EntityWorks     = "works"
	EntitySources   = "sources"
	EntityLocations = "locations"
	EntityJournals  = "journals"
)

// Curation é uma correção proposta para uma propriedade de uma entidade do catálogo,
// junto com o estado de moderação e de publicação ("live").
type Curation struct {
	ID       int64          `json:"id"`
	Status   CurationStatus `json:"status"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	// Property é nulo quando CreateNew é verdadeiro.
	Property *string `json:"property"`
	// PropertyValue carrega o valor como texto; com CreateNew é um objeto JSON.
	PropertyValue  *string    `json:"property_value"`
	CreateNew      bool       `json:"create_new"`
	SubmitterEmail *string    `json:"submitter_email"`
	ModeratorEmail *string    `json:"moderator_email"`
	SubmittedDate  time.Time  `json:"submitted_date"`
	ModeratedDate  *time.Time `json:"moderated_date"`
	LiveDate       *time.Time `json:"live_date"`
	IsLive         bool       `json:"is_live"`
}

// PropertyName returns the corrected property or "" for create-new curations.
func (c Curation) PropertyName() string {
	if c.Property == nil {
		return ""
	}
	return *c.Property
}

// Value returns the requested value or "" when it is null.
func (c Curation) Value() string {
	if c.PropertyValue == nil {
		return ""
	}
	return *c.PropertyValue
}
