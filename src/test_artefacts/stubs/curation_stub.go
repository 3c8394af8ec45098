package stubs

import (
	"fmt"
	"time"

	"curationsapi/src/domain/entities"

	"github.com/brianvoe/gofakeit/v6"
)

type CurationStub struct {
	curation entities.Curation
}

// NewCurationStub cria uma curation pendente de moderação para um work aleatório.
func NewCurationStub() CurationStub {
	now := time.Now().UTC()
	property := "title"
	value := gofakeit.Sentence(5)
	submitter := gofakeit.Email()

	curation := entities.Curation{
		ID:             gofakeit.Int64(),
		Status:         entities.StatusNeedsModeration,
		Entity:         entities.EntityWorks,
		EntityID:       fmt.Sprintf("W%d", gofakeit.Number(1000000, 9999999)),
		Property:       &property,
		PropertyValue:  &value,
		SubmitterEmail: &submitter,
		SubmittedDate:  now,
	}

	return CurationStub{curation: curation}
}

func (cs CurationStub) WithID(id int64) CurationStub {
	cs.curation.ID = id
	return cs
}

func (cs CurationStub) WithEntity(entity string, entityID string) CurationStub {
	cs.curation.Entity = entity
	cs.curation.EntityID = entityID
	return cs
}

func (cs CurationStub) WithProperty(property string, value *string) CurationStub {
	cs.curation.Property = &property
	cs.curation.PropertyValue = value
	cs.curation.CreateNew = false
	return cs
}

// WithCreateNew troca a curation para o modo "criar novo" com o objeto JSON informado.
func (cs CurationStub) WithCreateNew(object string) CurationStub {
	cs.curation.Property = nil
	cs.curation.PropertyValue = &object
	cs.curation.CreateNew = true
	return cs
}

func (cs CurationStub) WithSubmitterEmail(email *string) CurationStub {
	cs.curation.SubmitterEmail = email
	return cs
}

func (cs CurationStub) WithSubmittedDate(date time.Time) CurationStub {
	cs.curation.SubmittedDate = date
	return cs
}

func (cs CurationStub) Approved() CurationStub {
	return cs.decided(entities.StatusApproved)
}

func (cs CurationStub) Denied() CurationStub {
	return cs.decided(entities.StatusDenied)
}

func (cs CurationStub) Live() CurationStub {
	cs = cs.Approved()
	liveDate := time.Now().UTC()
	cs.curation.IsLive = true
	cs.curation.LiveDate = &liveDate
	return cs
}

// WithDecisionDates sobrescreve as datas preenchidas por Approved, Denied e Live.
func (cs CurationStub) WithDecisionDates(moderated time.Time, live *time.Time) CurationStub {
	cs.curation.ModeratedDate = &moderated
	if cs.curation.IsLive {
		cs.curation.LiveDate = live
	}
	return cs
}

func (cs CurationStub) decided(status entities.CurationStatus) CurationStub {
	moderatedDate := time.Now().UTC()
	moderator := gofakeit.Email()
	cs.curation.Status = status
	cs.curation.ModeratedDate = &moderatedDate
	cs.curation.ModeratorEmail = &moderator
	return cs
}

func (cs CurationStub) Get() entities.Curation {
	return cs.curation
}

// Ptr ajuda a montar valores opcionais nos testes.
func Ptr[T any](v T) *T {
	return &v
}
