package curation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
	"curationsapi/src/services/curation"
	"curationsapi/src/test_artefacts/comparer"
	"curationsapi/src/test_artefacts/stubs"
)

func newTestService(store *memoryStore, lookup *fakeCatalogLookup, notifier *recordingNotifier) *curation.CurationService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return curation.NewCurationService(logger, store, lookup, notifier, curation.Config{
		TrustedModeratorEmail: "moderator@example.org",
	})
}

var _ = Describe("CreateCuration", func() {
	var (
		ctx     context.Context
		store   *memoryStore
		service *curation.CurationService
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemoryStore()
		service = newTestService(store, newFakeCatalogLookup(), &recordingNotifier{})
	})

	validRequest := func() domain.CreateCurationRequest {
		return domain.CreateCurationRequest{
			Entity:           entities.EntityWorks,
			EntityID:         "W123",
			Property:         stubs.Ptr("title"),
			PropertyValue:    stubs.Ptr("Corrected title"),
			PropertyValueSet: true,
			SubmitterEmail:   "author@example.org",
		}
	}

	Context("when the request is valid", func() {
		It("stores an approved curation by default", func() {
			// ACT
			id, err := service.CreateCuration(ctx, validRequest())

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			stored, err := store.GetByID(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(entities.StatusApproved))
			Expect(stored.IsLive).To(BeFalse())
			Expect(stored.ModeratedDate).NotTo(BeNil())
			Expect(*stored.ModeratorEmail).To(Equal("moderator@example.org"))
			Expect(stored.SubmittedDate).To(BeTemporally("~", time.Now().UTC(), time.Second))
		})

		It("keeps a needs-moderation curation unmoderated", func() {
			request := validRequest()
			status := entities.StatusNeedsModeration
			request.Status = &status

			id, err := service.CreateCuration(ctx, request)

			Expect(err).NotTo(HaveOccurred())
			stored, _ := store.GetByID(ctx, id)
			Expect(stored.Status).To(Equal(entities.StatusNeedsModeration))
			Expect(stored.ModeratedDate).To(BeNil())
			Expect(stored.ModeratorEmail).To(BeNil())
		})

		It("accepts null and empty string as values", func() {
			cleared := validRequest()
			cleared.PropertyValue = nil
			emptied := validRequest()
			emptied.PropertyValue = stubs.Ptr("")

			_, errCleared := service.CreateCuration(ctx, cleared)
			_, errEmptied := service.CreateCuration(ctx, emptied)

			Expect(errCleared).NotTo(HaveOccurred())
			Expect(errEmptied).NotTo(HaveOccurred())
		})

		It("accepts a create-new object without property", func() {
			request := validRequest()
			request.CreateNew = true
			request.Property = nil
			request.Entity = entities.EntitySources
			request.EntityID = "S77"
			request.PropertyValue = stubs.Ptr(`{"display_name":"New source","is_oa":true}`)

			id, err := service.CreateCuration(ctx, request)

			Expect(err).NotTo(HaveOccurred())
			stored, err := store.GetByID(ctx, id)
			Expect(err).NotTo(HaveOccurred())

			expected := entities.Curation{
				Status:         entities.StatusApproved,
				Entity:         entities.EntitySources,
				EntityID:       "S77",
				PropertyValue:  stubs.Ptr(`{ "is_oa": true, "display_name": "New source" }`),
				CreateNew:      true,
				SubmitterEmail: stubs.Ptr("author@example.org"),
				ModeratorEmail: stubs.Ptr("moderator@example.org"),
			}
			Expect(stored).To(BeComparableTo(expected,
				comparer.IgnoreFieldsFor[entities.Curation]("ID", "SubmittedDate", "ModeratedDate"),
				comparer.JSONText(),
			))
		})
	})

	Context("when the request is invalid", func() {
		DescribeTable("rejects it before writing",
			func(mutate func(*domain.CreateCurationRequest), field string) {
				request := validRequest()
				mutate(&request)

				_, err := service.CreateCuration(ctx, request)

				var validationErr *domain.ValidationError
				Expect(errors.As(err, &validationErr)).To(BeTrue())
				Expect(validationErr.Field).To(Equal(field))
				Expect(err).To(MatchError(domain.ErrInvalidInput))
				Expect(store.curations).To(BeEmpty())
			},
			Entry("missing entity", func(r *domain.CreateCurationRequest) { r.Entity = "" }, "entity"),
			Entry("missing entity id", func(r *domain.CreateCurationRequest) { r.EntityID = " " }, "entity_id"),
			Entry("missing submitter", func(r *domain.CreateCurationRequest) { r.SubmitterEmail = "" }, "submitter_email"),
			Entry("absent property_value key", func(r *domain.CreateCurationRequest) { r.PropertyValueSet = false }, "property_value"),
			Entry("missing property", func(r *domain.CreateCurationRequest) { r.Property = nil }, "property"),
			Entry("property with create_new", func(r *domain.CreateCurationRequest) { r.CreateNew = true }, "property"),
			Entry("create_new value that is not an object", func(r *domain.CreateCurationRequest) {
				r.CreateNew = true
				r.Property = nil
				r.PropertyValue = stubs.Ptr(`["a"]`)
			}, "property_value"),
			Entry("unknown status", func(r *domain.CreateCurationRequest) {
				status := entities.CurationStatus("published")
				r.Status = &status
			}, "status"),
		)
	})

	Context("when the store fails", func() {
		It("returns the persistence error", func() {
			store.insertErr = domain.ErrPersistence

			_, err := service.CreateCuration(ctx, validRequest())

			Expect(err).To(MatchError(domain.ErrPersistence))
		})
	})
})
