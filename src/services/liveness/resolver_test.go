package liveness_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/catalog"
	"curationsapi/src/services/liveness"
	"curationsapi/src/test_artefacts/stubs"
)

var _ = Describe("ResolverRegistry", func() {
	var (
		ctx      context.Context
		client   *fakeCatalog
		registry *liveness.ResolverRegistry
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = newFakeCatalog()
		registry = liveness.NewResolverRegistry(client)
	})

	Context("when the entity is fetched directly", func() {
		It("returns the catalog record", func() {
			record := catalog.Record{"id": "https://openalex.org/W10", "title": "A title"}
			client.with(entities.EntityWorks, "W10", record)
			curation := stubs.NewCurationStub().WithEntity(entities.EntityWorks, "W10").Get()

			observed, err := registry.Resolve(ctx, curation)

			Expect(err).NotTo(HaveOccurred())
			Expect(observed).To(Equal(record))
			Expect(client.calls).To(Equal([]string{"works/W10"}))
		})
	})

	Context("when the entity is a location", func() {
		var curation entities.Curation

		BeforeEach(func() {
			curation = stubs.NewCurationStub().
				WithEntity(entities.EntityLocations, "L42").
				WithProperty("is_oa", stubs.Ptr("true")).
				Approved().
				Get()

			client.with(entities.EntityLocations, "L42", catalog.Record{
				"id":      "https://openalex.org/L42",
				"work_id": "https://openalex.org/W7",
			})
		})

		It("looks the location up inside its parent work", func() {
			client.with(entities.EntityWorks, "W7", catalog.Record{
				"id": "https://openalex.org/W7",
				"locations": []any{
					map[string]any{"id": "https://openalex.org/L41", "is_oa": false},
					map[string]any{"id": "https://openalex.org/L42", "is_oa": true},
				},
			})

			observed, err := registry.Resolve(ctx, curation)

			Expect(err).NotTo(HaveOccurred())
			Expect(observed).To(HaveKeyWithValue("is_oa", true))
			Expect(client.calls).To(Equal([]string{"locations/L42", "works/W7"}))
			Expect(liveness.IsLive(curation, observed)).To(BeTrue())
		})

		It("returns nil when the parent work does not list the location", func() {
			client.with(entities.EntityWorks, "W7", catalog.Record{
				"id":        "https://openalex.org/W7",
				"locations": []any{map[string]any{"id": "https://openalex.org/L41"}},
			})

			observed, err := registry.Resolve(ctx, curation)

			Expect(err).NotTo(HaveOccurred())
			Expect(observed).To(BeNil())
			Expect(liveness.IsLive(curation, observed)).To(BeFalse())
		})

		It("fails when the location has no parent work", func() {
			client.with(entities.EntityLocations, "L42", catalog.Record{"id": "https://openalex.org/L42"})

			_, err := registry.Resolve(ctx, curation)

			Expect(errors.Is(err, catalog.ErrExternalFetch)).To(BeTrue())
		})

		It("propagates a parent fetch failure", func() {
			client.failing(entities.EntityWorks, "W7", &catalog.FetchError{Entity: "works", ID: "W7", StatusCode: 503})

			_, err := registry.Resolve(ctx, curation)

			Expect(errors.Is(err, catalog.ErrExternalFetch)).To(BeTrue())
		})
	})
})

var _ = Describe("FindNested", func() {
	It("matches bare ids against full id URIs", func() {
		parent := catalog.Record{"locations": []any{map[string]any{"id": "https://openalex.org/L1", "x": "y"}}}

		Expect(liveness.FindNested(parent, "locations", "L1")).To(HaveKeyWithValue("x", "y"))
	})

	It("ignores a list field with the wrong shape", func() {
		parent := catalog.Record{"locations": "not a list"}

		Expect(liveness.FindNested(parent, "locations", "L1")).To(BeNil())
	})
})
