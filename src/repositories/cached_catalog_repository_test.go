package repositories_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"curationsapi/src/helper/env"
	"curationsapi/src/infra/catalog"
	"curationsapi/src/infra/redis"
	"curationsapi/src/repositories"
)

type countingCatalog struct {
	mu      sync.Mutex
	records map[string]catalog.Record
	asked   [][]string
	err     error
}

func (c *countingCatalog) GetEntitiesByIDs(ctx context.Context, entity string, ids []string) (map[string]catalog.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.asked = append(c.asked, append([]string{}, ids...))
	if c.err != nil {
		return nil, c.err
	}

	found := make(map[string]catalog.Record)
	for _, id := range ids {
		if record, ok := c.records[id]; ok {
			found[id] = record
		}
	}
	return found, nil
}

func (c *countingCatalog) calls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string{}, c.asked...)
}

var _ = Describe("CachedCatalogRepository", func() {
	var (
		upstream *countingCatalog
		logger   *slog.Logger
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		upstream = &countingCatalog{records: map[string]catalog.Record{
			"W1": {"id": "https://openalex.org/W1", "title": "First"},
			"W2": {"id": "https://openalex.org/W2", "title": "Second"},
		}}
	})

	Context("without redis", func() {
		It("passes every lookup through to the catalog", func() {
			repo := repositories.NewCachedCatalogRepository(logger, upstream, nil)

			records, err := repo.GetEntitiesByIDs(ctx, "works", []string{"W1", "W2", "W9"})
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))

			_, err = repo.GetEntitiesByIDs(ctx, "works", []string{"W1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(upstream.calls()).To(HaveLen(2))
		})

		It("wraps catalog failures", func() {
			upstream.err = &catalog.FetchError{Entity: "works", StatusCode: 503}
			repo := repositories.NewCachedCatalogRepository(logger, upstream, nil)

			_, err := repo.GetEntitiesByIDs(ctx, "works", []string{"W1"})

			Expect(err).To(MatchError(catalog.ErrExternalFetch))
			var fetchErr *catalog.FetchError
			Expect(errors.As(err, &fetchErr)).To(BeTrue())
		})

		It("treats invalidation as a no-op", func() {
			repo := repositories.NewCachedCatalogRepository(logger, upstream, nil)

			Expect(repo.Invalidate(ctx, "works", []string{"W1"})).To(Succeed())
			Expect(upstream.calls()).To(BeEmpty())
		})

		It("skips the catalog for an empty id list", func() {
			repo := repositories.NewCachedCatalogRepository(logger, upstream, nil)

			records, err := repo.GetEntitiesByIDs(ctx, "works", nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
			Expect(upstream.calls()).To(BeEmpty())
		})
	})

	Context("with redis", func() {
		var redisClient *redis.RedisClient

		BeforeEach(func() {
			redisClient = nil
			redisAddrs := env.GetString("TEST_REDIS_HOSTS")
			if redisAddrs == "" {
				Skip("TEST_REDIS_HOSTS is not set")
			}

			redisClient = redis.NewRedisClient(redisAddrs, 5, time.Minute).WithPrefix("test:")
			Expect(redisClient.FlushByPrefix(ctx)).To(Succeed())
		})

		AfterEach(func() {
			if redisClient != nil {
				redisClient.FlushByPrefix(ctx)
				redisClient.Close()
			}
		})

		It("only asks the catalog for ids missing from the cache", func() {
			repo := repositories.NewCachedCatalogRepository(logger, upstream, redisClient)

			_, err := repo.GetEntitiesByIDs(ctx, "works", []string{"W1"})
			Expect(err).NotTo(HaveOccurred())

			// a escrita no cache é assíncrona
			Eventually(func() map[string]string {
				cached, _ := redisClient.GetMultiple(ctx, []string{"catalog:works:W1"})
				return cached
			}).WithTimeout(2 * time.Second).Should(HaveKey("catalog:works:W1"))

			records, err := repo.GetEntitiesByIDs(ctx, "works", []string{"W1", "W2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(records["W1"]["title"]).To(Equal("First"))
			Expect(records["W2"]["title"]).To(Equal("Second"))
			Expect(upstream.calls()).To(Equal([][]string{{"W1"}, {"W2"}}))
		})

		It("reads the catalog again after the ids are invalidated", func() {
			repo := repositories.NewCachedCatalogRepository(logger, upstream, redisClient)

			_, err := repo.GetEntitiesByIDs(ctx, "works", []string{"W1"})
			Expect(err).NotTo(HaveOccurred())
			Eventually(func() map[string]string {
				cached, _ := redisClient.GetMultiple(ctx, []string{"catalog:works:W1"})
				return cached
			}).WithTimeout(2 * time.Second).Should(HaveKey("catalog:works:W1"))

			Expect(repo.Invalidate(ctx, "works", []string{"W1"})).To(Succeed())

			cached, err := redisClient.GetMultiple(ctx, []string{"catalog:works:W1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(cached).To(BeEmpty())

			_, err = repo.GetEntitiesByIDs(ctx, "works", []string{"W1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(upstream.calls()).To(Equal([][]string{{"W1"}, {"W1"}}))
		})
	})
})
