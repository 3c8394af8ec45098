package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"curationsapi/src/infra/catalog"
	"curationsapi/src/infra/redis"
)

// CatalogReader is the subset of the catalog client the cache wraps.
type CatalogReader interface {
	GetEntitiesByIDs(ctx context.Context, entity string, ids []string) (map[string]catalog.Record, error)
}

// CachedCatalogRepository is a read-through cache for catalog lookups made by the listing.
// The liveness reconciler never goes through it: it must see the catalog as it is now.
type CachedCatalogRepository struct {
	logger      *slog.Logger
	catalog     CatalogReader
	redisClient *redis.RedisClient
}

func NewCachedCatalogRepository(
	logger *slog.Logger,
	catalogReader CatalogReader,
	redisClient *redis.RedisClient,
) *CachedCatalogRepository {
	return &CachedCatalogRepository{
		logger:      logger,
		catalog:     catalogReader,
		redisClient: redisClient,
	}
}

func catalogCacheKey(entity string, id string) string {
	return fmt.Sprintf("catalog:%s:%s", entity, id)
}

// GetEntitiesByIDs serves cached records and fetches only the misses, in a single catalog call.
func (r *CachedCatalogRepository) GetEntitiesByIDs(ctx context.Context, entity string, ids []string) (map[string]catalog.Record, error) {
	records := make(map[string]catalog.Record, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	misses := ids
	if r.redisClient != nil {
		misses = r.readFromCache(ctx, entity, ids, records)
	}

	if len(misses) == 0 {
		r.logger.Debug("Catalog cache HIT", "entity", entity, "count", len(ids))
		return records, nil
	}

	fetched, err := r.catalog.GetEntitiesByIDs(ctx, entity, misses)
	if err != nil {
		return nil, fmt.Errorf("CachedCatalogRepository.GetEntitiesByIDs - catalog lookup failed: %w", err)
	}

	for id, record := range fetched {
		records[id] = record
	}

	if r.redisClient != nil && len(fetched) > 0 {
		go func() {
			ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			r.writeToCache(ctxWithTimeout, entity, fetched)
		}()
	}

	return records, nil
}

func (r *CachedCatalogRepository) readFromCache(ctx context.Context, entity string, ids []string, records map[string]catalog.Record) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = catalogCacheKey(entity, id)
	}

	cached, err := r.redisClient.GetMultiple(ctx, keys)
	if err != nil {
		// Erro de cache não impede a consulta ao catálogo
		r.logger.Warn("Catalog cache read failed", "entity", entity, "error", err)
		return ids
	}

	misses := make([]string, 0, len(ids))
	for i, id := range ids {
		raw, found := cached[keys[i]]
		if !found {
			misses = append(misses, id)
			continue
		}

		var record catalog.Record
		decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
		decoder.UseNumber()
		if err := decoder.Decode(&record); err != nil {
			r.logger.Warn("Discarding unreadable cached catalog record", "key", keys[i], "error", err)
			misses = append(misses, id)
			continue
		}
		records[id] = record
	}

	return misses
}

func (r *CachedCatalogRepository) writeToCache(ctx context.Context, entity string, fetched map[string]catalog.Record) {
	values := make(map[string]string, len(fetched))
	for id, record := range fetched {
		data, err := json.Marshal(record)
		if err != nil {
			r.logger.Warn("Failed to marshal catalog record for cache", "entity", entity, "id", id, "error", err)
			continue
		}
		values[catalogCacheKey(entity, id)] = string(data)
	}

	if err := r.redisClient.SetMultiple(ctx, values); err != nil {
		r.logger.Warn("Failed to cache catalog records", "entity", entity, "error", err)
		return
	}

	r.logger.Debug("Catalog cache SET", "entity", entity, "count", len(values))
}

// Invalidate drops the cached records of the given entity ids, so the next listing reads
// the catalog again. Without redis it does nothing.
func (r *CachedCatalogRepository) Invalidate(ctx context.Context, entity string, ids []string) error {
	if r.redisClient == nil || len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = catalogCacheKey(entity, id)
	}

	if err := r.redisClient.InvalidateKeys(ctx, keys); err != nil {
		return fmt.Errorf("CachedCatalogRepository.Invalidate - failed to drop %d keys: %w", len(keys), err)
	}

	r.logger.Debug("Catalog cache INVALIDATE", "entity", entity, "count", len(keys))
	return nil
}
