package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/postgres"

	"github.com/go-faker/faker/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var seedColumns = []string{
	"status", "entity", "entity_id", "property", "property_value", "create_new",
	"submitter_email", "moderator_email", "submitted_date", "moderated_date", "live_date", "is_live",
}

var seedProperties = map[string][]string{
	entities.EntityWorks:     {"title", "publication_year", "is_oa", "language"},
	entities.EntitySources:   {"display_name", "issn_l", "is_in_doaj", "homepage_url"},
	entities.EntityLocations: {"is_oa", "landing_page_url", "version", "license"},
}

type seedOptions struct {
	count     int
	bulkSize  int
	consumers int
	migrate   bool
}

func newSeedCommand() *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the curations table with fake corrections",
		Long: `Generates fake curations across works, sources and locations in every
workflow position (waiting, approved, denied and live) and bulk loads them
with COPY. Meant for local and staging databases only.`,
		Example: `  curationsctl seed --count 5000
  curationsctl seed --count 100000 --bulk-size 2000 --consumers 8 --migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.count <= 0 || opts.bulkSize <= 0 || opts.consumers <= 0 {
				return fmt.Errorf("--count, --bulk-size and --consumers must be positive")
			}

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			if opts.migrate {
				if err := postgres.Migrate(cmd.Context(), db.GetWritePool()); err != nil {
					return err
				}
			}

			inserted, failed := runSeed(cmd.Context(), newLogger(), db.GetWritePool(), opts)
			fmt.Fprintf(cmd.OutOrStdout(), "inserted: %d\nfailed batches: %d\n", inserted, failed)
			if failed > 0 {
				return fmt.Errorf("%d batches failed to load", failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.count, "count", 1000, "number of curations to generate")
	cmd.Flags().IntVar(&opts.bulkSize, "bulk-size", 500, "rows per COPY batch")
	cmd.Flags().IntVar(&opts.consumers, "consumers", 4, "concurrent loaders")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply the schema before seeding")

	return cmd
}

// runSeed uses one producer and a pool of loaders; each loader flushes a batch when it is full or the channel closes.
func runSeed(ctx context.Context, logger *slog.Logger, pool *pgxpool.Pool, opts seedOptions) (int64, int64) {
	rowsChan := make(chan []any, opts.bulkSize*opts.consumers)

	var wg sync.WaitGroup
	var inserted, failed int64
	startTime := time.Now()

	for i := 0; i < opts.consumers; i++ {
		wg.Add(1)
		go func(loaderID int) {
			defer wg.Done()

			batch := make([][]any, 0, opts.bulkSize)
			flush := func() {
				if len(batch) == 0 {
					return
				}
				n, err := copyCurations(ctx, pool, batch)
				if err != nil {
					logger.Error("Seed batch failed", "loader", loaderID, "rows", len(batch), "error", err)
					atomic.AddInt64(&failed, 1)
				} else {
					atomic.AddInt64(&inserted, n)
				}
				batch = make([][]any, 0, opts.bulkSize)
			}

			for row := range rowsChan {
				batch = append(batch, row)
				if len(batch) >= opts.bulkSize {
					flush()
				}
			}
			flush()
		}(i + 1)
	}

	func() {
		defer close(rowsChan)
		for i := 0; i < opts.count; i++ {
			select {
			case rowsChan <- fakeCurationRow(time.Now()):
			case <-ctx.Done():
				logger.Warn("Seed interrupted", "generated", i)
				return
			}
		}
	}()

	wg.Wait()

	logger.Info("Seed finished",
		"inserted", atomic.LoadInt64(&inserted),
		"failed_batches", atomic.LoadInt64(&failed),
		"elapsed", time.Since(startTime).Round(time.Millisecond).String())

	return atomic.LoadInt64(&inserted), atomic.LoadInt64(&failed)
}

func copyCurations(ctx context.Context, pool *pgxpool.Pool, rows [][]any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	n, err := pool.CopyFrom(ctx, pgx.Identifier{"curations"}, seedColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy curations: %w", err)
	}
	return n, nil
}

// fakeCurationRow respects the table constraints: create_new rows carry no property,
// decided rows carry a moderated_date and live rows are always approved.
func fakeCurationRow(now time.Time) []any {
	entityTypes := []string{entities.EntityWorks, entities.EntitySources, entities.EntityLocations}
	entity := entityTypes[rand.IntN(len(entityTypes))]

	submitted := now.Add(-time.Duration(rand.IntN(90*24)) * time.Hour)
	submitter := faker.Email()

	var (
		property  *string
		value     *string
		createNew bool
	)

	if entity == entities.EntitySources && rand.IntN(10) == 0 {
		createNew = true
		obj, _ := json.Marshal(map[string]any{
			"display_name": faker.Sentence(),
			"homepage_url": faker.URL(),
		})
		raw := string(obj)
		value = &raw
	} else {
		props := seedProperties[entity]
		name := props[rand.IntN(len(props))]
		raw := faker.Word()
		property = &name
		value = &raw
	}

	var (
		status    = entities.StatusNeedsModeration
		moderator *string
		moderated *time.Time
		live      *time.Time
		isLive    bool
	)

	switch roll := rand.IntN(10); {
	case roll < 4:
		// segue na fila de moderação
	case roll < 6:
		status = entities.StatusDenied
	default:
		status = entities.StatusApproved
		if roll >= 8 {
			isLive = true
			liveAt := submitted.Add(48 * time.Hour)
			live = &liveAt
		}
	}

	if status.IsDecided() {
		email := faker.Email()
		moderatedAt := submitted.Add(24 * time.Hour)
		moderator = &email
		moderated = &moderatedAt
	}

	return []any{
		string(status),
		entity,
		fakeEntityID(entity),
		property,
		value,
		createNew,
		&submitter,
		moderator,
		submitted,
		moderated,
		live,
		isLive,
	}
}

func fakeEntityID(entity string) string {
	prefix := "W"
	if entity == entities.EntitySources {
		prefix = "S"
	}
	return fmt.Sprintf("%s%d", prefix, 1_000_000+rand.IntN(9_000_000))
}
