package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"curationsapi/src/helper/env"
	"curationsapi/src/infra/redis"
	"curationsapi/src/repositories"
	"curationsapi/src/services/liveness"

	"github.com/spf13/cobra"
)

func newReconcileCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one liveness reconciliation batch now",
		Long: `Checks every approved curation that is not live yet against the catalog and
marks the ones whose requested value is already observable.

The batch takes the same advisory lock as the scheduled worker, so it exits
with an error instead of overlapping a running batch. When REDIS_HOSTS is set
the cached catalog records of the curations marked live are dropped.`,
		Example: `  curationsctl reconcile
  curationsctl reconcile --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			repo := repositories.NewCurationRepository(db.GetReadPool(), db.GetWritePool())
			reconciler := liveness.NewReconciler(logger, repo, liveness.NewResolverRegistry(newCatalogClient()), liveness.Config{
				PerRecordTimeout: env.GetDuration("RECONCILE_RECORD_TIMEOUT", liveness.DefaultPerRecordTimeout),
				BatchTimeout:     env.GetDuration("RECONCILE_BATCH_TIMEOUT", liveness.DefaultBatchTimeout),
			})

			if redisHosts := env.GetString("REDIS_HOSTS"); redisHosts != "" {
				redisClient := redis.NewRedisClient(redisHosts, 2, env.GetDuration("REDIS_DEFAULT_TTL", 10*time.Minute)).
					WithPrefix(env.GetString("REDIS_PREFIX", "curations:"))
				defer redisClient.Close()

				catalogClient := newCatalogClient()
				reconciler.WithCacheInvalidator(repositories.NewCachedCatalogRepository(logger, catalogClient, redisClient))
			}

			result, err := reconciler.Run(cmd.Context())
			if err != nil {
				if errors.Is(err, repositories.ErrReconcileInProgress) {
					return fmt.Errorf("a reconciliation batch is already running, try again later")
				}
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintf(out, "checked: %d\nlive:    %d\npending: %d\nfailed:  %d\n",
				result.Checked, result.Live, result.Pending, result.Failed)
			for _, id := range result.LiveIDs {
				fmt.Fprintf(out, "  live %d\n", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the batch result as JSON")

	return cmd
}
