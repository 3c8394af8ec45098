package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"time"

	"curationsapi/src/helper/env"
	"curationsapi/src/infra/catalog"
	"curationsapi/src/infra/postgres"
	"curationsapi/src/infra/redis"
	"curationsapi/src/repositories"
	"curationsapi/src/services/liveness"
	"curationsapi/src/workflows"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.uber.org/fx"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting liveness reconciler worker with Uber Fx...")

	env.LoadDotEnv()

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newReadWriteClient,
			newRedisClient,
			newCatalogClient,
			newCurationRepository,
			newCachedCatalogRepository,
			newReconciler,
			newTemporalClient,
			newWorker,
		),

		// Invocations
		fx.Invoke(registerWorkerHooks),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start reconciler worker: %v", err)
	}

	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}
}

func newLogger() *slog.Logger {
	logLevel := env.GetString("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func newReadWriteClient(lc fx.Lifecycle) (*postgres.ReadWriteClient, error) {
	client, err := postgres.NewReadWriteClient(postgres.Config{
		WriteHost:      env.MustGetString("DB_WRITE_HOST"),
		WritePort:      env.GetString("DB_WRITE_PORT", "5432"),
		DBName:         env.MustGetString("DB_NAME"),
		Username:       env.MustGetString("DB_USER"),
		Password:       env.MustGetString("DB_PASSWORD"),
		MaxConnections: env.GetInt("DB_MAX_POOL_CONNECTIONS", 5),
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})

	return client, nil
}

func newCatalogClient() *catalog.Client {
	return catalog.NewClient(
		env.GetString("CATALOG_API_URL", catalog.DefaultBaseURL),
		env.GetString("CATALOG_DATA_VERSION", catalog.DefaultDataVersion),
		env.GetString("CATALOG_MAILTO"),
		env.GetDuration("CATALOG_TIMEOUT", catalog.DefaultTimeout),
	)
}

// newRedisClient aponta para o mesmo cache da API; sem REDIS_HOSTS o lote não invalida nada.
func newRedisClient(lc fx.Lifecycle, logger *slog.Logger) *redis.RedisClient {
	redisHosts := env.GetString("REDIS_HOSTS")
	if redisHosts == "" {
		logger.Warn("REDIS_HOSTS not set, cached catalog records will expire by TTL only")
		return nil
	}

	client := redis.NewRedisClient(redisHosts, env.GetInt("REDIS_POOL_SIZE", 5), env.GetDuration("REDIS_DEFAULT_TTL", 10*time.Minute)).
		WithPrefix(env.GetString("REDIS_PREFIX", "curations:"))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

func newCurationRepository(readWriteClient *postgres.ReadWriteClient) *repositories.CurationRepository {
	return repositories.NewCurationRepository(readWriteClient.GetReadPool(), readWriteClient.GetWritePool())
}

func newCachedCatalogRepository(
	logger *slog.Logger,
	catalogClient *catalog.Client,
	redisClient *redis.RedisClient,
) *repositories.CachedCatalogRepository {
	return repositories.NewCachedCatalogRepository(logger, catalogClient, redisClient)
}

func newReconciler(
	logger *slog.Logger,
	curationRepository *repositories.CurationRepository,
	cachedCatalogRepository *repositories.CachedCatalogRepository,
	catalogClient *catalog.Client,
) *liveness.Reconciler {
	reconciler := liveness.NewReconciler(logger, curationRepository, liveness.NewResolverRegistry(catalogClient), liveness.Config{
		PerRecordTimeout: env.GetDuration("RECONCILE_RECORD_TIMEOUT", liveness.DefaultPerRecordTimeout),
		BatchTimeout:     env.GetDuration("RECONCILE_BATCH_TIMEOUT", liveness.DefaultBatchTimeout),
	})

	return reconciler.WithCacheInvalidator(cachedCatalogRepository)
}

func newTemporalClient(lc fx.Lifecycle, logger *slog.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  env.GetString("TEMPORAL_HOST_PORT", "localhost:7233"),
		Namespace: env.GetString("TEMPORAL_NAMESPACE", "default"),
		Logger:    temporallog.NewStructuredLogger(logger),
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			c.Close()
			return nil
		},
	})

	return c, nil
}

func newWorker(c client.Client, reconciler *liveness.Reconciler) worker.Worker {
	w := worker.New(c, workflows.TaskQueue, worker.Options{
		// um lote por vez
		MaxConcurrentActivityExecutionSize: 1,
	})

	w.RegisterWorkflow(workflows.ReconcileLiveness)
	w.RegisterActivity(&workflows.Activities{Reconciler: reconciler})

	return w
}

func registerWorkerHooks(lc fx.Lifecycle, logger *slog.Logger, c client.Client, w worker.Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := w.Start(); err != nil {
				return err
			}
			logger.Info("Worker started", "task_queue", workflows.TaskQueue)

			return scheduleReconcile(ctx, logger, c)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping worker...")
			w.Stop()
			return nil
		},
	})
}

// scheduleReconcile starts the cron workflow once; an already running schedule is kept as is.
func scheduleReconcile(ctx context.Context, logger *slog.Logger, c client.Client) error {
	opts := client.StartWorkflowOptions{
		ID:                                       workflows.ReconcileWorkflowID,
		TaskQueue:                                workflows.TaskQueue,
		CronSchedule:                             env.GetString("RECONCILE_CRON", workflows.DefaultCronSchedule),
		WorkflowExecutionErrorWhenAlreadyStarted: true,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}

	we, err := c.ExecuteWorkflow(ctx, opts, workflows.ReconcileLiveness)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			logger.Info("Reconcile schedule already running", "workflow_id", workflows.ReconcileWorkflowID)
			return nil
		}
		return err
	}

	logger.Info("Reconcile schedule started",
		"workflow_id", we.GetID(),
		"run_id", we.GetRunID(),
		"cron", opts.CronSchedule)

	return nil
}
