package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	httpadapter "curationsapi/src/adapters/http"
	"curationsapi/src/helper/env"
	"curationsapi/src/infra/catalog"
	"curationsapi/src/infra/kafka"
	"curationsapi/src/infra/postgres"
	"curationsapi/src/infra/redis"
	"curationsapi/src/infra/sheets"
	"curationsapi/src/repositories"
	"curationsapi/src/services/curation"
	"curationsapi/src/services/events"
	"curationsapi/src/services/ledger"

	"go.uber.org/fx"
)

func main() {
	// Configurar logger
	log.SetOutput(os.Stdout)
	log.Println("Starting curations API server with Uber Fx...")

	env.LoadDotEnv()

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newReadWriteClient,
			newRedisClient,
			newKafkaClient,
			newCatalogClient,
			newSheetsClient,
			newCurationRepository,
			newCachedCatalogRepository,
			newModerationEventPublisher,
			newCurationService,
			newLedgerService,
			newServer,
		),

		// Invocations
		fx.Invoke(runMigrations, registerServerHooks),
	)

	// Start the application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for app to exit gracefully
	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
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
		ReadHost:       env.GetString("DB_READ_HOST"),
		WriteHost:      env.MustGetString("DB_WRITE_HOST"),
		ReadPort:       env.GetString("DB_READ_PORT", "5432"),
		WritePort:      env.GetString("DB_WRITE_PORT", "5432"),
		DBName:         env.MustGetString("DB_NAME"),
		Username:       env.MustGetString("DB_USER"),
		Password:       env.MustGetString("DB_PASSWORD"),
		MaxConnections: env.GetInt("DB_MAX_POOL_CONNECTIONS", 25),
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

// newRedisClient devolve nil quando REDIS_HOSTS não está configurado; a listagem segue sem cache.
func newRedisClient(lc fx.Lifecycle, logger *slog.Logger) *redis.RedisClient {
	redisHosts := env.GetString("REDIS_HOSTS")
	if redisHosts == "" {
		logger.Warn("REDIS_HOSTS not set, catalog enrichment will not be cached")
		return nil
	}

	redisPoolSize := env.GetInt("REDIS_POOL_SIZE", 50)
	redisDefaultTTL := env.GetDuration("REDIS_DEFAULT_TTL", 10*time.Minute)

	client := redis.NewRedisClient(redisHosts, redisPoolSize, redisDefaultTTL).WithPrefix(env.GetString("REDIS_PREFIX", "curations:"))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

func newKafkaClient(lc fx.Lifecycle, logger *slog.Logger) (*kafka.KafkaClient, error) {
	brokers := env.MustGetString("KAFKA_BROKERS")

	// A API só publica, então o cliente é criado sem consumer group
	client, err := kafka.NewKafkaClient(brokers, "", 1)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down Kafka client...")
			return client.Close()
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

func newSheetsClient() (*sheets.Client, error) {
	return sheets.NewClient(
		context.Background(),
		env.MustGetString("SHEETS_CREDENTIALS_FILE"),
		env.MustGetString("SHEETS_SPREADSHEET_ID"),
		env.GetString("SHEETS_RANGE", "Sheet1!A:H"),
	)
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

func newModerationEventPublisher(logger *slog.Logger, kafkaClient *kafka.KafkaClient) *events.ModerationEventPublisher {
	topic := env.GetString("KAFKA_MODERATION_TOPIC", "curations.moderation-outcomes")
	return events.NewModerationEventPublisher(logger, kafkaClient, topic)
}

func newCurationService(
	logger *slog.Logger,
	curationRepository *repositories.CurationRepository,
	cachedCatalogRepository *repositories.CachedCatalogRepository,
	publisher *events.ModerationEventPublisher,
) *curation.CurationService {
	return curation.NewCurationService(logger, curationRepository, cachedCatalogRepository, publisher, curation.Config{
		TrustedModeratorEmail: env.GetString("TRUSTED_MODERATOR_EMAIL"),
	})
}

func newLedgerService(logger *slog.Logger, sheetsClient *sheets.Client) *ledger.Service {
	return ledger.NewService(logger, sheetsClient)
}

func newServer(
	logger *slog.Logger,
	readWriteClient *postgres.ReadWriteClient,
	redisClient *redis.RedisClient,
	curationService *curation.CurationService,
	ledgerService *ledger.Service,
) *httpadapter.Server {
	port := env.GetInt("SERVER_PORT", 8888)
	allowedOrigins := env.GetStrings("CORS_ALLOWED_ORIGINS", "*")

	server := httpadapter.NewServer(logger, port, allowedOrigins, curationService, ledgerService).
		WithHealthCheck("postgres", readWriteClient.GetWritePool().Ping)
	if redisClient != nil {
		server.WithHealthCheck("redis", redisClient.HealthCheck)
	}

	return server
}

func runMigrations(lc fx.Lifecycle, logger *slog.Logger, readWriteClient *postgres.ReadWriteClient) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !env.GetBool("DB_AUTO_MIGRATE", true) {
				return nil
			}
			logger.Info("Applying curations schema")
			return postgres.Migrate(ctx, readWriteClient.GetWritePool())
		},
	})
}

// registerServerHooks registers lifecycle hooks for the HTTP server
func registerServerHooks(lc fx.Lifecycle, logger *slog.Logger, srv *httpadapter.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Start server in a separate goroutine
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Create timeout context for graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", "error", err)
				return err
			}
			logger.Info("Server exited gracefully")
			return nil
		},
	})
}
