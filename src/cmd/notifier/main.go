package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"curationsapi/src/adapters/kafka/consumers"
	"curationsapi/src/helper/env"
	"curationsapi/src/infra/catalog"
	"curationsapi/src/infra/kafka"
	"curationsapi/src/infra/mailgun"
	"curationsapi/src/services/notification"

	"go.uber.org/fx"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting moderation notifier with Uber Fx...")

	env.LoadDotEnv()

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newKafkaClient,
			newCatalogClient,
			newMailgunClient,
			newModerationMailer,
			newModerationOutcomeConsumer,
		),

		// Invocations
		fx.Invoke(startConsumer),
	)

	// Start the application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start notifier application: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down moderation notifier...")

	// Stop the application
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}

	log.Println("Moderation notifier shutdown complete")
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

func newKafkaClient() (*kafka.KafkaClient, error) {
	brokers := env.MustGetString("KAFKA_BROKERS")
	groupID := env.GetString("KAFKA_NOTIFIER_GROUP_ID", "curations-notifier")
	batchSize := env.GetInt("KAFKA_BATCH_SIZE", 20)

	return kafka.NewKafkaClient(brokers, groupID, batchSize)
}

func newCatalogClient() *catalog.Client {
	return catalog.NewClient(
		env.GetString("CATALOG_API_URL", catalog.DefaultBaseURL),
		env.GetString("CATALOG_DATA_VERSION", catalog.DefaultDataVersion),
		env.GetString("CATALOG_MAILTO"),
		env.GetDuration("CATALOG_TIMEOUT", catalog.DefaultTimeout),
	)
}

func newMailgunClient() *mailgun.Client {
	return mailgun.NewClient(
		env.GetString("MAILGUN_API_BASE", mailgun.DefaultAPIBase),
		env.GetString("MAILGUN_DOMAIN", "ourresearch.org"),
		env.MustGetString("MAILGUN_API_KEY"),
		env.GetDuration("MAILGUN_TIMEOUT", 10*time.Second),
	)
}

func newModerationMailer(
	logger *slog.Logger,
	catalogClient *catalog.Client,
	mailgunClient *mailgun.Client,
) *notification.ModerationMailer {
	return notification.NewModerationMailer(logger, catalogClient, mailgunClient, env.GetString("MAIL_FROM", notification.DefaultSender))
}

func newModerationOutcomeConsumer(
	logger *slog.Logger,
	mailer *notification.ModerationMailer,
) *consumers.ModerationOutcomeConsumer {
	return consumers.NewModerationOutcomeConsumer(logger, mailer)
}

func startConsumer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
	consumer *consumers.ModerationOutcomeConsumer,
) {
	consumerCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			topic := env.GetString("KAFKA_MODERATION_TOPIC", "curations.moderation-outcomes")

			// Start consumer in background
			go func() {
				if err := consumer.Start(consumerCtx, kafkaClient, topic); err != nil {
					logger.Error("Consumer failed", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			logger.Info("Shutting down Kafka client...")
			if err := kafkaClient.Close(); err != nil {
				logger.Error("Failed to close Kafka client", "error", err)
				return err
			}
			logger.Info("Kafka client shut down gracefully")
			return nil
		},
	})
}
