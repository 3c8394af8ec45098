package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"curationsapi/src/helper/env"
	"curationsapi/src/infra/catalog"
	"curationsapi/src/infra/postgres"

	"github.com/spf13/cobra"
)

func main() {
	env.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curationsctl",
		Short: "Operate the curations moderation database",
		Long: `curationsctl runs maintenance tasks against the curations database.

Connection settings come from the same DB_* and CATALOG_* variables used by the
API server, loaded from .env when present.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newReconcileCommand())
	cmd.AddCommand(newPendingCommand())
	cmd.AddCommand(newSeedCommand())

	return cmd
}

func newLogger() *slog.Logger {
	var level slog.Level
	switch env.GetString("LOG_LEVEL", "info") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// stdout fica livre para a saída dos comandos
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openDatabase() (*postgres.ReadWriteClient, error) {
	client, err := postgres.NewReadWriteClient(postgres.Config{
		ReadHost:       env.GetString("DB_READ_HOST"),
		ReadPort:       env.GetString("DB_READ_PORT", "5432"),
		WriteHost:      env.GetString("DB_WRITE_HOST", "localhost"),
		WritePort:      env.GetString("DB_WRITE_PORT", "5432"),
		DBName:         env.GetString("DB_NAME", "curations"),
		Username:       env.GetString("DB_USER", "postgres"),
		Password:       env.GetString("DB_PASSWORD", "postgres"),
		MaxConnections: env.GetInt("DB_MAX_POOL_CONNECTIONS", 10),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the curations database: %w", err)
	}
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
