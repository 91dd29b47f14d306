// Command report renders the Markdown and CSV report of a past session from
// the Postgres trade journal and, when configured, the ClickHouse attempt log.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"solana-razor/internal/config"
	"solana-razor/internal/logging"
	"solana-razor/internal/reporting"
	"solana-razor/internal/storage"
	chstore "solana-razor/internal/storage/clickhouse"
	pgstore "solana-razor/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML configuration file")
	sessionID := flag.String("session", "", "Session id to report on (required)")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides storage.postgres_dsn)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides storage.clickhouse_dsn)")
	flag.Parse()

	if err := run(*configPath, *sessionID, *outputDir, *postgresDSN, *clickhouseDSN); err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, sessionID, outputDir, postgresDSN, clickhouseDSN string) error {
	if sessionID == "" {
		return errors.New("-session is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if postgresDSN != "" {
		cfg.Storage.PostgresDSN = postgresDSN
	}
	if clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = clickhouseDSN
	}
	if cfg.Storage.PostgresDSN == "" {
		return errors.New("a postgres DSN is required (-postgres-dsn or storage.postgres_dsn)")
	}

	logger, logFile, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	var attempts storage.AttemptStore
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect clickhouse: %w", err)
		}
		defer conn.Close()
		attempts = chstore.NewAttemptStore(conn)
	}

	report, err := reporting.NewGenerator(pgstore.NewTradeRecordStore(pool), attempts).Generate(ctx, sessionID)
	if err != nil {
		return err
	}
	if report.Legs.Total() == 0 {
		logger.Warn("no trades journaled for session", slog.String("session_id", sessionID))
	}

	paths, err := reporting.WriteFiles(outputDir, report)
	if err != nil {
		return err
	}
	for _, p := range paths {
		logger.Info("report written", slog.String("path", p))
	}
	return nil
}
