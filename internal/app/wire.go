// Package app wires configuration into the components the command-line
// tools run.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"solana-razor/internal/config"
	"solana-razor/internal/endpoint"
	"solana-razor/internal/executor"
	"solana-razor/internal/pumpportal"
	"solana-razor/internal/storage"
	chstore "solana-razor/internal/storage/clickhouse"
	"solana-razor/internal/storage/memory"
	"solana-razor/internal/storage/migrations"
	"solana-razor/internal/storage/postgres"
)

// Dependencies bundles what a trading tool needs. It is constructed by Wire
// and torn down by the returned cleanup function.
type Dependencies struct {
	Rotator    *endpoint.Rotator
	Client     *pumpportal.Client
	Classifier *executor.KeywordClassifier

	// Journal; in-memory unless a DSN is configured.
	Trades   storage.TradeRecordStore
	Attempts storage.AttemptStore
}

// Wire constructs the concrete dependencies from cfg and returns them with a
// cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	rotator, err := endpoint.NewRotator(cfg.Endpoints(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: %w", err)
	}

	deps := &Dependencies{
		Rotator:    rotator,
		Classifier: executor.NewKeywordClassifier(cfg.Rotation.Keywords),
		Client: pumpportal.NewClient(cfg.API.APIKey,
			pumpportal.WithBaseURL(cfg.API.BaseURL),
			pumpportal.WithUserAgent(cfg.API.UserAgent),
		),
		Trades:   memory.NewTradeRecordStore(),
		Attempts: memory.NewAttemptStore(),
	}

	// --- PostgreSQL trade records ---
	if cfg.Storage.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if cfg.Storage.RunMigrations {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Trades = postgres.NewTradeRecordStore(pool)
		logger.Info("trade records journaled to postgres")
	}

	// --- ClickHouse attempt log ---
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := openClickhouse(ctx, cfg)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: clickhouse: %w", err)
		}
		closers = append(closers, func() {
			if err := conn.Close(); err != nil {
				logger.Warn("close clickhouse", slog.Any("error", err))
			}
		})
		deps.Attempts = chstore.NewAttemptStore(conn)
		logger.Info("trade attempts journaled to clickhouse")
	}

	return deps, cleanup, nil
}

func openClickhouse(ctx context.Context, cfg *config.Config) (*chstore.Conn, error) {
	if cfg.Storage.RunMigrations {
		return migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	}
	return chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
}

// RotationAttrs describes the endpoint pool and rotation keywords for the
// startup log line. Endpoint credentials are redacted.
func (d *Dependencies) RotationAttrs() []any {
	endpoints := d.Rotator.Endpoints()
	for i, e := range endpoints {
		endpoints[i] = config.RedactURL(e)
	}
	return []any{
		slog.Int("rpc_endpoint_count", d.Rotator.Len()),
		slog.Any("rpc_endpoints", endpoints),
		slog.Any("rotation_keywords", d.Classifier.Keywords()),
	}
}

// NewExecutor builds an executor over deps that journals under sessionID.
func (d *Dependencies) NewExecutor(cfg *config.Config, sessionID string, logger *slog.Logger) *executor.Executor {
	return executor.New(executor.Options{
		Sender:           d.Client,
		Rotator:          d.Rotator,
		Classifier:       d.Classifier,
		TradeRecordStore: d.Trades,
		AttemptStore:     d.Attempts,
		SessionID:        sessionID,
		Logger:           logger,
	})
}
