package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"solana-token-sentinel/internal/config"
	"solana-token-sentinel/internal/storage"
	chstore "solana-token-sentinel/internal/storage/clickhouse"
	"solana-token-sentinel/internal/storage/memory"
	"solana-token-sentinel/internal/storage/migrations"
	pgstore "solana-token-sentinel/internal/storage/postgres"
)

// stores holds the journal backends.
type stores struct {
	backend    string
	analyses   storage.AnalysisStore
	sentiments storage.SentimentStore
	scores     storage.ScorePointStore
	progress   storage.WatchProgressStore
	closers    []func()
}

// Close releases backend connections.
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects the journal backends and applies migrations.
func openStores(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (*stores, error) {
	if cfg.UseMemory {
		logger.Info().Msg("using in-memory storage")
		return &stores{
			backend:    "memory",
			analyses:   memory.NewAnalysisStore(),
			sentiments: memory.NewSentimentStore(),
			scores:     memory.NewScorePointStore(),
			progress:   memory.NewWatchProgressStore(),
		}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	logger.Info().Int("postgres_migrations", applied).Msg("storage ready")

	return &stores{
		backend:    "postgres+clickhouse",
		analyses:   pgstore.NewAnalysisStore(pool),
		sentiments: pgstore.NewSentimentStore(pool),
		scores:     chstore.NewScorePointStore(conn),
		progress:   pgstore.NewWatchProgressStore(pool),
		closers: []func(){
			pool.Close,
			func() {
				if err := conn.Close(); err != nil {
					logger.Warn().Err(err).Msg("close clickhouse")
				}
			},
		},
	}, nil
}
