package storage

import (
	"context"

	"solana-token-sentinel/internal/domain"
)

// AnalysisStore provides access to token_analyses storage.
type AnalysisStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.AnalysisRecord) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.AnalysisRecord, error)

	// GetByMint retrieves the latest records for a mint, newest first.
	// limit <= 0 returns all records.
	GetByMint(ctx context.Context, mint string, limit int) ([]*domain.AnalysisRecord, error)

	// GetByTimeRange retrieves records checked within [start, end] (inclusive), ordered by checked_at ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.AnalysisRecord, error)
}

// SentimentStore provides access to sentiment_reports storage.
type SentimentStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.SentimentRecord) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.SentimentRecord, error)

	// GetByMint retrieves the latest records for a mint, newest first.
	// limit <= 0 returns all records.
	GetByMint(ctx context.Context, mint string, limit int) ([]*domain.SentimentRecord, error)

	// GetByTimeRange retrieves records generated within [start, end] (inclusive), ordered by generated_at ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SentimentRecord, error)
}

// ScorePointStore provides access to score_timeseries storage.
type ScorePointStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (mint, kind, timestamp_ms).
	InsertBulk(ctx context.Context, points []*domain.ScorePoint) error

	// GetByMint retrieves points of one kind for a mint within [start, end] (inclusive), ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint, kind string, start, end int64) ([]*domain.ScorePoint, error)
}
