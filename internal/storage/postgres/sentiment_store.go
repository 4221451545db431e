package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/storage"
)

// SentimentStore implements storage.SentimentStore using PostgreSQL.
type SentimentStore struct {
	pool *Pool
}

// NewSentimentStore creates a new SentimentStore.
func NewSentimentStore(pool *Pool) *SentimentStore {
	return &SentimentStore{pool: pool}
}

var _ storage.SentimentStore = (*SentimentStore)(nil)

const sentimentColumns = `
	id, mint, status, total_posts, human_posts, bot_filtered, duplicates,
	bullish, bearish, neutral, overall_score, overall_label, quality_score,
	generated_at, created_at
`

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *SentimentStore) Insert(ctx context.Context, r *domain.SentimentRecord) error {
	if r == nil || r.ID == "" || r.Mint == "" {
		return storage.ErrInvalidInput
	}

	createdAt := r.CreatedAt
	if createdAt == 0 {
		createdAt = nowMs()
	}

	query := `
		INSERT INTO sentiment_reports (` + sentimentColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.Mint, string(r.Status), r.TotalPosts, r.HumanPosts, r.BotFiltered, r.Duplicates,
		r.Bullish, r.Bearish, r.Neutral, r.OverallScore, string(r.OverallLabel), r.QualityScore,
		r.GeneratedAt, createdAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert sentiment report: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *SentimentStore) GetByID(ctx context.Context, id string) (*domain.SentimentRecord, error) {
	query := `SELECT ` + sentimentColumns + ` FROM sentiment_reports WHERE id = $1`

	r, err := scanSentiment(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get sentiment report by id: %w", err)
	}
	return r, nil
}

// GetByMint retrieves the latest records for a mint, newest first.
func (s *SentimentStore) GetByMint(ctx context.Context, mint string, limit int) ([]*domain.SentimentRecord, error) {
	query := `
		SELECT ` + sentimentColumns + `
		FROM sentiment_reports
		WHERE mint = $1
		ORDER BY generated_at DESC, id ASC
	`
	args := []any{mint}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get sentiment reports by mint: %w", err)
	}
	defer rows.Close()

	return scanSentiments(rows)
}

// GetByTimeRange retrieves records generated within [start, end] (inclusive).
func (s *SentimentStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SentimentRecord, error) {
	query := `
		SELECT ` + sentimentColumns + `
		FROM sentiment_reports
		WHERE generated_at >= $1 AND generated_at <= $2
		ORDER BY generated_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get sentiment reports by time range: %w", err)
	}
	defer rows.Close()

	return scanSentiments(rows)
}

func scanSentiment(row pgx.Row) (*domain.SentimentRecord, error) {
	var (
		r             domain.SentimentRecord
		status, label string
	)

	err := row.Scan(
		&r.ID, &r.Mint, &status, &r.TotalPosts, &r.HumanPosts, &r.BotFiltered, &r.Duplicates,
		&r.Bullish, &r.Bearish, &r.Neutral, &r.OverallScore, &label, &r.QualityScore,
		&r.GeneratedAt, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.ReportStatus(status)
	r.OverallLabel = domain.SentimentLabel(label)
	return &r, nil
}

func scanSentiments(rows pgx.Rows) ([]*domain.SentimentRecord, error) {
	var records []*domain.SentimentRecord

	for rows.Next() {
		r, err := scanSentiment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sentiment row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sentiment rows: %w", err)
	}
	return records, nil
}
