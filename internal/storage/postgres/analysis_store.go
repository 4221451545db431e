package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/storage"
)

// AnalysisStore implements storage.AnalysisStore using PostgreSQL.
type AnalysisStore struct {
	pool *Pool
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(pool *Pool) *AnalysisStore {
	return &AnalysisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)

const analysisColumns = `
	id, mint, symbol, risk_score, risk_level, trade_signal, honeypot,
	price_usd, liquidity_usd, market_cap, security_source,
	factors, signal_reasons, checked_at, created_at
`

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *AnalysisStore) Insert(ctx context.Context, r *domain.AnalysisRecord) error {
	if r == nil || r.ID == "" || r.Mint == "" {
		return storage.ErrInvalidInput
	}

	factors, err := json.Marshal(nonNilFactors(r.Factors))
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}
	reasons, err := json.Marshal(nonNilStrings(r.SignalReasons))
	if err != nil {
		return fmt.Errorf("marshal signal reasons: %w", err)
	}

	createdAt := r.CreatedAt
	if createdAt == 0 {
		createdAt = nowMs()
	}

	query := `
		INSERT INTO token_analyses (` + analysisColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.Mint, r.Symbol, r.RiskScore, string(r.RiskLevel), string(r.Signal), r.Honeypot,
		r.PriceUSD, r.LiquidityUSD, r.MarketCap, r.SecuritySrc,
		string(factors), string(reasons), r.CheckedAt, createdAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	query := `SELECT ` + analysisColumns + ` FROM token_analyses WHERE id = $1`

	r, err := scanAnalysis(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis by id: %w", err)
	}
	return r, nil
}

// GetByMint retrieves the latest records for a mint, newest first.
func (s *AnalysisStore) GetByMint(ctx context.Context, mint string, limit int) ([]*domain.AnalysisRecord, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM token_analyses
		WHERE mint = $1
		ORDER BY checked_at DESC, id ASC
	`
	args := []any{mint}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get analyses by mint: %w", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

// GetByTimeRange retrieves records checked within [start, end] (inclusive).
func (s *AnalysisStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.AnalysisRecord, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM token_analyses
		WHERE checked_at >= $1 AND checked_at <= $2
		ORDER BY checked_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get analyses by time range: %w", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

// scanAnalysis scans a single row into an AnalysisRecord.
func scanAnalysis(row pgx.Row) (*domain.AnalysisRecord, error) {
	var (
		r                domain.AnalysisRecord
		level, signal    string
		factors, reasons []byte
	)

	err := row.Scan(
		&r.ID, &r.Mint, &r.Symbol, &r.RiskScore, &level, &signal, &r.Honeypot,
		&r.PriceUSD, &r.LiquidityUSD, &r.MarketCap, &r.SecuritySrc,
		&factors, &reasons, &r.CheckedAt, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.RiskLevel = domain.RiskLevel(level)
	r.Signal = domain.Signal(signal)
	if err := json.Unmarshal(factors, &r.Factors); err != nil {
		return nil, fmt.Errorf("decode factors: %w", err)
	}
	if err := json.Unmarshal(reasons, &r.SignalReasons); err != nil {
		return nil, fmt.Errorf("decode signal reasons: %w", err)
	}
	return &r, nil
}

func scanAnalyses(rows pgx.Rows) ([]*domain.AnalysisRecord, error) {
	var records []*domain.AnalysisRecord

	for rows.Next() {
		r, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis rows: %w", err)
	}
	return records, nil
}

func nonNilFactors(f []domain.RiskFactor) []domain.RiskFactor {
	if f == nil {
		return []domain.RiskFactor{}
	}
	return f
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
