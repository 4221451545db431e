package clickhouse

import (
	"context"
	"fmt"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/storage"
)

// ScorePointStore implements storage.ScorePointStore using ClickHouse.
type ScorePointStore struct {
	conn *Conn
}

// NewScorePointStore creates a new ScorePointStore.
func NewScorePointStore(conn *Conn) *ScorePointStore {
	return &ScorePointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScorePointStore = (*ScorePointStore)(nil)

type seriesKey struct {
	mint string
	kind string
}

// InsertBulk adds multiple points. Fails entire batch on duplicate (mint, kind, timestamp_ms).
// MergeTree does not enforce keys, so duplicates are checked before the insert.
func (s *ScorePointStore) InsertBulk(ctx context.Context, points []*domain.ScorePoint) error {
	if len(points) == 0 {
		return nil
	}

	// Group timestamps per series and reject intra-batch duplicates.
	series := make(map[seriesKey][]uint64)
	seen := make(map[seriesKey]map[int64]struct{})
	for _, p := range points {
		if p == nil || p.Mint == "" || p.Kind == "" {
			return storage.ErrInvalidInput
		}
		k := seriesKey{p.Mint, p.Kind}
		if seen[k] == nil {
			seen[k] = make(map[int64]struct{})
		}
		if _, dup := seen[k][p.TimestampMs]; dup {
			return storage.ErrDuplicateKey
		}
		seen[k][p.TimestampMs] = struct{}{}
		series[k] = append(series[k], uint64(p.TimestampMs))
	}

	for k, ts := range series {
		n, err := s.countExisting(ctx, k, ts)
		if err != nil {
			return fmt.Errorf("check existing points: %w", err)
		}
		if n > 0 {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO score_timeseries (mint, kind, timestamp_ms, value, label)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.Mint, p.Kind, uint64(p.TimestampMs), p.Value, p.Label); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByMint retrieves points of one kind for a mint within [start, end] (inclusive).
func (s *ScorePointStore) GetByMint(ctx context.Context, mint, kind string, start, end int64) ([]*domain.ScorePoint, error) {
	query := `
		SELECT mint, kind, timestamp_ms, value, label
		FROM score_timeseries
		WHERE mint = ? AND kind = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	if start < 0 {
		start = 0
	}
	rows, err := s.conn.Query(ctx, query, mint, kind, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query score points: %w", err)
	}
	defer rows.Close()

	return scanScorePoints(rows)
}

func (s *ScorePointStore) countExisting(ctx context.Context, k seriesKey, timestamps []uint64) (uint64, error) {
	query := `
		SELECT count(*) FROM score_timeseries
		WHERE mint = ? AND kind = ? AND has(?, timestamp_ms)
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, k.mint, k.kind, timestamps).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanScorePoints(rows chRows) ([]*domain.ScorePoint, error) {
	var points []*domain.ScorePoint

	for rows.Next() {
		var p domain.ScorePoint
		var ts uint64
		if err := rows.Scan(&p.Mint, &p.Kind, &ts, &p.Value, &p.Label); err != nil {
			return nil, fmt.Errorf("scan score point row: %w", err)
		}
		p.TimestampMs = int64(ts)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score point rows: %w", err)
	}
	return points, nil
}
