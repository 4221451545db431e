package postgres

import (
	"context"
	"fmt"

	"solana-token-sentinel/internal/storage"
)

// WatchProgressStore is a PostgreSQL implementation of storage.WatchProgressStore.
// Uses two tables:
//   - watch_progress: single row with (slot, signature)
//   - watch_seen_mints: set of analysed mint addresses
type WatchProgressStore struct {
	pool *Pool
}

// NewWatchProgressStore creates a new PostgreSQL watch progress store.
func NewWatchProgressStore(pool *Pool) *WatchProgressStore {
	return &WatchProgressStore{pool: pool}
}

var _ storage.WatchProgressStore = (*WatchProgressStore)(nil)

// GetLastProcessed returns the last processed slot and signature.
func (s *WatchProgressStore) GetLastProcessed(ctx context.Context) (*storage.WatchProgress, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT slot, signature
		FROM watch_progress
		WHERE id = 1
	`)

	var progress storage.WatchProgress
	if err := row.Scan(&progress.Slot, &progress.Signature); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get watch progress: %w", err)
	}

	return &progress, nil
}

// SetLastProcessed upserts the single progress row.
func (s *WatchProgressStore) SetLastProcessed(ctx context.Context, progress *storage.WatchProgress) error {
	if progress == nil {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO watch_progress (id, slot, signature, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET slot = EXCLUDED.slot,
		    signature = EXCLUDED.signature,
		    updated_at = NOW()
	`, progress.Slot, progress.Signature)
	if err != nil {
		return fmt.Errorf("set watch progress: %w", err)
	}
	return nil
}

// IsMintSeen checks if a mint address has been processed.
func (s *WatchProgressStore) IsMintSeen(ctx context.Context, mint string) (bool, error) {
	if mint == "" {
		return false, storage.ErrInvalidInput
	}

	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM watch_seen_mints WHERE mint = $1)
	`, mint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check seen mint: %w", err)
	}

	return exists, nil
}

// MarkMintSeen records that a mint address has been processed. Repeated calls are no-ops.
func (s *WatchProgressStore) MarkMintSeen(ctx context.Context, mint string) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO watch_seen_mints (mint, seen_at)
		VALUES ($1, NOW())
		ON CONFLICT (mint) DO NOTHING
	`, mint)
	if err != nil {
		return fmt.Errorf("mark mint seen: %w", err)
	}
	return nil
}

// LoadSeenMints returns all seen mints sorted by address.
func (s *WatchProgressStore) LoadSeenMints(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT mint FROM watch_seen_mints ORDER BY mint ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load seen mints: %w", err)
	}
	defer rows.Close()

	var mints []string
	for rows.Next() {
		var mint string
		if err := rows.Scan(&mint); err != nil {
			return nil, fmt.Errorf("scan seen mint: %w", err)
		}
		mints = append(mints, mint)
	}

	return mints, rows.Err()
}
