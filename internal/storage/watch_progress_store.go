package storage

import "context"

// WatchProgress represents the last launch notification the watcher handled.
type WatchProgress struct {
	Slot      int64  // slot of the last processed notification
	Signature string // last processed transaction signature
}

// WatchProgressStore persists watcher state so restarts do not re-analyze
// mints that were already seen.
type WatchProgressStore interface {
	// GetLastProcessed returns the last processed slot and signature.
	// Returns ErrNotFound if no progress has been saved yet.
	GetLastProcessed(ctx context.Context) (*WatchProgress, error)

	// SetLastProcessed saves the last processed slot and signature.
	SetLastProcessed(ctx context.Context, progress *WatchProgress) error

	// IsMintSeen checks if a mint address has been processed.
	IsMintSeen(ctx context.Context, mint string) (bool, error)

	// MarkMintSeen records that a mint address has been processed.
	MarkMintSeen(ctx context.Context, mint string) error

	// LoadSeenMints returns all seen mints (for warming the in-memory set).
	LoadSeenMints(ctx context.Context) ([]string, error)
}
