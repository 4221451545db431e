package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-sentinel/internal/storage"
)

// WatchProgressStore is an in-memory implementation of storage.WatchProgressStore.
type WatchProgressStore struct {
	mu       sync.RWMutex
	progress *storage.WatchProgress
	seen     map[string]struct{}
}

// NewWatchProgressStore creates a new in-memory watch progress store.
func NewWatchProgressStore() *WatchProgressStore {
	return &WatchProgressStore{
		seen: make(map[string]struct{}),
	}
}

// GetLastProcessed returns the last processed slot and signature.
func (s *WatchProgressStore) GetLastProcessed(_ context.Context) (*storage.WatchProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.progress == nil {
		return nil, storage.ErrNotFound
	}
	p := *s.progress
	return &p, nil
}

// SetLastProcessed saves the last processed slot and signature.
func (s *WatchProgressStore) SetLastProcessed(_ context.Context, progress *storage.WatchProgress) error {
	if progress == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := *progress
	s.progress = &p
	return nil
}

// IsMintSeen checks if a mint address has been processed.
func (s *WatchProgressStore) IsMintSeen(_ context.Context, mint string) (bool, error) {
	if mint == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.seen[mint]
	return ok, nil
}

// MarkMintSeen records that a mint address has been processed.
func (s *WatchProgressStore) MarkMintSeen(_ context.Context, mint string) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[mint] = struct{}{}
	return nil
}

// LoadSeenMints returns all seen mints in lexical order.
func (s *WatchProgressStore) LoadSeenMints(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mints := make([]string, 0, len(s.seen))
	for mint := range s.seen {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints, nil
}

var _ storage.WatchProgressStore = (*WatchProgressStore)(nil)
