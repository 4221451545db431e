package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/storage"
)

// ScorePointStore is an in-memory implementation of storage.ScorePointStore.
type ScorePointStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScorePoint // keyed by (mint, kind, timestamp_ms)
}

// NewScorePointStore creates a new in-memory score point store.
func NewScorePointStore() *ScorePointStore {
	return &ScorePointStore{
		data: make(map[string]*domain.ScorePoint),
	}
}

func scoreKey(p *domain.ScorePoint) string {
	return fmt.Sprintf("%s|%s|%d", p.Mint, p.Kind, p.TimestampMs)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *ScorePointStore) InsertBulk(_ context.Context, points []*domain.ScorePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.Mint == "" || p.Kind == "" {
			return storage.ErrInvalidInput
		}
		key := scoreKey(p)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		pointCopy := *p
		s.data[scoreKey(p)] = &pointCopy
	}
	return nil
}

// GetByMint retrieves points of one kind for a mint within [start, end] (inclusive).
func (s *ScorePointStore) GetByMint(_ context.Context, mint, kind string, start, end int64) ([]*domain.ScorePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScorePoint
	for _, p := range s.data {
		if p.Mint == mint && p.Kind == kind && p.TimestampMs >= start && p.TimestampMs <= end {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

var _ storage.ScorePointStore = (*ScorePointStore)(nil)
