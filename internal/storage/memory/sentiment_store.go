package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/storage"
)

// SentimentStore is an in-memory implementation of storage.SentimentStore.
type SentimentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SentimentRecord // keyed by id
}

// NewSentimentStore creates a new in-memory sentiment store.
func NewSentimentStore() *SentimentStore {
	return &SentimentStore{
		data: make(map[string]*domain.SentimentRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *SentimentStore) Insert(_ context.Context, r *domain.SentimentRecord) error {
	if r == nil || r.ID == "" || r.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}
	recordCopy := *r
	s.data[r.ID] = &recordCopy
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *SentimentStore) GetByID(_ context.Context, id string) (*domain.SentimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	recordCopy := *r
	return &recordCopy, nil
}

// GetByMint retrieves the latest records for a mint, newest first.
func (s *SentimentStore) GetByMint(_ context.Context, mint string, limit int) ([]*domain.SentimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SentimentRecord
	for _, r := range s.data {
		if r.Mint == mint {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].GeneratedAt != result[j].GeneratedAt {
			return result[i].GeneratedAt > result[j].GeneratedAt
		}
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetByTimeRange retrieves records generated within [start, end] (inclusive).
func (s *SentimentStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SentimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SentimentRecord
	for _, r := range s.data {
		if r.GeneratedAt >= start && r.GeneratedAt <= end {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].GeneratedAt != result[j].GeneratedAt {
			return result[i].GeneratedAt < result[j].GeneratedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

var _ storage.SentimentStore = (*SentimentStore)(nil)
