package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/storage"
)

// AnalysisStore is an in-memory implementation of storage.AnalysisStore.
type AnalysisStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AnalysisRecord // keyed by id
}

// NewAnalysisStore creates a new in-memory analysis store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		data: make(map[string]*domain.AnalysisRecord),
	}
}

// copyAnalysis returns a deep copy so callers cannot mutate stored records.
func copyAnalysis(r *domain.AnalysisRecord) *domain.AnalysisRecord {
	c := *r
	c.Factors = append([]domain.RiskFactor(nil), r.Factors...)
	c.SignalReasons = append([]string(nil), r.SignalReasons...)
	return &c
}

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *AnalysisStore) Insert(_ context.Context, r *domain.AnalysisRecord) error {
	if r == nil || r.ID == "" || r.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[r.ID] = copyAnalysis(r)
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(_ context.Context, id string) (*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyAnalysis(r), nil
}

// GetByMint retrieves the latest records for a mint, newest first.
func (s *AnalysisStore) GetByMint(_ context.Context, mint string, limit int) ([]*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnalysisRecord
	for _, r := range s.data {
		if r.Mint == mint {
			result = append(result, copyAnalysis(r))
		}
	}

	// Sort by checked_at DESC, id ASC
	sort.Slice(result, func(i, j int) bool {
		if result[i].CheckedAt != result[j].CheckedAt {
			return result[i].CheckedAt > result[j].CheckedAt
		}
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetByTimeRange retrieves records checked within [start, end] (inclusive).
func (s *AnalysisStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnalysisRecord
	for _, r := range s.data {
		if r.CheckedAt >= start && r.CheckedAt <= end {
			result = append(result, copyAnalysis(r))
		}
	}

	// Sort by checked_at ASC, id ASC
	sort.Slice(result, func(i, j int) bool {
		if result[i].CheckedAt != result[j].CheckedAt {
			return result[i].CheckedAt < result[j].CheckedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)
