package watch

import "sync"

// seenSet is a bounded set of mints. When full, the oldest entry is evicted.
type seenSet struct {
	mu    sync.Mutex
	items map[string]struct{}
	order []string
	head  int
	limit int
}

func newSeenSet(limit int) *seenSet {
	if limit <= 0 {
		limit = 1
	}
	return &seenSet{
		items: make(map[string]struct{}, limit),
		order: make([]string, 0, limit),
		limit: limit,
	}
}

// Add inserts mint and reports whether it was new.
func (s *seenSet) Add(mint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[mint]; ok {
		return false
	}
	if len(s.order) < s.limit {
		s.order = append(s.order, mint)
	} else {
		delete(s.items, s.order[s.head])
		s.order[s.head] = mint
		s.head = (s.head + 1) % s.limit
	}
	s.items[mint] = struct{}{}
	return true
}

// Contains reports whether mint is in the set.
func (s *seenSet) Contains(mint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[mint]
	return ok
}

// Len returns the number of tracked mints.
func (s *seenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
