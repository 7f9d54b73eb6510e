package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// PriceHistoryStore is an in-memory implementation of
// storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PricePoint // keyed by post_id, append order
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{data: make(map[string][]*domain.PricePoint)}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// Insert appends one point.
func (s *PriceHistoryStore) Insert(_ context.Context, p *domain.PricePoint) error {
	if p == nil || p.PostID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.data[p.PostID] = append(s.data[p.PostID], &cp)
	return nil
}

// GetByPost retrieves points within [from, to], ordered by timestamp
// ASC.
func (s *PriceHistoryStore) GetByPost(_ context.Context, postID string, from, to int64, limit int) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data[postID] {
		if p.TimestampMs < from {
			continue
		}
		if to > 0 && p.TimestampMs > to {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
