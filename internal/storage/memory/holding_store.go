package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

type holdingKey struct {
	userID string
	postID string
}

// HoldingStore is an in-memory implementation of storage.HoldingStore.
type HoldingStore struct {
	mu   sync.RWMutex
	data map[holdingKey]*domain.Holding
}

// NewHoldingStore creates a new in-memory holding store.
func NewHoldingStore() *HoldingStore {
	return &HoldingStore{data: make(map[holdingKey]*domain.Holding)}
}

// Compile-time interface check.
var _ storage.HoldingStore = (*HoldingStore)(nil)

// Get retrieves one holding. Returns ErrNotFound if absent.
func (s *HoldingStore) Get(_ context.Context, userID, postID string) (*domain.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.data[holdingKey{userID, postID}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *h
	return &cp, nil
}

// GetByUser retrieves all open holdings for a user, ordered by post_id.
func (s *HoldingStore) GetByUser(_ context.Context, userID string) ([]*domain.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Holding
	for k, h := range s.data {
		if k.userID == userID {
			cp := *h
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PostID < result[j].PostID
	})
	return result, nil
}

// upsert stores a holding. Caller holds the settlement lock.
func (s *HoldingStore) upsert(h *domain.Holding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *h
	s.data[holdingKey{h.UserID, h.PostID}] = &cp
}

// remove deletes a holding. Caller holds the settlement lock.
func (s *HoldingStore) remove(userID, postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, holdingKey{userID, postID})
}
