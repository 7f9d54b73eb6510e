// Package memory provides in-memory storage implementations used in
// tests and for running the server without external databases.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// PostStore is an in-memory implementation of storage.PostStore.
type PostStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Post // keyed by post_id
}

// NewPostStore creates a new in-memory post store.
func NewPostStore() *PostStore {
	return &PostStore{data: make(map[string]*domain.Post)}
}

// Compile-time interface check.
var _ storage.PostStore = (*PostStore)(nil)

// Insert adds a new post. Returns ErrDuplicateKey if post_id exists.
func (s *PostStore) Insert(_ context.Context, p *domain.Post) error {
	if p == nil || p.PostID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PostID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *p
	s.data[p.PostID] = &cp
	return nil
}

// GetByID retrieves a post by its ID. Returns ErrNotFound if not exists.
func (s *PostStore) GetByID(_ context.Context, postID string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[postID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *p
	return &cp, nil
}

// List retrieves all posts, ordered by created_at DESC.
func (s *PostStore) List(_ context.Context) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Post, 0, len(s.data))
	for _, p := range s.data {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].PostID < result[j].PostID
	})
	return result, nil
}

// TopByVolume retrieves the highest-volume posts.
func (s *PostStore) TopByVolume(_ context.Context, limit int) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Post, 0, len(s.data))
	for _, p := range s.data {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].TotalVolume.Equal(result[j].TotalVolume) {
			return result[i].TotalVolume.GreaterThan(result[j].TotalVolume)
		}
		return result[i].PostID < result[j].PostID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// SetPool records the pool address and activates the post.
func (s *PostStore) SetPool(_ context.Context, postID, poolAddress string) error {
	if postID == "" || poolAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[postID]
	if !exists {
		return storage.ErrNotFound
	}
	p.PoolAddress = poolAddress
	p.Status = domain.PostStatusActive
	return nil
}

// applyAggregates updates the post row for a settlement. Caller holds
// the settlement lock.
func (s *PostStore) applyAggregates(a storage.PostAggregates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[a.PostID]
	if !exists {
		return storage.ErrNotFound
	}
	p.CurrentPrice = a.CurrentPrice
	p.MarketCap = a.MarketCap
	p.TotalVolume = p.TotalVolume.Add(a.VolumeDelta)
	p.Holders += a.HoldersDelta
	return nil
}
