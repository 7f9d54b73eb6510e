package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// TransactionStore is an in-memory implementation of
// storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TransactionRecord // keyed by signature
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{data: make(map[string]*domain.TransactionRecord)}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// GetBySignature retrieves a ledger entry. Returns ErrNotFound if the
// signature has not been settled.
func (s *TransactionStore) GetBySignature(_ context.Context, signature string) (*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[signature]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *t
	return &cp, nil
}

// GetByUser retrieves a user's trades, ordered by created_at DESC.
func (s *TransactionStore) GetByUser(_ context.Context, userID string, limit int) ([]*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransactionRecord
	for _, t := range s.data {
		if t.UserID == userID {
			cp := *t
			result = append(result, &cp)
		}
	}
	return sortAndLimit(result, limit), nil
}

// GetByPost retrieves a post's trades, ordered by created_at DESC.
func (s *TransactionStore) GetByPost(_ context.Context, postID string, limit int) ([]*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransactionRecord
	for _, t := range s.data {
		if t.PostID == postID {
			cp := *t
			result = append(result, &cp)
		}
	}
	return sortAndLimit(result, limit), nil
}

// TraderFlows aggregates settled volume per user, ordered by net flow
// DESC.
func (s *TransactionStore) TraderFlows(_ context.Context, limit int) ([]*storage.TraderFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byUser := make(map[string]*storage.TraderFlow)
	for _, t := range s.data {
		f, ok := byUser[t.UserID]
		if !ok {
			f = &storage.TraderFlow{UserID: t.UserID}
			byUser[t.UserID] = f
		}
		switch t.Side {
		case domain.SideBuy:
			f.BuyVolume = f.BuyVolume.Add(t.TotalValue)
		case domain.SideSell:
			f.SellVolume = f.SellVolume.Add(t.TotalValue)
		}
		f.Trades++
	}

	result := make([]*storage.TraderFlow, 0, len(byUser))
	for _, f := range byUser {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool {
		ni := netFlow(result[i])
		nj := netFlow(result[j])
		if !ni.Equal(nj) {
			return ni.GreaterThan(nj)
		}
		return result[i].UserID < result[j].UserID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func netFlow(f *storage.TraderFlow) decimal.Decimal {
	return f.SellVolume.Sub(f.BuyVolume)
}

// insert adds a ledger entry. Caller holds the settlement lock.
func (s *TransactionStore) insert(t *domain.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Signature]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *t
	s.data[t.Signature] = &cp
	return nil
}

func sortAndLimit(records []*domain.TransactionRecord, limit int) []*domain.TransactionRecord {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt > records[j].CreatedAt
		}
		return records[i].Signature < records[j].Signature
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
