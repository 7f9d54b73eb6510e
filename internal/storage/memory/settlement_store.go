package memory

import (
	"context"
	"sync"

	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// SettlementStore applies settlements across the in-memory stores. A
// single mutex serializes applies so the duplicate check and the
// writes behave like one transaction.
type SettlementStore struct {
	mu       sync.Mutex
	posts    *PostStore
	holdings *HoldingStore
	txs      *TransactionStore
}

// NewSettlementStore creates a settlement store over the given
// in-memory stores.
func NewSettlementStore(posts *PostStore, holdings *HoldingStore, txs *TransactionStore) *SettlementStore {
	return &SettlementStore{posts: posts, holdings: holdings, txs: txs}
}

// Compile-time interface check.
var _ storage.SettlementStore = (*SettlementStore)(nil)

// Apply writes the settlement. Returns ErrDuplicateKey if the
// signature was already settled.
func (s *SettlementStore) Apply(_ context.Context, st *storage.Settlement) error {
	if st == nil || st.Transaction == nil || st.Transaction.Signature == "" {
		return storage.ErrInvalidInput
	}
	if st.Holding == nil && !st.CloseHolding {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The ledger insert is the idempotency gate; nothing else is
	// touched when it fails.
	if err := s.txs.insert(st.Transaction); err != nil {
		return err
	}

	if st.CloseHolding {
		s.holdings.remove(st.Transaction.UserID, st.Transaction.PostID)
	} else {
		s.holdings.upsert(st.Holding)
	}

	return s.posts.applyAggregates(st.Post)
}
