package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// seedLedger settles a set of trades through the settlement store so
// ledger rows exist the same way production writes them.
func seedLedger(t *testing.T, ctx context.Context, pool *Pool, records []*domain.TransactionRecord) {
	t.Helper()

	posts := NewPostStore(pool)
	settle := NewSettlementStore(pool)

	seen := make(map[string]bool)
	for _, r := range records {
		if !seen[r.PostID] {
			require.NoError(t, posts.Insert(ctx, testPost(r.PostID, 100)))
			seen[r.PostID] = true
		}
		require.NoError(t, settle.Apply(ctx, &storage.Settlement{
			Transaction: r,
			Holding: &domain.Holding{
				UserID:        r.UserID,
				PostID:        r.PostID,
				Amount:        r.Amount,
				AvgBuyPrice:   r.PricePerToken,
				TotalInvested: r.TotalValue,
				UpdatedAt:     r.CreatedAt,
			},
			Post: storage.PostAggregates{
				PostID:       r.PostID,
				CurrentPrice: r.PricePerToken,
				MarketCap:    r.TotalValue,
				VolumeDelta:  r.TotalValue,
			},
		}))
	}
}

func ledgerRecord(sig, userID, postID string, side domain.Side, value string, createdAt int64) *domain.TransactionRecord {
	return &domain.TransactionRecord{
		Signature:     sig,
		UserID:        userID,
		PostID:        postID,
		Side:          side,
		Amount:        1_000_000,
		PricePerToken: dec("0.000001"),
		TotalValue:    dec(value),
		WalletAddress: "wallet-" + userID,
		Status:        domain.TxStatusConfirmed,
		CreatedAt:     createdAt,
	}
}

func TestTransactionStore_Reads(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransactionStore(pool)

	seedLedger(t, ctx, pool, []*domain.TransactionRecord{
		ledgerRecord("sig-1", "user-1", "post-a", domain.SideBuy, "1.0", 100),
		ledgerRecord("sig-2", "user-1", "post-b", domain.SideBuy, "2.0", 300),
		ledgerRecord("sig-3", "user-2", "post-a", domain.SideSell, "3.0", 200),
	})

	got, err := store.GetBySignature(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, domain.TxStatusConfirmed, got.Status)

	_, err = store.GetBySignature(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	byUser, err := store.GetByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, "sig-2", byUser[0].Signature, "newest first")
	assert.Equal(t, "sig-1", byUser[1].Signature)

	byPost, err := store.GetByPost(ctx, "post-a", 1)
	require.NoError(t, err)
	require.Len(t, byPost, 1)
	assert.Equal(t, "sig-3", byPost[0].Signature)
}

func TestTransactionStore_TraderFlows(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransactionStore(pool)

	seedLedger(t, ctx, pool, []*domain.TransactionRecord{
		ledgerRecord("sig-1", "user-1", "post-a", domain.SideBuy, "10.0", 100),
		ledgerRecord("sig-2", "user-1", "post-a", domain.SideSell, "14.0", 200),
		ledgerRecord("sig-3", "user-2", "post-a", domain.SideBuy, "5.0", 300),
	})

	flows, err := store.TraderFlows(ctx, 0)
	require.NoError(t, err)
	require.Len(t, flows, 2)

	assert.Equal(t, "user-1", flows[0].UserID)
	assert.True(t, flows[0].BuyVolume.Equal(dec("10.0")), "buy = %s", flows[0].BuyVolume)
	assert.True(t, flows[0].SellVolume.Equal(dec("14.0")), "sell = %s", flows[0].SellVolume)
	assert.Equal(t, 2, flows[0].Trades)

	assert.Equal(t, "user-2", flows[1].UserID)
	assert.True(t, flows[1].SellVolume.IsZero())

	limited, err := store.TraderFlows(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "user-1", limited[0].UserID)
}

func TestHoldingStore_GetByUser(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	holdings := NewHoldingStore(pool)

	seedLedger(t, ctx, pool, []*domain.TransactionRecord{
		ledgerRecord("sig-1", "user-1", "post-a", domain.SideBuy, "1.0", 100),
		ledgerRecord("sig-2", "user-1", "post-b", domain.SideBuy, "2.0", 200),
		ledgerRecord("sig-3", "user-2", "post-a", domain.SideBuy, "3.0", 300),
	})

	got, err := holdings.GetByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "post-a", got[0].PostID)
	assert.Equal(t, "post-b", got[1].PostID)

	_, err = holdings.Get(ctx, "user-3", "post-a")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
