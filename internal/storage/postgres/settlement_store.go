package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// SettlementStore implements storage.SettlementStore using PostgreSQL.
// The ledger insert, the holding change and the post aggregate update
// commit in one transaction; a duplicate signature aborts before
// anything is written.
type SettlementStore struct {
	pool *Pool
}

// NewSettlementStore creates a new SettlementStore.
func NewSettlementStore(pool *Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SettlementStore = (*SettlementStore)(nil)

// Apply writes the settlement. Returns ErrDuplicateKey if the
// signature was already settled.
func (s *SettlementStore) Apply(ctx context.Context, st *storage.Settlement) (err error) {
	if st == nil || st.Transaction == nil || st.Transaction.Signature == "" {
		return storage.ErrInvalidInput
	}
	if st.Holding == nil && !st.CloseHolding {
		return storage.ErrInvalidInput
	}

	// The statements inside run on the transaction, below the pool's
	// per-query recording; time the whole settlement instead.
	start := time.Now()
	defer func() { recordQuery("settlement_apply", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin settlement tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Ledger insert first: the unique signature constraint is the
	// idempotency gate for the whole settlement.
	t := st.Transaction
	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (
			signature, user_id, post_id, side, amount, price_per_token, total_value,
			wallet_address, network_fee, platform_fee, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8, $9::NUMERIC, $10::NUMERIC, $11, $12)
	`,
		t.Signature, t.UserID, t.PostID, t.Side, t.Amount,
		t.PricePerToken.String(), t.TotalValue.String(), t.WalletAddress,
		t.NetworkFee.String(), t.PlatformFee.String(), t.Status, t.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	if st.CloseHolding {
		_, err = tx.Exec(ctx,
			`DELETE FROM holdings WHERE user_id = $1 AND post_id = $2`,
			t.UserID, t.PostID,
		)
		if err != nil {
			return fmt.Errorf("delete holding: %w", err)
		}
	} else {
		h := st.Holding
		_, err = tx.Exec(ctx, `
			INSERT INTO holdings (
				user_id, post_id, amount, avg_buy_price, total_invested, total_realized, updated_at
			) VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC, $7)
			ON CONFLICT (user_id, post_id) DO UPDATE SET
				amount = EXCLUDED.amount,
				avg_buy_price = EXCLUDED.avg_buy_price,
				total_invested = EXCLUDED.total_invested,
				total_realized = EXCLUDED.total_realized,
				updated_at = EXCLUDED.updated_at
		`,
			h.UserID, h.PostID, h.Amount, h.AvgBuyPrice.String(),
			h.TotalInvested.String(), h.TotalRealized.String(), h.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert holding: %w", err)
		}
	}

	a := st.Post
	tag, err := tx.Exec(ctx, `
		UPDATE posts SET
			current_price = $2::NUMERIC,
			market_cap = $3::NUMERIC,
			total_volume = total_volume + $4::NUMERIC,
			holders = holders + $5
		WHERE post_id = $1
	`,
		a.PostID, a.CurrentPrice.String(), a.MarketCap.String(), a.VolumeDelta.String(), a.HoldersDelta,
	)
	if err != nil {
		return fmt.Errorf("update post aggregates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit settlement tx: %w", err)
	}
	return nil
}
