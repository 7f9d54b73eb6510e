package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// TransactionStore implements storage.TransactionStore using
// PostgreSQL. The ledger is written exclusively through
// SettlementStore; this type only reads.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const selectTransactionColumns = `
	signature, user_id, post_id, side, amount,
	price_per_token::TEXT, total_value::TEXT, wallet_address,
	network_fee::TEXT, platform_fee::TEXT, status, created_at
`

// GetBySignature retrieves a ledger entry. Returns ErrNotFound if the
// signature has not been settled.
func (s *TransactionStore) GetBySignature(ctx context.Context, signature string) (*domain.TransactionRecord, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions WHERE signature = $1`

	t, err := scanTransaction(s.pool.QueryRow(ctx, query, signature))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction by signature: %w", err)
	}
	return t, nil
}

// GetByUser retrieves a user's trades, ordered by created_at DESC.
func (s *TransactionStore) GetByUser(ctx context.Context, userID string, limit int) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, signature ASC
	`
	return s.queryTransactions(ctx, withLimit(query, limit), userID)
}

// GetByPost retrieves a post's trades, ordered by created_at DESC.
func (s *TransactionStore) GetByPost(ctx context.Context, postID string, limit int) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE post_id = $1
		ORDER BY created_at DESC, signature ASC
	`
	return s.queryTransactions(ctx, withLimit(query, limit), postID)
}

// TraderFlows aggregates settled volume per user, ordered by net flow
// DESC.
func (s *TransactionStore) TraderFlows(ctx context.Context, limit int) ([]*storage.TraderFlow, error) {
	query := `
		SELECT
			user_id,
			COALESCE(SUM(total_value) FILTER (WHERE side = 'buy'), 0)::TEXT  AS buy_volume,
			COALESCE(SUM(total_value) FILTER (WHERE side = 'sell'), 0)::TEXT AS sell_volume,
			COUNT(*) AS trades
		FROM transactions
		GROUP BY user_id
		ORDER BY COALESCE(SUM(total_value) FILTER (WHERE side = 'sell'), 0)
		       - COALESCE(SUM(total_value) FILTER (WHERE side = 'buy'), 0) DESC,
			user_id ASC
	`
	query = withLimit(query, limit)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trader flows: %w", err)
	}
	defer rows.Close()

	var result []*storage.TraderFlow
	for rows.Next() {
		var f storage.TraderFlow
		var buyVolume, sellVolume string
		if err := rows.Scan(&f.UserID, &buyVolume, &sellVolume, &f.Trades); err != nil {
			return nil, fmt.Errorf("scan trader flow: %w", err)
		}
		if f.BuyVolume, err = decimal.NewFromString(buyVolume); err != nil {
			return nil, fmt.Errorf("parse buy_volume: %w", err)
		}
		if f.SellVolume, err = decimal.NewFromString(sellVolume); err != nil {
			return nil, fmt.Errorf("parse sell_volume: %w", err)
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trader flows: %w", err)
	}
	return result, nil
}

func scanTransaction(row rowScanner) (*domain.TransactionRecord, error) {
	var t domain.TransactionRecord
	var pricePerToken, totalValue, networkFee, platformFee string
	err := row.Scan(
		&t.Signature, &t.UserID, &t.PostID, &t.Side, &t.Amount,
		&pricePerToken, &totalValue, &t.WalletAddress,
		&networkFee, &platformFee, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if t.PricePerToken, err = decimal.NewFromString(pricePerToken); err != nil {
		return nil, fmt.Errorf("parse price_per_token: %w", err)
	}
	if t.TotalValue, err = decimal.NewFromString(totalValue); err != nil {
		return nil, fmt.Errorf("parse total_value: %w", err)
	}
	if t.NetworkFee, err = decimal.NewFromString(networkFee); err != nil {
		return nil, fmt.Errorf("parse network_fee: %w", err)
	}
	if t.PlatformFee, err = decimal.NewFromString(platformFee); err != nil {
		return nil, fmt.Errorf("parse platform_fee: %w", err)
	}
	return &t, nil
}

func (s *TransactionStore) queryTransactions(ctx context.Context, query string, args ...any) ([]*domain.TransactionRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var result []*domain.TransactionRecord
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return result, nil
}

func withLimit(query string, limit int) string {
	if limit > 0 {
		return query + fmt.Sprintf(" LIMIT %d", limit)
	}
	return query
}
