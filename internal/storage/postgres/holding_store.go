package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// HoldingStore implements storage.HoldingStore using PostgreSQL.
type HoldingStore struct {
	pool *Pool
}

// NewHoldingStore creates a new HoldingStore.
func NewHoldingStore(pool *Pool) *HoldingStore {
	return &HoldingStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HoldingStore = (*HoldingStore)(nil)

const selectHoldingColumns = `
	user_id, post_id, amount,
	avg_buy_price::TEXT, total_invested::TEXT, total_realized::TEXT, updated_at
`

// Get retrieves one holding. Returns ErrNotFound if absent.
func (s *HoldingStore) Get(ctx context.Context, userID, postID string) (*domain.Holding, error) {
	query := `SELECT ` + selectHoldingColumns + ` FROM holdings WHERE user_id = $1 AND post_id = $2`

	h, err := scanHolding(s.pool.QueryRow(ctx, query, userID, postID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get holding: %w", err)
	}
	return h, nil
}

// GetByUser retrieves all open holdings for a user, ordered by post_id.
func (s *HoldingStore) GetByUser(ctx context.Context, userID string) ([]*domain.Holding, error) {
	query := `SELECT ` + selectHoldingColumns + ` FROM holdings WHERE user_id = $1 ORDER BY post_id ASC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	var result []*domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holdings: %w", err)
	}
	return result, nil
}

func scanHolding(row rowScanner) (*domain.Holding, error) {
	var h domain.Holding
	var avgBuyPrice, totalInvested, totalRealized string
	err := row.Scan(
		&h.UserID, &h.PostID, &h.Amount,
		&avgBuyPrice, &totalInvested, &totalRealized, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if h.AvgBuyPrice, err = decimal.NewFromString(avgBuyPrice); err != nil {
		return nil, fmt.Errorf("parse avg_buy_price: %w", err)
	}
	if h.TotalInvested, err = decimal.NewFromString(totalInvested); err != nil {
		return nil, fmt.Errorf("parse total_invested: %w", err)
	}
	if h.TotalRealized, err = decimal.NewFromString(totalRealized); err != nil {
		return nil, fmt.Errorf("parse total_realized: %w", err)
	}
	return &h, nil
}
