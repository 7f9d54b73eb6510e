package domain

import "github.com/shopspring/decimal"

// Holding represents a user's open position in a post token.
// Corresponds to holdings table in PostgreSQL. One row per
// (user_id, post_id) pair; rows with amount == 0 are deleted rather
// than kept around.
type Holding struct {
	UserID string
	PostID string

	Amount        int64           // token base units held, always > 0 for a stored row
	AvgBuyPrice   decimal.Decimal // volume-weighted cost basis, SOL per base unit
	TotalInvested decimal.Decimal // cumulative SOL spent on buys still held against
	TotalRealized decimal.Decimal // cumulative SOL received from sells

	UpdatedAt int64 // Unix timestamp in milliseconds
}

// UnrealizedValue returns the position value at the given per-base-unit
// price.
func (h *Holding) UnrealizedValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(h.Amount))
}
