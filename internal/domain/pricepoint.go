package domain

import "github.com/shopspring/decimal"

// PricePoint is one point of the per-post trade price series.
// Corresponds to price_history table in ClickHouse. Append-only; one
// point is written per settled trade. The series is telemetry, not
// authoritative accounting: a failed append never rolls back a
// settlement.
type PricePoint struct {
	PostID      string
	Price       decimal.Decimal // SOL per token
	Volume      decimal.Decimal // SOL moved by the trade
	TimestampMs int64           // Unix timestamp in milliseconds
}
