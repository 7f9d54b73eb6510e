package domain

import "github.com/shopspring/decimal"

// BuyQuote is an illustrative quote at a fixed SOL size, shown on the
// trading view so users see price impact before entering an amount.
type BuyQuote struct {
	QuoteIn  decimal.Decimal // SOL spent
	BaseOut  int64           // tokens received (base units, floored)
	Price    decimal.Decimal // effective SOL per token
}

// Stats is the live trading view for a post. When the pool does not
// exist yet, values are derived from the Post row and SoldSupply is
// zero.
type Stats struct {
	PostID          string
	CurrentPrice    decimal.Decimal
	TotalSupply     int64
	SoldSupply      int64
	AvailableSupply int64
	TotalVolume     decimal.Decimal
	MarketCap       decimal.Decimal
	Holders         int
	PoolLive        bool
	BuyQuotes       []BuyQuote
}
