package domain

import "github.com/shopspring/decimal"

// Post represents a tokenized Reddit post.
// Corresponds to posts table in PostgreSQL.
type Post struct {
	PostID    string // stable identifier, one per Reddit post
	RedditURL string // canonical URL of the source post
	Title     string // post title at tokenization time
	Subreddit string // source subreddit
	Author    string // Reddit author handle

	// Token economics.
	TokenSupply   int64           // fixed supply minted at creation (base units)
	TokenDecimals int             // decimals of the base token
	InitialPrice  decimal.Decimal // SOL per token at creation
	CurrentPrice  decimal.Decimal // SOL per token, updated on settlement

	// PoolAddress is empty until the bonding-curve pool is created
	// externally. Without a pool the post is not tradable on-chain and
	// stats fall back to ledger-derived values.
	PoolAddress string

	// Aggregates updated transactionally by settlement.
	TotalVolume decimal.Decimal // cumulative settled volume in SOL
	MarketCap   decimal.Decimal // current_price * token_supply
	Holders     int             // count of open holdings

	Status    string // "pending" | "active"
	CreatedAt int64  // Unix timestamp in milliseconds
}

// Post status constants
const (
	PostStatusPending = "pending"
	PostStatusActive  = "active"
)

// Tradable reports whether an on-chain pool exists for the post.
func (p *Post) Tradable() bool {
	return p.PoolAddress != "" && p.Status == PostStatusActive
}
