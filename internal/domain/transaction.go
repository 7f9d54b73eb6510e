package domain

import "github.com/shopspring/decimal"

// Side is the direction of a trade from the user's perspective.
type Side string

// Trade sides
const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one of the known constants.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// TransactionRecord is one immutable ledger entry for a settled trade.
// Corresponds to transactions table in PostgreSQL. The on-chain
// signature is the primary key: a confirmed swap is reconciled into
// accounting exactly once.
type TransactionRecord struct {
	Signature     string // Solana transaction signature, unique
	UserID        string
	PostID        string
	Side          Side
	Amount        int64           // token base units traded
	PricePerToken decimal.Decimal // SOL per token at settlement
	TotalValue    decimal.Decimal // SOL moved by the trade
	WalletAddress string          // trader wallet (base58)
	NetworkFee    decimal.Decimal // chain fee in SOL
	PlatformFee   decimal.Decimal // platform fee in SOL
	Status        string          // always "confirmed" once written
	CreatedAt     int64           // Unix timestamp in milliseconds
}

// Transaction status constants
const (
	TxStatusConfirmed = "confirmed"
)
