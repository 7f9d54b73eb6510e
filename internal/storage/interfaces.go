package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
)

// PostStore provides access to posts storage.
type PostStore interface {
	// Insert adds a new post. Returns ErrDuplicateKey if post_id exists.
	Insert(ctx context.Context, p *domain.Post) error

	// GetByID retrieves a post by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, postID string) (*domain.Post, error)

	// List retrieves all posts, ordered by created_at DESC.
	List(ctx context.Context) ([]*domain.Post, error)

	// TopByVolume retrieves the highest-volume posts, ordered by
	// total_volume DESC.
	TopByVolume(ctx context.Context, limit int) ([]*domain.Post, error)

	// SetPool records the externally created pool for a post and marks
	// it active. Returns ErrNotFound if the post does not exist.
	SetPool(ctx context.Context, postID, poolAddress string) error
}

// HoldingStore provides access to holdings storage.
type HoldingStore interface {
	// Get retrieves one holding. Returns ErrNotFound if the user has no
	// open position in the post.
	Get(ctx context.Context, userID, postID string) (*domain.Holding, error)

	// GetByUser retrieves all open holdings for a user.
	GetByUser(ctx context.Context, userID string) ([]*domain.Holding, error)
}

// TransactionStore provides read access to the settled-trade ledger.
// Writes go through SettlementStore so the ledger row and its
// accounting effects land together.
type TransactionStore interface {
	// GetBySignature retrieves a ledger entry. Returns ErrNotFound if
	// the signature has not been settled.
	GetBySignature(ctx context.Context, signature string) (*domain.TransactionRecord, error)

	// GetByUser retrieves a user's trades, ordered by created_at DESC.
	GetByUser(ctx context.Context, userID string, limit int) ([]*domain.TransactionRecord, error)

	// GetByPost retrieves a post's trades, ordered by created_at DESC.
	GetByPost(ctx context.Context, postID string, limit int) ([]*domain.TransactionRecord, error)

	// TraderFlows aggregates settled volume per user across the whole
	// ledger, ordered by net flow (sells minus buys) DESC.
	TraderFlows(ctx context.Context, limit int) ([]*TraderFlow, error)
}

// TraderFlow is the per-user ledger aggregate used for ranking traders.
type TraderFlow struct {
	UserID     string
	BuyVolume  decimal.Decimal // SOL spent on buys
	SellVolume decimal.Decimal // SOL received from sells
	Trades     int
}

// PostAggregates carries the post-row updates applied by a settlement.
type PostAggregates struct {
	PostID       string
	CurrentPrice decimal.Decimal
	MarketCap    decimal.Decimal
	VolumeDelta  decimal.Decimal // added to total_volume
	HoldersDelta int             // +1 opened position, -1 closed, 0 otherwise
}

// Settlement is the unit of work a settled trade applies: one ledger
// insert, one holding upsert or delete, and the post aggregate
// updates. Backends apply all three atomically.
type Settlement struct {
	Transaction *domain.TransactionRecord

	// Holding is the resulting position. Nil together with
	// CloseHolding means the sell emptied the position and the row is
	// deleted.
	Holding      *domain.Holding
	CloseHolding bool

	Post PostAggregates
}

// SettlementStore applies settlements atomically.
type SettlementStore interface {
	// Apply writes the settlement. Returns ErrDuplicateKey if the
	// transaction signature was already settled; in that case nothing
	// is written.
	Apply(ctx context.Context, s *Settlement) error
}

// PriceHistoryStore provides access to the append-only per-post price
// series.
type PriceHistoryStore interface {
	// Insert appends one point.
	Insert(ctx context.Context, p *domain.PricePoint) error

	// GetByPost retrieves points for a post within [from, to] (both
	// Unix milliseconds, inclusive; to == 0 means now), ordered by
	// timestamp ASC. Limit <= 0 means no limit.
	GetByPost(ctx context.Context, postID string, from, to int64, limit int) ([]*domain.PricePoint, error)
}
