// Package leaderboard ranks posts and traders from settled-trade data.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// DefaultLimit bounds leaderboard size when the caller passes none.
const DefaultLimit = 20

// PostEntry is one ranked post.
type PostEntry struct {
	Rank         int
	PostID       string
	Title        string
	Subreddit    string
	CurrentPrice decimal.Decimal
	MarketCap    decimal.Decimal
	TotalVolume  decimal.Decimal
	Holders      int
}

// TraderEntry is one ranked trader. NetFlow is SOL taken out of the
// market minus SOL put in; holdings still open are not marked to
// market.
type TraderEntry struct {
	Rank       int
	UserID     string
	BuyVolume  decimal.Decimal
	SellVolume decimal.Decimal
	NetFlow    decimal.Decimal
	Trades     int
}

// Leaderboard is the combined ranking view.
type Leaderboard struct {
	TopPosts   []PostEntry
	TopTraders []TraderEntry
}

// Aggregator computes leaderboards from the post and ledger stores.
type Aggregator struct {
	posts storage.PostStore
	txs   storage.TransactionStore
}

// NewAggregator creates a leaderboard aggregator.
func NewAggregator(posts storage.PostStore, txs storage.TransactionStore) *Aggregator {
	return &Aggregator{posts: posts, txs: txs}
}

// TopPosts ranks posts by cumulative settled volume.
func (a *Aggregator) TopPosts(ctx context.Context, limit int) ([]PostEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	posts, err := a.posts.TopByVolume(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top posts: %w", err)
	}
	entries := make([]PostEntry, 0, len(posts))
	for i, p := range posts {
		entries = append(entries, postEntry(i+1, p))
	}
	return entries, nil
}

// TopTraders ranks traders by net flow across the whole ledger.
func (a *Aggregator) TopTraders(ctx context.Context, limit int) ([]TraderEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	flows, err := a.txs.TraderFlows(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top traders: %w", err)
	}
	entries := make([]TraderEntry, 0, len(flows))
	for i, f := range flows {
		entries = append(entries, TraderEntry{
			Rank:       i + 1,
			UserID:     f.UserID,
			BuyVolume:  f.BuyVolume,
			SellVolume: f.SellVolume,
			NetFlow:    f.SellVolume.Sub(f.BuyVolume),
			Trades:     f.Trades,
		})
	}
	return entries, nil
}

// Compute builds the combined leaderboard.
func (a *Aggregator) Compute(ctx context.Context, limit int) (*Leaderboard, error) {
	posts, err := a.TopPosts(ctx, limit)
	if err != nil {
		return nil, err
	}
	traders, err := a.TopTraders(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &Leaderboard{TopPosts: posts, TopTraders: traders}, nil
}

func postEntry(rank int, p *domain.Post) PostEntry {
	return PostEntry{
		Rank:         rank,
		PostID:       p.PostID,
		Title:        p.Title,
		Subreddit:    p.Subreddit,
		CurrentPrice: p.CurrentPrice,
		MarketCap:    p.MarketCap,
		TotalVolume:  p.TotalVolume,
		Holders:      p.Holders,
	}
}
