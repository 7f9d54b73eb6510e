package trading

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/pricing"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// PortfolioEntry is one open position enriched with the post's current
// price.
type PortfolioEntry struct {
	Holding *domain.Holding

	PostTitle     string
	CurrentPrice  decimal.Decimal // SOL per token
	CurrentValue  decimal.Decimal // position value in SOL at current price
	UnrealizedPnL decimal.Decimal // current value minus invested
}

// Portfolio is a user's open positions plus roll-up totals.
type Portfolio struct {
	UserID        string
	Entries       []PortfolioEntry
	TotalInvested decimal.Decimal
	TotalValue    decimal.Decimal
	TotalRealized decimal.Decimal
}

// GetPortfolio returns the user's open positions valued at each post's
// last settled price. A user with no positions gets an empty
// portfolio, not an error.
func (s *Service) GetPortfolio(ctx context.Context, userID string) (*Portfolio, error) {
	holdings, err := s.holdings.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}

	p := &Portfolio{UserID: userID, Entries: make([]PortfolioEntry, 0, len(holdings))}
	for _, h := range holdings {
		entry := PortfolioEntry{Holding: h}

		post, err := s.posts.GetByID(ctx, h.PostID)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("load post %s: %w", h.PostID, err)
			}
			// Orphaned holding; value it at the cost basis of what is
			// still held.
			entry.CurrentValue = h.UnrealizedValue(h.AvgBuyPrice)
		} else {
			entry.PostTitle = post.Title
			entry.CurrentPrice = post.CurrentPrice
			entry.CurrentValue = post.CurrentPrice.
				Mul(pricing.BaseUnitsToTokens(uint64(h.Amount), post.TokenDecimals))
		}
		entry.UnrealizedPnL = entry.CurrentValue.Sub(h.TotalInvested)

		p.Entries = append(p.Entries, entry)
		p.TotalInvested = p.TotalInvested.Add(h.TotalInvested)
		p.TotalValue = p.TotalValue.Add(entry.CurrentValue)
		p.TotalRealized = p.TotalRealized.Add(h.TotalRealized)
	}
	return p, nil
}

// GetUserTransactions returns a user's settled trades, newest first.
func (s *Service) GetUserTransactions(ctx context.Context, userID string, limit int) ([]*domain.TransactionRecord, error) {
	return s.txs.GetByUser(ctx, userID, limit)
}

// GetPostTransactions returns a post's settled trades, newest first.
func (s *Service) GetPostTransactions(ctx context.Context, postID string, limit int) ([]*domain.TransactionRecord, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post: %w", err)
	}
	return s.txs.GetByPost(ctx, postID, limit)
}

// GetPriceHistory returns the post's price series within [from, to].
// When no trade has been recorded yet the series is synthesized from
// the post row so charts always have at least one point.
func (s *Service) GetPriceHistory(ctx context.Context, postID string, from, to int64, limit int) ([]*domain.PricePoint, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	points, err := s.prices.GetByPost(ctx, postID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}
	if len(points) > 0 {
		return points, nil
	}

	price := post.CurrentPrice
	if price.IsZero() {
		price = post.InitialPrice
	}
	return []*domain.PricePoint{{
		PostID:      postID,
		Price:       price,
		Volume:      decimal.Zero,
		TimestampMs: s.now(),
	}}, nil
}
