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

// quoteSizesSOL are the fixed illustrative buy sizes shown on the
// trading view.
var quoteSizesSOL = []decimal.Decimal{
	decimal.RequireFromString("0.1"),
	decimal.RequireFromString("1"),
	decimal.RequireFromString("5"),
}

// GetStats returns the trading view for a post. Before the pool
// exists the view is derived from the post row alone; once the pool
// is live it reflects current reserves.
func (s *Service) GetStats(ctx context.Context, postID string) (*domain.Stats, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	if !post.Tradable() {
		return preLaunchStats(post), nil
	}

	state, err := s.poolState(ctx, post.PoolAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatsUnavailable, err)
	}
	return liveStats(post, state), nil
}

// preLaunchStats derives the view from the post row: nothing is sold,
// the whole supply is available, price is whatever the row carries.
func preLaunchStats(post *domain.Post) *domain.Stats {
	price := post.CurrentPrice
	if price.IsZero() {
		price = post.InitialPrice
	}
	return &domain.Stats{
		PostID:          post.PostID,
		CurrentPrice:    price,
		TotalSupply:     post.TokenSupply,
		SoldSupply:      0,
		AvailableSupply: post.TokenSupply,
		TotalVolume:     post.TotalVolume,
		MarketCap:       post.MarketCap,
		Holders:         post.Holders,
		PoolLive:        false,
	}
}

func liveStats(post *domain.Post, state *domain.PoolState) *domain.Stats {
	price := pricing.SpotPrice(state.BaseReserves, state.QuoteReserves, post.TokenDecimals)

	available := int64(state.BaseReserves)
	sold := post.TokenSupply - available
	if sold < 0 {
		sold = 0
	}

	marketCap := price.Mul(pricing.BaseUnitsToTokens(uint64(post.TokenSupply), post.TokenDecimals))

	quotes := make([]domain.BuyQuote, 0, len(quoteSizesSOL))
	for _, size := range quoteSizesSOL {
		lamports := pricing.SOLToLamports(size)
		effectiveIn := pricing.ApplyFeeBps(lamports, state.FeeBps)
		out := pricing.QuoteBuy(state.BaseReserves, state.QuoteReserves, effectiveIn)
		quotes = append(quotes, domain.BuyQuote{
			QuoteIn: size,
			BaseOut: int64(out),
			Price:   pricing.PricePerToken(lamports, out, post.TokenDecimals),
		})
	}

	return &domain.Stats{
		PostID:          post.PostID,
		CurrentPrice:    price,
		TotalSupply:     post.TokenSupply,
		SoldSupply:      sold,
		AvailableSupply: available,
		TotalVolume:     post.TotalVolume,
		MarketCap:       marketCap,
		Holders:         post.Holders,
		PoolLive:        true,
		BuyQuotes:       quotes,
	}
}
