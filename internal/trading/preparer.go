package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/observability"
	"github.com/adityaslyf/redcircle-trading/internal/pool"
	"github.com/adityaslyf/redcircle-trading/internal/pricing"
	"github.com/adityaslyf/redcircle-trading/internal/solana"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// PrepareBuyRequest asks for an unsigned buy transaction.
type PrepareBuyRequest struct {
	PostID      string
	UserID      string
	Wallet      string          // trader wallet, fee payer
	AmountSOL   decimal.Decimal // SOL to spend
	SlippageBps int             // 0 selects the default
}

// PrepareSellRequest asks for an unsigned sell transaction.
type PrepareSellRequest struct {
	PostID      string
	UserID      string
	Wallet      string
	Amount      int64 // token base units to sell
	SlippageBps int
}

// PrepareResult is an unsigned swap ready for client-side signing.
type PrepareResult struct {
	TransactionBase64    string
	Blockhash            string
	LastValidBlockHeight uint64

	AmountIn      uint64          // lamports for buys, base units for sells
	EstimatedOut  uint64          // base units for buys, lamports for sells
	MinimumOut    uint64          // slippage bound enforced on-chain
	PricePerToken decimal.Decimal // effective SOL per token at the estimate
	FeeBps        uint16
}

// PrepareBuy quotes a buy against live reserves and returns the
// unsigned swap transaction. Nothing is recorded; accounting happens
// at settlement.
func (s *Service) PrepareBuy(ctx context.Context, req PrepareBuyRequest) (*PrepareResult, error) {
	start := time.Now()

	if !req.AmountSOL.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := solana.ValidateWalletAddress(req.Wallet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}

	post, state, err := s.tradablePost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	lamportsIn := pricing.SOLToLamports(req.AmountSOL)
	if lamportsIn == 0 {
		return nil, ErrInvalidAmount
	}

	// The program deducts the fee from the quote input before the
	// curve math.
	effectiveIn := pricing.ApplyFeeBps(lamportsIn, state.FeeBps)
	estimatedOut := pricing.QuoteBuy(state.BaseReserves, state.QuoteReserves, effectiveIn)
	if estimatedOut == 0 {
		return nil, ErrInvalidAmount
	}
	minimumOut := pricing.MinimumOut(estimatedOut, slippageOrDefault(req.SlippageBps))

	swap, err := s.gateway.BuildSwapTransaction(ctx, pool.SwapRequest{
		PoolAddress: post.PoolAddress,
		Trader:      req.Wallet,
		AmountIn:    lamportsIn,
		MinimumOut:  minimumOut,
		Direction:   pool.DirectionBuy,
		State:       state,
	})
	if err != nil {
		return nil, mapPoolError(err)
	}

	observability.RecordTradePrepared("buy", time.Since(start).Seconds())
	return &PrepareResult{
		TransactionBase64:    swap.TransactionBase64,
		Blockhash:            swap.Blockhash,
		LastValidBlockHeight: swap.LastValidBlockHeight,
		AmountIn:             lamportsIn,
		EstimatedOut:         estimatedOut,
		MinimumOut:           minimumOut,
		PricePerToken:        pricing.PricePerToken(lamportsIn, estimatedOut, post.TokenDecimals),
		FeeBps:               state.FeeBps,
	}, nil
}

// PrepareSell quotes a sell of held tokens and returns the unsigned
// swap transaction. The position must cover the requested amount.
func (s *Service) PrepareSell(ctx context.Context, req PrepareSellRequest) (*PrepareResult, error) {
	start := time.Now()

	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := solana.ValidateWalletAddress(req.Wallet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}

	post, state, err := s.tradablePost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	holding, err := s.holdings.Get(ctx, req.UserID, req.PostID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoPosition
		}
		return nil, fmt.Errorf("load holding: %w", err)
	}
	if req.Amount > holding.Amount {
		return nil, ErrInsufficientPosition
	}

	baseIn := uint64(req.Amount)
	grossOut := pricing.QuoteSell(state.BaseReserves, state.QuoteReserves, baseIn)
	// The fee comes out of the quote proceeds.
	estimatedOut := pricing.ApplyFeeBps(grossOut, state.FeeBps)
	if estimatedOut == 0 {
		return nil, ErrInvalidAmount
	}
	minimumOut := pricing.MinimumOut(estimatedOut, slippageOrDefault(req.SlippageBps))

	swap, err := s.gateway.BuildSwapTransaction(ctx, pool.SwapRequest{
		PoolAddress: post.PoolAddress,
		Trader:      req.Wallet,
		AmountIn:    baseIn,
		MinimumOut:  minimumOut,
		Direction:   pool.DirectionSell,
		State:       state,
	})
	if err != nil {
		return nil, mapPoolError(err)
	}

	observability.RecordTradePrepared("sell", time.Since(start).Seconds())
	return &PrepareResult{
		TransactionBase64:    swap.TransactionBase64,
		Blockhash:            swap.Blockhash,
		LastValidBlockHeight: swap.LastValidBlockHeight,
		AmountIn:             baseIn,
		EstimatedOut:         estimatedOut,
		MinimumOut:           minimumOut,
		PricePerToken:        pricing.PricePerToken(estimatedOut, baseIn, post.TokenDecimals),
		FeeBps:               state.FeeBps,
	}, nil
}

// tradablePost loads the post and its current pool reserves, serving
// reserves from the websocket cache when fresh.
func (s *Service) tradablePost(ctx context.Context, postID string) (*domain.Post, *domain.PoolState, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrPostNotFound
		}
		return nil, nil, fmt.Errorf("load post: %w", err)
	}
	if !post.Tradable() {
		return nil, nil, ErrPoolNotReady
	}

	state, err := s.poolState(ctx, post.PoolAddress)
	if err != nil {
		return nil, nil, err
	}
	return post, state, nil
}

func (s *Service) poolState(ctx context.Context, poolAddress string) (*domain.PoolState, error) {
	if s.reserves != nil {
		if state, ok := s.reserves.Snapshot(poolAddress); ok {
			observability.RecordReserveCache(true)
			return state, nil
		}
		observability.RecordReserveCache(false)
	}

	state, err := s.gateway.GetPoolState(ctx, poolAddress)
	if err != nil {
		return nil, mapPoolError(err)
	}
	return state, nil
}

func slippageOrDefault(bps int) int {
	if bps <= 0 {
		return pricing.DefaultSlippageBps
	}
	return bps
}

func mapPoolError(err error) error {
	switch {
	case errors.Is(err, pool.ErrPoolNotFound):
		return ErrPoolNotReady
	case errors.Is(err, pool.ErrUpstreamUnavailable):
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	default:
		return err
	}
}
