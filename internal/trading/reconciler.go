package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adityaslyf/redcircle-trading/internal/accounting"
	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/observability"
	"github.com/adityaslyf/redcircle-trading/internal/pricing"
	"github.com/adityaslyf/redcircle-trading/internal/solana"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// SettleRequest reports a confirmed on-chain swap for reconciliation.
type SettleRequest struct {
	Signature string // on-chain transaction signature, the idempotency key
	UserID    string
	PostID    string
	Side      domain.Side
	Amount    int64           // token base units traded
	TotalSOL  decimal.Decimal // SOL moved by the trade

	Wallet         string
	NetworkFeeSOL  decimal.Decimal
	PlatformFeeSOL decimal.Decimal
}

// SettleResult reports what the settlement did.
type SettleResult struct {
	// Holding is the post-trade position, nil when the sell closed it.
	Holding *domain.Holding
	Closed  bool
	// Realized is the SOL credited by a sell, zero for buys.
	Realized decimal.Decimal
	// RealizedPnL is Realized minus the cost basis of the sold tokens,
	// zero for buys.
	RealizedPnL decimal.Decimal
	// PricePerToken is the effective SOL per token of the trade.
	PricePerToken decimal.Decimal
	// AlreadySettled is true when the signature had been settled
	// before: nothing was applied and the result is rebuilt from the
	// recorded trade.
	AlreadySettled bool
}

// Settle reconciles one confirmed swap into accounting. Keyed on the
// on-chain signature: a replay applies nothing and succeeds with the
// previously recorded outcome. Settlements of the same (user, post)
// position are serialized.
func (s *Service) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	start := time.Now()

	if err := s.validateSettle(req); err != nil {
		observability.RecordSettlementError("validation")
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, req.PostID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	unlock := s.locks.Lock(req.UserID + "|" + req.PostID)
	defer unlock()

	// Cheap replay check before any computation. The ledger's unique
	// signature constraint is the authoritative gate below.
	if prior, err := s.txs.GetBySignature(ctx, req.Signature); err == nil {
		observability.RecordSettlementReplay()
		return s.replayResult(ctx, prior)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("check signature: %w", err)
	}

	var holding *domain.Holding
	holding, err = s.holdings.Get(ctx, req.UserID, req.PostID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("load holding: %w", err)
		}
		holding = nil
	}

	result, err := accounting.Apply(holding, req.Side, req.Amount, req.TotalSOL)
	if err != nil {
		observability.RecordSettlementError("accounting")
		switch {
		case errors.Is(err, accounting.ErrNoPosition):
			return nil, ErrNoPosition
		case errors.Is(err, accounting.ErrInsufficientPosition):
			return nil, ErrInsufficientPosition
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
	}

	now := s.now()
	pricePerToken := pricing.PricePerToken(
		pricing.SOLToLamports(req.TotalSOL), uint64(req.Amount), post.TokenDecimals)
	marketCap := pricePerToken.Mul(pricing.BaseUnitsToTokens(uint64(post.TokenSupply), post.TokenDecimals))

	settlement := &storage.Settlement{
		Transaction: &domain.TransactionRecord{
			Signature:     req.Signature,
			UserID:        req.UserID,
			PostID:        req.PostID,
			Side:          req.Side,
			Amount:        req.Amount,
			PricePerToken: pricePerToken,
			TotalValue:    req.TotalSOL,
			WalletAddress: req.Wallet,
			NetworkFee:    req.NetworkFeeSOL,
			PlatformFee:   req.PlatformFeeSOL,
			Status:        domain.TxStatusConfirmed,
			CreatedAt:     now,
		},
		CloseHolding: result.Closed,
		Post: storage.PostAggregates{
			PostID:       req.PostID,
			CurrentPrice: pricePerToken,
			MarketCap:    marketCap,
			VolumeDelta:  req.TotalSOL,
			HoldersDelta: holdersDelta(result),
		},
	}
	if result.Holding != nil {
		h := *result.Holding
		h.UserID = req.UserID
		h.PostID = req.PostID
		h.UpdatedAt = now
		settlement.Holding = &h
	}

	// Once the swap confirmed on-chain the books must reflect it even
	// if the caller goes away mid-request.
	applyCtx := context.WithoutCancel(ctx)
	if err := s.settlements.Apply(applyCtx, settlement); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Lost the race to a concurrent settlement of the same
			// signature; report its outcome instead of our own.
			observability.RecordSettlementReplay()
			prior, perr := s.txs.GetBySignature(applyCtx, req.Signature)
			if perr != nil {
				return nil, fmt.Errorf("load settled transaction: %w", perr)
			}
			return s.replayResult(applyCtx, prior)
		}
		observability.RecordSettlementError("storage")
		return nil, fmt.Errorf("apply settlement: %w", err)
	}

	// Telemetry only. A failed append never unwinds the settlement.
	if err := s.prices.Insert(applyCtx, &domain.PricePoint{
		PostID:      req.PostID,
		Price:       pricePerToken,
		Volume:      req.TotalSOL,
		TimestampMs: now,
	}); err != nil {
		s.logger.Warn("price history append failed",
			zap.String("post", req.PostID),
			zap.String("signature", req.Signature),
			zap.Error(err))
	}

	volumeSOL, _ := req.TotalSOL.Float64()
	observability.RecordTradeSettled(string(req.Side), volumeSOL, time.Since(start).Seconds(), result.Closed)
	observability.Default().LastSuccessfulSettlement.Set(float64(time.Now().Unix()))

	s.logger.Info("trade settled",
		zap.String("signature", req.Signature),
		zap.String("user", req.UserID),
		zap.String("post", req.PostID),
		zap.String("side", string(req.Side)),
		zap.Int64("amount", req.Amount),
		zap.String("total_sol", req.TotalSOL.String()),
		zap.Bool("closed", result.Closed))

	res := &SettleResult{
		Holding:       settlement.Holding,
		Closed:        result.Closed,
		Realized:      result.Realized,
		PricePerToken: pricePerToken,
	}
	if req.Side == domain.SideSell && holding != nil {
		cost := holding.AvgBuyPrice.Mul(decimal.NewFromInt(req.Amount))
		res.RealizedPnL = result.Realized.Sub(cost)
	}
	return res, nil
}

// replayResult rebuilds the outcome of an earlier settlement from its
// ledger row and the current position. Per-sell P&L is not stored, so
// RealizedPnL stays zero on a replay; it is derivable from the ledger
// and the cost basis at read time.
func (s *Service) replayResult(ctx context.Context, prior *domain.TransactionRecord) (*SettleResult, error) {
	res := &SettleResult{
		AlreadySettled: true,
		PricePerToken:  prior.PricePerToken,
	}
	if prior.Side == domain.SideSell {
		res.Realized = prior.TotalValue
	}

	holding, err := s.holdings.Get(ctx, prior.UserID, prior.PostID)
	switch {
	case err == nil:
		res.Holding = holding
	case errors.Is(err, storage.ErrNotFound):
		// A settled sell with no surviving position closed it.
		res.Closed = prior.Side == domain.SideSell
	default:
		return nil, fmt.Errorf("load holding: %w", err)
	}
	return res, nil
}

func (s *Service) validateSettle(req SettleRequest) error {
	if err := solana.ValidateSignature(req.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !req.Side.Valid() {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidAmount, req.Side)
	}
	// A zero total is legal: an airdrop-style transfer settles at
	// price zero. Only negative values are rejected.
	if req.Amount <= 0 || req.TotalSOL.IsNegative() {
		return ErrInvalidAmount
	}
	if err := solana.ValidateWalletAddress(req.Wallet); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}
	return nil
}

func holdersDelta(r accounting.Result) int {
	switch {
	case r.Created:
		return 1
	case r.Closed:
		return -1
	default:
		return 0
	}
}
