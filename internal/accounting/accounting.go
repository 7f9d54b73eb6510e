// Package accounting implements the incremental average-cost-basis
// transition applied to a holding when a trade settles. It is pure
// state-in, state-out: persistence and serialization are the
// reconciler's problem.
package accounting

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
)

var (
	// ErrNoPosition is returned for a sell against a holding that does
	// not exist. A well-behaved client never triggers this; callers log
	// it as a possible replay or logic bug.
	ErrNoPosition = errors.New("accounting: sell against nonexistent position")

	// ErrInsufficientPosition is returned when a sell exceeds the held
	// amount. The holding is left unchanged.
	ErrInsufficientPosition = errors.New("accounting: sell exceeds held amount")

	// ErrInvalidTrade is returned for non-positive amounts, negative
	// values, or an unknown side.
	ErrInvalidTrade = errors.New("accounting: invalid trade")
)

// Result is the outcome of applying one trade to a holding.
type Result struct {
	// Holding is the post-trade state. Nil when the position closed.
	Holding *domain.Holding
	// Created is true when the trade opened a new position.
	Created bool
	// Closed is true when the trade reduced the position to zero; the
	// stored row must be deleted.
	Closed bool
	// Realized is the SOL credited by a sell (totalValue), zero for
	// buys. Realized P&L per sell is derivable as
	// totalValue - amount*avgBuyPrice but is not stored here.
	Realized decimal.Decimal
}

// Apply returns the holding state after settling a trade. h is nil
// when the user has no position in the post.
//
// Buys blend cost bases by volume-weighted average; sells never touch
// the average or totalInvested, only amount and totalRealized.
func Apply(h *domain.Holding, side domain.Side, amount int64, totalValue decimal.Decimal) (Result, error) {
	if amount <= 0 || totalValue.IsNegative() || !side.Valid() {
		return Result{}, ErrInvalidTrade
	}

	switch side {
	case domain.SideBuy:
		return applyBuy(h, amount, totalValue), nil
	default:
		return applySell(h, amount, totalValue)
	}
}

func applyBuy(h *domain.Holding, amount int64, totalValue decimal.Decimal) Result {
	if h == nil {
		amt := decimal.NewFromInt(amount)
		return Result{
			Holding: &domain.Holding{
				Amount:        amount,
				AvgBuyPrice:   totalValue.Div(amt),
				TotalInvested: totalValue,
				TotalRealized: decimal.Zero,
			},
			Created: true,
		}
	}

	newAmount := h.Amount + amount
	newInvested := h.TotalInvested.Add(totalValue)
	next := *h
	next.Amount = newAmount
	next.TotalInvested = newInvested
	next.AvgBuyPrice = newInvested.Div(decimal.NewFromInt(newAmount))
	return Result{Holding: &next}
}

func applySell(h *domain.Holding, amount int64, totalValue decimal.Decimal) (Result, error) {
	if h == nil || h.Amount == 0 {
		return Result{}, ErrNoPosition
	}
	if amount > h.Amount {
		return Result{}, ErrInsufficientPosition
	}

	next := *h
	next.Amount = h.Amount - amount
	next.TotalRealized = h.TotalRealized.Add(totalValue)

	if next.Amount == 0 {
		return Result{Closed: true, Realized: totalValue}, nil
	}
	return Result{Holding: &next, Realized: totalValue}, nil
}
