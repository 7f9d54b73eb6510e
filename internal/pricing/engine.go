// Package pricing implements constant-product swap math for the
// bonding-curve pools that back tokenized posts.
//
// All curve arithmetic runs on integer smallest units (lamports for
// SOL, base units for post tokens). Intermediate products use big.Int
// so reserve-sized multiplications cannot overflow uint64. Conversion
// to human-readable decimal SOL happens only at the boundary, via
// shopspring/decimal — never float64 for money.
package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// LamportsPerSOL is the smallest-unit scale of the quote currency.
	LamportsPerSOL = 1_000_000_000

	// BpsDenominator is the basis-point scale used for slippage and fees.
	BpsDenominator = 10_000

	// DefaultSlippageBps is the default slippage tolerance (1%).
	DefaultSlippageBps = 100
)

// QuoteBuy returns the base tokens received for spending quoteIn
// lamports against the curve: quoteIn * baseReserves / (quoteReserves + quoteIn),
// floored. Degenerate inputs (zero reserve, zero input) quote zero —
// callers reject non-positive amounts before pricing.
func QuoteBuy(baseReserves, quoteReserves, quoteIn uint64) uint64 {
	if baseReserves == 0 || quoteReserves == 0 || quoteIn == 0 {
		return 0
	}
	num := new(big.Int).Mul(big.NewInt(0).SetUint64(quoteIn), big.NewInt(0).SetUint64(baseReserves))
	den := new(big.Int).Add(big.NewInt(0).SetUint64(quoteReserves), big.NewInt(0).SetUint64(quoteIn))
	return new(big.Int).Quo(num, den).Uint64()
}

// QuoteSell returns the lamports received for selling baseIn base
// tokens into the curve: baseIn * quoteReserves / (baseReserves + baseIn),
// floored.
func QuoteSell(baseReserves, quoteReserves, baseIn uint64) uint64 {
	if baseReserves == 0 || quoteReserves == 0 || baseIn == 0 {
		return 0
	}
	num := new(big.Int).Mul(big.NewInt(0).SetUint64(baseIn), big.NewInt(0).SetUint64(quoteReserves))
	den := new(big.Int).Add(big.NewInt(0).SetUint64(baseReserves), big.NewInt(0).SetUint64(baseIn))
	return new(big.Int).Quo(num, den).Uint64()
}

// ApplyFeeBps deducts a basis-point fee from an input amount, flooring
// toward zero. Used to shave the pool fee off the input before running
// it through the curve.
func ApplyFeeBps(amount uint64, feeBps uint16) uint64 {
	if feeBps == 0 {
		return amount
	}
	if int(feeBps) >= BpsDenominator {
		return 0
	}
	num := new(big.Int).Mul(big.NewInt(0).SetUint64(amount), big.NewInt(int64(BpsDenominator-int(feeBps))))
	return new(big.Int).Quo(num, big.NewInt(BpsDenominator)).Uint64()
}

// MinimumOut applies a slippage bound to an estimated output:
// estimatedOut * (10000 - slippageBps) / 10000, floored.
func MinimumOut(estimatedOut uint64, slippageBps int) uint64 {
	if slippageBps <= 0 {
		return estimatedOut
	}
	if slippageBps >= BpsDenominator {
		return 0
	}
	num := new(big.Int).Mul(big.NewInt(0).SetUint64(estimatedOut), big.NewInt(int64(BpsDenominator-slippageBps)))
	return new(big.Int).Quo(num, big.NewInt(BpsDenominator)).Uint64()
}

// PricePerToken converts a fill into SOL per whole token:
// (lamports / 1e9) / (baseUnits / 10^tokenDecimals). Returns zero when
// baseUnits is zero.
func PricePerToken(lamports, baseUnits uint64, tokenDecimals int) decimal.Decimal {
	if baseUnits == 0 {
		return decimal.Zero
	}
	sol := LamportsToSOL(lamports)
	tokens := BaseUnitsToTokens(baseUnits, tokenDecimals)
	if tokens.IsZero() {
		return decimal.Zero
	}
	return sol.Div(tokens)
}

// SpotPrice returns the instantaneous SOL-per-token price implied by
// the reserve ratio, adjusted for token decimals. Zero reserves price
// at zero.
func SpotPrice(baseReserves, quoteReserves uint64, tokenDecimals int) decimal.Decimal {
	if baseReserves == 0 || quoteReserves == 0 {
		return decimal.Zero
	}
	return PricePerToken(quoteReserves, baseReserves, tokenDecimals)
}

// LamportsToSOL converts lamports to decimal SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), 0).
		Div(decimal.NewFromInt(LamportsPerSOL))
}

// SOLToLamports converts decimal SOL to lamports, flooring fractional
// lamports.
func SOLToLamports(sol decimal.Decimal) uint64 {
	lamports := sol.Mul(decimal.NewFromInt(LamportsPerSOL)).Truncate(0)
	if lamports.Sign() <= 0 {
		return 0
	}
	return lamports.BigInt().Uint64()
}

// BaseUnitsToTokens converts base units to whole tokens as a decimal.
func BaseUnitsToTokens(baseUnits uint64, tokenDecimals int) decimal.Decimal {
	scale := decimal.New(1, int32(tokenDecimals))
	return decimal.NewFromBigInt(new(big.Int).SetUint64(baseUnits), 0).Div(scale)
}
