// Package pool is the gateway to the external bonding-curve program.
// It reads pool reserve state over Solana RPC and constructs unsigned
// swap transactions for client-side signing. It never submits anything
// on-chain.
package pool

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/observability"
	"github.com/adityaslyf/redcircle-trading/internal/solana"
)

var (
	// ErrPoolNotFound is returned when no bonding-curve account exists
	// at the given address. Callers fall back to ledger-derived values
	// rather than failing the request.
	ErrPoolNotFound = errors.New("pool: not found")

	// ErrUpstreamUnavailable is returned for transient RPC failures
	// after retries are exhausted. Never silently swallowed.
	ErrUpstreamUnavailable = errors.New("pool: upstream unavailable")
)

// Direction of a swap from the trader's perspective.
type Direction int

// Swap directions
const (
	DirectionBuy Direction = iota
	DirectionSell
)

// SwapRequest describes the unsigned transaction to construct.
type SwapRequest struct {
	PoolAddress string
	Trader      string // fee payer and signer-to-be
	AmountIn    uint64 // lamports for buys, base units for sells
	MinimumOut  uint64 // slippage bound, base units for buys, lamports for sells
	Direction   Direction

	// State, when set, is an already-resolved pool snapshot; the
	// gateway skips its own state read. Callers holding a fresh cache
	// entry use this to avoid a second RPC round trip.
	State *domain.PoolState
}

// UnsignedSwap is a serialized transaction awaiting the trader's
// signature.
type UnsignedSwap struct {
	TransactionBase64    string
	Blockhash            string
	LastValidBlockHeight uint64
}

// Gateway wraps the external bonding-curve program.
type Gateway struct {
	rpc     solana.RPCClient
	program string // bonding-curve program ID (base58)
	// authorityKey co-signs swap instructions for pools that require
	// it. Nil when this deployment has no authority key.
	authorityKey ed25519.PrivateKey
	logger       *zap.Logger
}

// Config carries Gateway construction parameters. Built once at
// startup from the process configuration and passed in explicitly.
type Config struct {
	ProgramID    string
	AuthorityKey ed25519.PrivateKey // optional
}

// NewGateway creates a pool gateway.
func NewGateway(rpc solana.RPCClient, cfg Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		rpc:          rpc,
		program:      cfg.ProgramID,
		authorityKey: cfg.AuthorityKey,
		logger:       logger,
	}
}

// GetPoolState reads the bonding-curve account for a pool. Returns
// ErrPoolNotFound when the account does not exist and
// ErrUpstreamUnavailable when RPC cannot be reached.
func (g *Gateway) GetPoolState(ctx context.Context, poolAddress string) (*domain.PoolState, error) {
	if poolAddress == "" {
		return nil, ErrPoolNotFound
	}

	start := time.Now()
	info, err := g.rpc.GetAccountInfo(ctx, poolAddress)
	observability.RecordRPCLatency("getAccountInfo", time.Since(start).Seconds())
	if err != nil {
		observability.RecordPoolStateRead("error")
		g.logger.Warn("pool state read failed",
			zap.String("pool", poolAddress),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if info == nil {
		observability.RecordPoolStateRead("not_found")
		return nil, ErrPoolNotFound
	}

	state, err := DecodePoolAccountBase64(info.Data)
	if err != nil {
		// An account that exists but doesn't decode is not a pool.
		observability.RecordPoolStateRead("not_found")
		return nil, fmt.Errorf("%w: %v", ErrPoolNotFound, err)
	}
	observability.RecordPoolStateRead("ok")
	state.PoolAddress = poolAddress
	state.Slot = info.Slot
	state.FetchedAt = time.Now().UnixMilli()
	return state, nil
}

// BuildSwapTransaction constructs an unsigned swap transaction with a
// fresh blockhash and the trader set as fee payer. When the pool
// requires an authority co-signature, the authority signs before
// returning; the trader's signature slot is left empty.
func (g *Gateway) BuildSwapTransaction(ctx context.Context, req SwapRequest) (*UnsignedSwap, error) {
	state := req.State
	if state == nil {
		var err error
		state, err = g.GetPoolState(ctx, req.PoolAddress)
		if err != nil {
			return nil, err
		}
	}

	bh, err := g.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	var authority ed25519.PrivateKey
	if state.RequiresAuthority {
		if g.authorityKey == nil {
			return nil, fmt.Errorf("pool %s requires authority co-signature but no key is configured", req.PoolAddress)
		}
		authority = g.authorityKey
	}

	serialized, err := buildSwapTransaction(swapTxParams{
		Program:      g.program,
		Pool:         req.PoolAddress,
		Trader:       req.Trader,
		Blockhash:    bh.Blockhash,
		AmountIn:     req.AmountIn,
		MinimumOut:   req.MinimumOut,
		Direction:    req.Direction,
		AuthorityKey: authority,
	})
	if err != nil {
		return nil, fmt.Errorf("build swap transaction: %w", err)
	}

	return &UnsignedSwap{
		TransactionBase64:    serialized,
		Blockhash:            bh.Blockhash,
		LastValidBlockHeight: bh.LastValidBlockHeight,
	}, nil
}
