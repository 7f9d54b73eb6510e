// Package trading implements trade preparation, settlement
// reconciliation and the live stats view for tokenized posts.
package trading

import "errors"

// Trading errors. HTTP handlers map these to response codes.
var (
	// ErrPostNotFound is returned when the post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrPoolNotReady is returned when a trade is requested for a post
	// whose bonding-curve pool has not been created yet.
	ErrPoolNotReady = errors.New("pool not ready")

	// ErrInvalidAmount is returned when the requested trade amount is
	// zero or negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidWallet is returned when the wallet address is not a
	// well-formed Solana pubkey.
	ErrInvalidWallet = errors.New("invalid wallet address")

	// ErrInvalidSignature is returned when the settlement signature is
	// not a well-formed Solana transaction signature.
	ErrInvalidSignature = errors.New("invalid transaction signature")

	// ErrNoPosition is returned when a sell settlement references a
	// position the user does not hold.
	ErrNoPosition = errors.New("no open position")

	// ErrInsufficientPosition is returned when a sell settlement
	// exceeds the held amount.
	ErrInsufficientPosition = errors.New("insufficient position")

	// ErrUpstream is returned when Solana RPC cannot serve the request.
	ErrUpstream = errors.New("upstream unavailable")

	// ErrStatsUnavailable is returned when a pool exists but its state
	// cannot be read, so live stats cannot be computed.
	ErrStatsUnavailable = errors.New("stats unavailable")
)
