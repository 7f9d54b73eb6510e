// Package stub provides in-memory test doubles for the solana package
// interfaces.
package stub

import (
	"context"
	"errors"

	"github.com/adityaslyf/redcircle-trading/internal/solana"
)

// ErrUnavailable simulates a transport failure when set on the client.
var ErrUnavailable = errors.New("rpc unavailable")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	Accounts     map[string]*solana.AccountInfo
	Transactions map[string]*solana.Transaction
	Blockhash    *solana.Blockhash
	Slot         int64

	// Err, when non-nil, is returned by every call.
	Err error
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:     make(map[string]*solana.AccountInfo),
		Transactions: make(map[string]*solana.Transaction),
		Blockhash: &solana.Blockhash{
			Blockhash:            "GH7ome3EiwEr7tu9JuTh2dpYWBJK3z69Xm1ZE3MEE6JC",
			LastValidBlockHeight: 1000,
		},
	}
}

// GetAccountInfo returns the stubbed account, or nil when absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Accounts[pubkey], nil
}

// GetLatestBlockhash returns the stubbed blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.Blockhash, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Blockhash, nil
}

// GetTransaction returns the stubbed transaction, or nil when absent.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Transactions[signature], nil
}

// GetSlot returns the stubbed slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	if c.Err != nil {
		return 0, c.Err
	}
	return c.Slot, nil
}

var _ solana.RPCClient = (*RPCClient)(nil)
