package solana

import "context"

// RPCClient defines the Solana RPC HTTP surface the trading engine
// needs: reading pool accounts, fetching a recent blockhash for
// unsigned transactions, and looking up confirmed transactions.
type RPCClient interface {
	// GetAccountInfo retrieves account info by public key.
	// Returns nil when the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetLatestBlockhash retrieves a recent blockhash for transaction
	// construction.
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)

	// GetTransaction retrieves a confirmed transaction by signature.
	// Returns nil when the transaction is unknown to the cluster.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       string // base64 encoded
	Executable bool
	RentEpoch  uint64
	Slot       int64 // slot the read was served at
}

// Blockhash is a recent blockhash plus its validity horizon.
type Blockhash struct {
	Blockhash            string // base58
	LastValidBlockHeight uint64
}

// Transaction represents a confirmed Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	Fee         uint64
	LogMessages []string
}

// TransactionMessage contains parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}
