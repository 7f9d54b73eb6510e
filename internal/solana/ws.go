package solana

import "context"

// WSClient defines the Solana WebSocket subscription surface. The
// trading engine subscribes to pool account changes so the stats view
// can serve fresh reserves without polling RPC.
type WSClient interface {
	// SubscribeAccount subscribes to changes of one account. Each
	// notification carries the account's new base64 data.
	SubscribeAccount(ctx context.Context, pubkey string) (<-chan AccountNotification, error)

	// UnsubscribeAccount ends the subscription for one account.
	// Notifications already in flight may still be delivered; the
	// notification channel is not closed.
	UnsubscribeAccount(ctx context.Context, pubkey string) error

	// Close closes the WebSocket connection.
	Close() error
}

// AccountNotification is one accountSubscribe update.
type AccountNotification struct {
	Pubkey   string
	Slot     int64
	Lamports uint64
	Data     string // base64 encoded account data
}
