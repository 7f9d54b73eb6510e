package stub

import (
	"context"
	"errors"
	"sync"

	"github.com/adityaslyf/redcircle-trading/internal/solana"
)

// WSClient implements solana.WSClient for testing. Notifications are
// pushed with Notify.
type WSClient struct {
	// SubscribeErr, when non-nil, is returned by SubscribeAccount.
	SubscribeErr error

	mu     sync.Mutex
	subs   map[string]chan solana.AccountNotification
	closed bool
}

// NewWSClient creates a new stub websocket client.
func NewWSClient() *WSClient {
	return &WSClient{subs: make(map[string]chan solana.AccountNotification)}
}

// SubscribeAccount registers a subscription channel for the pubkey.
func (c *WSClient) SubscribeAccount(_ context.Context, pubkey string) (<-chan solana.AccountNotification, error) {
	if c.SubscribeErr != nil {
		return nil, c.SubscribeErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.New("client closed")
	}
	ch := make(chan solana.AccountNotification, 16)
	c.subs[pubkey] = ch
	return ch, nil
}

// UnsubscribeAccount drops the pubkey's subscription. Later Notify
// calls for it are discarded.
func (c *WSClient) UnsubscribeAccount(_ context.Context, pubkey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, pubkey)
	return nil
}

// Subscribed reports whether the pubkey currently has a subscription.
func (c *WSClient) Subscribed(pubkey string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[pubkey]
	return ok
}

// Notify delivers a notification to the pubkey's subscriber, if any.
func (c *WSClient) Notify(pubkey string, note solana.AccountNotification) {
	c.mu.Lock()
	ch, ok := c.subs[pubkey]
	c.mu.Unlock()
	if ok {
		ch <- note
	}
}

// Close closes all subscription channels.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for pubkey, ch := range c.subs {
		close(ch)
		delete(c.subs, pubkey)
	}
	return nil
}

var _ solana.WSClient = (*WSClient)(nil)
