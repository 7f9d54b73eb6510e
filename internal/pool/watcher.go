package pool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/observability"
	"github.com/adityaslyf/redcircle-trading/internal/solana"
)

// DefaultStaleAfter bounds how old a cached reserve snapshot may be
// before Snapshot stops returning it. Websocket gaps longer than this
// force callers back to an RPC read.
const DefaultStaleAfter = 30 * time.Second

// ReserveWatcher keeps a live cache of pool reserves fed by account
// subscription notifications. One watcher serves all pools.
type ReserveWatcher struct {
	ws         solana.WSClient
	staleAfter time.Duration
	logger     *zap.Logger

	mu     sync.RWMutex
	states map[string]*domain.PoolState
	cancel map[string]context.CancelFunc
}

// NewReserveWatcher creates a watcher. staleAfter <= 0 selects
// DefaultStaleAfter.
func NewReserveWatcher(ws solana.WSClient, staleAfter time.Duration, logger *zap.Logger) *ReserveWatcher {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReserveWatcher{
		ws:         ws,
		staleAfter: staleAfter,
		logger:     logger,
		states:     make(map[string]*domain.PoolState),
		cancel:     make(map[string]context.CancelFunc),
	}
}

// Watch subscribes to a pool account and consumes notifications until
// ctx is cancelled or Stop is called for the pool. Subscribing twice
// for the same pool is a no-op.
func (w *ReserveWatcher) Watch(ctx context.Context, poolAddress string) error {
	w.mu.Lock()
	if _, ok := w.cancel[poolAddress]; ok {
		w.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel[poolAddress] = cancel
	w.mu.Unlock()

	ch, err := w.ws.SubscribeAccount(ctx, poolAddress)
	if err != nil {
		w.mu.Lock()
		delete(w.cancel, poolAddress)
		w.mu.Unlock()
		cancel()
		return err
	}

	observability.Default().WatchedPools.Inc()
	go w.consume(ctx, poolAddress, ch)
	return nil
}

func (w *ReserveWatcher) consume(ctx context.Context, poolAddress string, ch <-chan solana.AccountNotification) {
	for {
		select {
		case <-ctx.Done():
			return
		case note, ok := <-ch:
			if !ok {
				return
			}
			state, err := DecodePoolAccountBase64(note.Data)
			if err != nil {
				w.logger.Warn("undecodable pool notification",
					zap.String("pool", poolAddress),
					zap.Int64("slot", note.Slot),
					zap.Error(err))
				continue
			}
			state.PoolAddress = poolAddress
			state.Slot = note.Slot
			state.FetchedAt = time.Now().UnixMilli()

			w.mu.Lock()
			// Notifications can arrive out of order after a
			// reconnect; never go backwards in slot.
			if prev, ok := w.states[poolAddress]; !ok || note.Slot >= prev.Slot {
				w.states[poolAddress] = state
			}
			w.mu.Unlock()
			observability.UpdateHighestSlot(note.Slot)
		}
	}
}

// Snapshot returns the cached state for a pool, or false when nothing
// fresh is cached. The returned value is a copy.
func (w *ReserveWatcher) Snapshot(poolAddress string) (*domain.PoolState, bool) {
	w.mu.RLock()
	state, ok := w.states[poolAddress]
	w.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(time.UnixMilli(state.FetchedAt)) > w.staleAfter {
		return nil, false
	}
	cp := *state
	return &cp, true
}

// Stop ends the subscription for a single pool and drops its cached
// state. The server-side unsubscribe keeps stopped pools from queueing
// notifications nobody reads.
func (w *ReserveWatcher) Stop(poolAddress string) {
	w.mu.Lock()
	cancel, ok := w.cancel[poolAddress]
	if ok {
		cancel()
		delete(w.cancel, poolAddress)
		observability.Default().WatchedPools.Dec()
	}
	delete(w.states, poolAddress)
	w.mu.Unlock()

	if ok {
		w.unsubscribe(poolAddress)
	}
}

// Close stops all subscriptions.
func (w *ReserveWatcher) Close() {
	w.mu.Lock()
	pools := make([]string, 0, len(w.cancel))
	for pool, cancel := range w.cancel {
		cancel()
		delete(w.cancel, pool)
		pools = append(pools, pool)
		observability.Default().WatchedPools.Dec()
	}
	w.states = make(map[string]*domain.PoolState)
	w.mu.Unlock()

	for _, pool := range pools {
		w.unsubscribe(pool)
	}
}

func (w *ReserveWatcher) unsubscribe(poolAddress string) {
	if err := w.ws.UnsubscribeAccount(context.Background(), poolAddress); err != nil {
		w.logger.Warn("unsubscribe pool failed",
			zap.String("pool", poolAddress),
			zap.Error(err))
	}
}
