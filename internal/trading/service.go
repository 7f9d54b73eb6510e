package trading

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/pool"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// PoolGateway is the pool surface the service needs. Implemented by
// pool.Gateway.
type PoolGateway interface {
	GetPoolState(ctx context.Context, poolAddress string) (*domain.PoolState, error)
	BuildSwapTransaction(ctx context.Context, req pool.SwapRequest) (*pool.UnsignedSwap, error)
}

// ReserveSource serves cached pool reserves. Implemented by
// pool.ReserveWatcher.
type ReserveSource interface {
	Snapshot(poolAddress string) (*domain.PoolState, bool)
}

// Service prepares swaps, reconciles settlements and serves trading
// views.
type Service struct {
	posts       storage.PostStore
	holdings    storage.HoldingStore
	txs         storage.TransactionStore
	settlements storage.SettlementStore
	prices      storage.PriceHistoryStore

	gateway  PoolGateway
	reserves ReserveSource // nil when no websocket endpoint is configured

	locks  *keyedMutex
	logger *zap.Logger
	now    func() int64 // Unix milliseconds, swappable in tests
}

// Deps carries Service dependencies.
type Deps struct {
	Posts        storage.PostStore
	Holdings     storage.HoldingStore
	Transactions storage.TransactionStore
	Settlements  storage.SettlementStore
	Prices       storage.PriceHistoryStore
	Gateway      PoolGateway
	Reserves     ReserveSource
	Logger       *zap.Logger
}

// NewService creates the trading service.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		posts:       d.Posts,
		holdings:    d.Holdings,
		txs:         d.Transactions,
		settlements: d.Settlements,
		prices:      d.Prices,
		gateway:     d.Gateway,
		reserves:    d.Reserves,
		locks:       newKeyedMutex(),
		logger:      logger,
		now:         func() int64 { return time.Now().UnixMilli() },
	}
}
