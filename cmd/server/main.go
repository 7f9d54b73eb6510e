// Package main runs the trading and settlement server: HTTP API for
// trade preparation, settlement reconciliation and market views, plus
// a websocket reserve watcher keeping pool state warm.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/adityaslyf/redcircle-trading/internal/config"
	"github.com/adityaslyf/redcircle-trading/internal/leaderboard"
	"github.com/adityaslyf/redcircle-trading/internal/observability"
	"github.com/adityaslyf/redcircle-trading/internal/pool"
	"github.com/adityaslyf/redcircle-trading/internal/registry"
	"github.com/adityaslyf/redcircle-trading/internal/solana"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
	chstore "github.com/adityaslyf/redcircle-trading/internal/storage/clickhouse"
	"github.com/adityaslyf/redcircle-trading/internal/storage/memory"
	"github.com/adityaslyf/redcircle-trading/internal/storage/migrations"
	pgstore "github.com/adityaslyf/redcircle-trading/internal/storage/postgres"
	"github.com/adityaslyf/redcircle-trading/internal/trading"
)

// stores bundles the storage interfaces the server wires together.
type stores struct {
	posts       storage.PostStore
	holdings    storage.HoldingStore
	txs         storage.TransactionStore
	settlements storage.SettlementStore
	prices      storage.PriceHistoryStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	observability.Init(cfg.MetricsNamespace)

	st, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)
	go pollSlot(ctx, rpc, logger)

	authority, err := cfg.Authority()
	if err != nil {
		return err
	}
	gateway := pool.NewGateway(rpc, pool.Config{
		ProgramID:    cfg.ProgramID,
		AuthorityKey: authority,
	}, logger)

	deps := trading.Deps{
		Posts:        st.posts,
		Holdings:     st.holdings,
		Transactions: st.txs,
		Settlements:  st.settlements,
		Prices:       st.prices,
		Gateway:      gateway,
		Logger:       logger,
	}

	// The reserve watcher is optional: without a websocket endpoint
	// every pool read goes to RPC.
	var watcher *pool.ReserveWatcher
	if cfg.WSEndpoint != "" {
		ws, err := solana.NewWSClient(ctx, cfg.WSEndpoint, nil)
		if err != nil {
			return fmt.Errorf("connect websocket: %w", err)
		}
		watcher = pool.NewReserveWatcher(ws, cfg.ReserveStaleAfter, logger)
		defer watcher.Close()
		deps.Reserves = watcher

		if err := watchActivePools(ctx, st.posts, watcher, logger); err != nil {
			return err
		}
	}

	now := func() int64 { return time.Now().UnixMilli() }
	srv := &server{
		trading:     trading.NewService(deps),
		registry:    registry.NewService(st.posts, logger, now),
		leaderboard: leaderboard.NewAggregator(st.posts, st.txs),
		watcher:     watcher,
		watchCtx:    ctx,
		logger:      logger,
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return ctx.Err()
}

// createStores builds the storage layer: in-memory, or PostgreSQL for
// accounting plus ClickHouse for the price series, with migrations
// applied on startup.
func createStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, func(), error) {
	if cfg.UseMemory {
		logger.Info("using in-memory storage")
		posts := memory.NewPostStore()
		holdings := memory.NewHoldingStore()
		txs := memory.NewTransactionStore()
		return &stores{
			posts:       posts,
			holdings:    holdings,
			txs:         txs,
			settlements: memory.NewSettlementStore(posts, holdings, txs),
			prices:      memory.NewPriceHistoryStore(),
		}, func() {}, nil
	}

	pgPool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pgPool); err != nil {
		pgPool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pgPool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pgPool.Close()
	}
	return &stores{
		posts:       pgstore.NewPostStore(pgPool),
		holdings:    pgstore.NewHoldingStore(pgPool),
		txs:         pgstore.NewTransactionStore(pgPool),
		settlements: pgstore.NewSettlementStore(pgPool),
		prices:      chstore.NewPriceHistoryStore(chConn),
	}, cleanup, nil
}

// watchActivePools subscribes the reserve watcher to every pool known
// at startup. Pools attached later are subscribed by the attach-pool
// handler.
func watchActivePools(ctx context.Context, posts storage.PostStore, watcher *pool.ReserveWatcher, logger *zap.Logger) error {
	all, err := posts.List(ctx)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	watched := 0
	for _, p := range all {
		if !p.Tradable() {
			continue
		}
		if err := watcher.Watch(ctx, p.PoolAddress); err != nil {
			logger.Warn("watch pool failed",
				zap.String("post", p.PostID),
				zap.String("pool", p.PoolAddress),
				zap.Error(err))
			continue
		}
		watched++
	}
	logger.Info("watching pools", zap.Int("count", watched))
	return nil
}

// pollSlot keeps the highest-slot gauge moving even when no account
// notification arrives, and doubles as a periodic health check of the
// RPC endpoint.
func pollSlot(ctx context.Context, rpc solana.RPCClient, logger *zap.Logger) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			slot, err := rpc.GetSlot(ctx)
			if err != nil {
				logger.Warn("get slot failed", zap.Error(err))
				continue
			}
			observability.UpdateHighestSlot(slot)
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
