// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Trading metrics
	TradesPrepared     *prometheus.CounterVec
	TradesSettled      *prometheus.CounterVec
	SettlementReplays  prometheus.Counter
	SettlementErrors   *prometheus.CounterVec
	PositionsClosed    prometheus.Counter
	TradeVolumeSOL     *prometheus.CounterVec

	// Latency metrics
	PrepareLatency    *prometheus.HistogramVec
	SettlementLatency prometheus.Histogram
	RPCCallLatency    *prometheus.HistogramVec

	// Pool metrics
	PoolStateReads      *prometheus.CounterVec
	ReserveCacheHits    prometheus.Counter
	ReserveCacheMisses  prometheus.Counter
	WatchedPools        prometheus.Gauge
	HighestSlotSeen     prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSettlement prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "redcircle_trading"
	}

	return &Metrics{
		// Trading metrics
		TradesPrepared: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_prepared_total",
			Help:      "Total number of swap transactions prepared by side",
		}, []string{"side"}),
		TradesSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_settled_total",
			Help:      "Total number of trades settled by side",
		}, []string{"side"}),
		SettlementReplays: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "settlement_replays_total",
			Help:      "Total number of settlements that replayed a known signature",
		}),
		SettlementErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "settlement_errors_total",
			Help:      "Total number of settlement failures by reason",
		}, []string{"reason"}),
		PositionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "positions_closed_total",
			Help:      "Total number of holdings fully closed by a sell",
		}),
		TradeVolumeSOL: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trade_volume_sol_total",
			Help:      "Total settled trade volume in SOL by side",
		}, []string{"side"}),

		// Latency metrics
		PrepareLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "prepare_latency_seconds",
			Help:      "Swap preparation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"side"}),
		SettlementLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "settlement_latency_seconds",
			Help:      "Settlement reconciliation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Pool metrics
		PoolStateReads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "state_reads_total",
			Help:      "Total number of pool state reads by outcome",
		}, []string{"outcome"}),
		ReserveCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "reserve_cache_hits_total",
			Help:      "Total number of reserve reads served from the websocket cache",
		}),
		ReserveCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "reserve_cache_misses_total",
			Help:      "Total number of reserve reads that fell through to RPC",
		}),
		WatchedPools: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "watched_pools",
			Help:      "Current number of pools with an active account subscription",
		}),
		HighestSlotSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "highest_slot_seen",
			Help:      "Highest Solana slot number seen",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulSettlement: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_settlement_timestamp",
			Help:      "Unix timestamp of last successful settlement",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

var (
	defaultMu      sync.Mutex
	defaultMetrics *Metrics
)

// Init registers the process-wide metrics set under the given
// namespace. It must run before any metric is recorded; once a metric
// has been recorded the namespace is fixed and later calls return the
// existing set.
func Init(namespace string) *Metrics {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultMetrics == nil {
		defaultMetrics = NewMetrics(namespace)
	}
	return defaultMetrics
}

// Default returns the process-wide metrics set, creating it under the
// default namespace on first use.
func Default() *Metrics {
	return Init("")
}

// RecordTradePrepared increments the trades prepared counter.
func RecordTradePrepared(side string, seconds float64) {
	m := Default()
	m.TradesPrepared.WithLabelValues(side).Inc()
	m.PrepareLatency.WithLabelValues(side).Observe(seconds)
}

// RecordTradeSettled records a completed settlement.
func RecordTradeSettled(side string, volumeSOL, seconds float64, closed bool) {
	m := Default()
	m.TradesSettled.WithLabelValues(side).Inc()
	m.TradeVolumeSOL.WithLabelValues(side).Add(volumeSOL)
	m.SettlementLatency.Observe(seconds)
	if closed {
		m.PositionsClosed.Inc()
	}
}

// RecordSettlementReplay counts a settlement served as a replay.
func RecordSettlementReplay() {
	Default().SettlementReplays.Inc()
}

// RecordSettlementError records a settlement failure.
func RecordSettlementError(reason string) {
	Default().SettlementErrors.WithLabelValues(reason).Inc()
}

// RecordPoolStateRead counts a pool state read by outcome.
func RecordPoolStateRead(outcome string) {
	Default().PoolStateReads.WithLabelValues(outcome).Inc()
}

// RecordReserveCache counts a reserve cache lookup.
func RecordReserveCache(hit bool) {
	if hit {
		Default().ReserveCacheHits.Inc()
	} else {
		Default().ReserveCacheMisses.Inc()
	}
}

// UpdateHighestSlot updates the highest slot seen gauge.
func UpdateHighestSlot(slot int64) {
	Default().HighestSlotSeen.Set(float64(slot))
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	Default().RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	m := Default()
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
