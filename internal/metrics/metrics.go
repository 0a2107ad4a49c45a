package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trading desk.
type Metrics struct {
	// Ledger engine
	OrdersTotal     *prometheus.CounterVec // labels: side, product
	OrdersRejected  *prometheus.CounterVec // labels: reason
	DepositsTotal   prometheus.Counter
	SquareOffsTotal prometheus.Counter
	PriceLookupDur  prometheus.Histogram

	// Quote feed
	QuotesTotal    prometheus.Counter
	FeedReconnects prometheus.Counter
	StaleQuotes    prometheus.Counter

	// Gateway websocket fanout
	WSClients    prometheus.Gauge
	WSDropsTotal prometheus.Counter
	ReplayServed prometheus.Counter

	// Redis last-price cache
	RedisWriteDur            prometheus.Histogram
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter

	// SQLite audit journal
	SQLiteCommitDur prometheus.Histogram
	JournalErrors   prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradingdesk_orders_total",
			Help: "Executed paper orders (by side and product)",
		}, []string{"side", "product"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradingdesk_orders_rejected_total",
			Help: "Rejected engine operations (by reason)",
		}, []string{"reason"}),
		DepositsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingdesk_deposits_total",
			Help: "Successful fund deposits",
		}),
		SquareOffsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingdesk_square_offs_total",
			Help: "Intraday positions force-closed",
		}),
		PriceLookupDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradingdesk_price_lookup_duration_seconds",
			Help:    "Reference price lookup latency",
			Buckets: prometheus.DefBuckets,
		}),

		QuotesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingdesk_quotes_total",
			Help: "Quotes received from the upstream feed",
		}),
		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingdesk_feed_reconnects_total",
			Help: "Quote feed WebSocket reconnection attempts",
		}),
		StaleQuotes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingdesk_stale_quotes_total",
			Help: "Quotes discarded as older than the last applied quote",
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingdesk_ws_clients",
			Help: "Connected streaming clients",
		}),
		WSDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingdesk_ws_drops_total",
			Help: "Quote frames dropped for slow streaming clients",
		}),
		ReplayServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingdesk_ws_replay_served_total",
			Help: "Buffered quotes replayed to newly connected clients",
		}),

		RedisWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradingdesk_redis_write_duration_seconds",
			Help:    "Redis last-price write latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingdesk_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingdesk_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),

		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradingdesk_sqlite_commit_duration_seconds",
			Help:    "SQLite journal insert latency",
			Buckets: prometheus.DefBuckets,
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingdesk_journal_errors_total",
			Help: "Audit journal write failures",
		}),
	}

	prometheus.MustRegister(
		m.OrdersTotal,
		m.OrdersRejected,
		m.DepositsTotal,
		m.SquareOffsTotal,
		m.PriceLookupDur,
		m.QuotesTotal,
		m.FeedReconnects,
		m.StaleQuotes,
		m.WSClients,
		m.WSDropsTotal,
		m.ReplayServed,
		m.RedisWriteDur,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.SQLiteCommitDur,
		m.JournalErrors,
	)

	return m
}

// HealthStatus represents the desk's health.
type HealthStatus struct {
	mu sync.RWMutex

	FeedConnected  bool      `json:"feed_connected"`
	LastQuoteTime  time.Time `json:"last_quote_time"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetFeedConnected(v bool) {
	h.mu.Lock()
	h.FeedConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastQuoteTime(t time.Time) {
	h.mu.Lock()
	h.LastQuoteTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// Redis and SQLite are optional collaborators; the desk trades from
	// memory, so only the feed decides degraded vs healthy.
	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.FeedConnected {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	quoteAge := ""
	if !h.LastQuoteTime.IsZero() {
		quoteAge = time.Since(h.LastQuoteTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		FeedConnected   bool    `json:"feed_connected"`
		LastQuoteTime   string  `json:"last_quote_time"`
		QuoteAge        string  `json:"quote_age"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		FeedConnected:   h.FeedConnected,
		LastQuoteTime:   h.LastQuoteTime.Format(time.RFC3339),
		QuoteAge:        quoteAge,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
