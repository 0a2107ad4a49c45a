// Package redis caches the latest quote per symbol in Redis. The cache is
// the desk's second price source: when the live feed cannot answer, the
// engine falls back to the last quote Redis saw. Writes go through a
// circuit breaker so a dead Redis degrades quote fanout instead of
// stalling it.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"papertrade-systemv1/internal/metrics"
	"papertrade-systemv1/internal/model"
	"papertrade-systemv1/internal/quotes"

	goredis "github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const (
	defaultLatestTTL  = 30 * time.Minute
	keyPrefixLatest   = "quote:latest:"
	chanPrefixPublish = "pub:quote:"
)

// CacheConfig configures the last-price cache.
type CacheConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // latest-quote TTL, default 30m

	// Breaker thresholds.
	MaxFailures  int           // default 5
	ResetTimeout time.Duration // default 10s

	Metrics *metrics.Metrics // optional
}

// Cache writes quotes to and reads last prices from Redis.
type Cache struct {
	client *goredis.Client
	cb     *CircuitBreaker
	ttl    time.Duration
	prom   *metrics.Metrics

	// Quotes arriving while the breaker is open are held here, newest per
	// symbol, and replayed when the breaker closes. Only the latest quote
	// matters, so the buffer never grows past the symbol universe.
	mu      sync.Mutex
	pending map[string]model.Quote
}

// NewCache connects to Redis and pings it.
func NewCache(cfg CacheConfig) (*Cache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultLatestTTL
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 10 * time.Second
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	c := &Cache{
		client:  client,
		cb:      NewCircuitBreaker(cfg.MaxFailures, cfg.ResetTimeout),
		ttl:     cfg.TTL,
		prom:    cfg.Metrics,
		pending: make(map[string]model.Quote),
	}
	c.cb.OnStateChange = func(from, to State) {
		log.Printf("[redis] circuit breaker %s -> %s", from, to)
		if c.prom != nil {
			c.prom.RedisCircuitBreakerState.Set(float64(to))
			if to == StateOpen {
				c.prom.RedisCircuitBreakerTrips.Inc()
			}
		}
		if to == StateClosed {
			go c.flush(context.Background())
		}
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return c, nil
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// Run consumes quotes from quoteCh and writes them until ctx is cancelled
// or the channel is closed.
func (c *Cache) Run(ctx context.Context, quoteCh <-chan model.Quote) {
	for {
		select {
		case <-ctx.Done():
			return
		case q, ok := <-quoteCh:
			if !ok {
				return
			}
			c.Write(ctx, q)
		}
	}
}

// Write stores a quote through the circuit breaker. Open-breaker writes are
// buffered, not lost.
func (c *Cache) Write(ctx context.Context, q model.Quote) {
	err := c.cb.Execute(func() error {
		return c.write(ctx, q)
	})
	if err == ErrCircuitOpen {
		c.mu.Lock()
		c.pending[q.Symbol] = q
		c.mu.Unlock()
		return
	}
	if err != nil {
		log.Printf("[redis] write %s: %v", q.Symbol, err)
	}
}

// write performs the pipelined SET + PUBLISH.
func (c *Cache) write(ctx context.Context, q model.Quote) error {
	start := time.Now()
	payload := string(q.JSON())

	pipe := c.client.Pipeline()
	pipe.Set(ctx, keyPrefixLatest+q.Symbol, payload, c.ttl)
	pipe.Publish(ctx, chanPrefixPublish+q.Symbol, payload)
	_, err := pipe.Exec(ctx)

	if c.prom != nil {
		c.prom.RedisWriteDur.Observe(time.Since(start).Seconds())
	}
	return err
}

// flush replays quotes buffered while the breaker was open.
func (c *Cache) flush(ctx context.Context) {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	toFlush := c.pending
	c.pending = make(map[string]model.Quote)
	c.mu.Unlock()

	for _, q := range toFlush {
		if err := c.write(ctx, q); err != nil {
			log.Printf("[redis] flush %s: %v", q.Symbol, err)
		}
	}
	log.Printf("[redis] flushed %d buffered quotes", len(toFlush))
}

// Get implements quotes.Source against the latest-quote keys.
func (c *Cache) Get(ctx context.Context, symbol string) (decimal.Decimal, error) {
	raw, err := c.client.Get(ctx, keyPrefixLatest+symbol).Result()
	if err != nil {
		if err == goredis.Nil {
			return decimal.Zero, quotes.ErrPriceUnavailable
		}
		return decimal.Zero, fmt.Errorf("redis get %s: %w", symbol, err)
	}

	var q model.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return decimal.Zero, fmt.Errorf("decode cached quote %s: %w", symbol, err)
	}
	if !q.Price.IsPositive() {
		return decimal.Zero, quotes.ErrPriceUnavailable
	}
	return q.Price, nil
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
