// Package wsfeed is the desk's WebSocket quote client: it connects to a
// quote server (cmd/quoteserver), keeps the latest quote per symbol in
// memory, and fans fresh quotes out to registered consumers. The in-memory
// map doubles as the desk's primary price source.
//
// The wire format is model.Quote JSON:
//
//	{"symbol":"TCS.NS","price":"3240.55","change":"0.42","ts":"..."}
package wsfeed

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"sync"
	"time"

	"papertrade-systemv1/internal/metrics"
	"papertrade-systemv1/internal/model"
	"papertrade-systemv1/internal/quotes"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// Config holds the feed connection settings.
type Config struct {
	// URL of the quote WebSocket server, e.g. "ws://localhost:9001/ws"
	URL string

	// ReconnectDelay is the initial delay before reconnection attempts.
	// Defaults to 2 seconds.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff. Defaults to 30s.
	MaxReconnectDelay time.Duration

	Metrics *metrics.Metrics // optional
}

func (c *Config) defaults() {
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
}

// Feed streams quotes from the server and serves last-known prices.
type Feed struct {
	cfg  Config
	prom *metrics.Metrics

	mu   sync.RWMutex
	last map[string]model.Quote

	// Optional hooks.
	OnQuote   func(model.Quote) // called for every fresh quote applied
	OnConnect func(bool)        // connection state changes
}

// New creates a feed. Returns an error if the URL is unparseable.
func New(cfg Config) (*Feed, error) {
	cfg.defaults()
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, err
	}
	return &Feed{
		cfg:  cfg,
		prom: cfg.Metrics,
		last: make(map[string]model.Quote),
	}, nil
}

// Start connects and streams quotes until ctx is cancelled, reconnecting
// with exponential backoff on disconnect.
func (f *Feed) Start(ctx context.Context) error {
	delay := f.cfg.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := f.runOnce(ctx)
		if err == nil {
			return nil
		}

		log.Printf("[wsfeed] disconnected (%v), reconnecting in %s...", err, delay)
		if f.prom != nil {
			f.prom.FeedReconnects.Inc()
		}
		if f.OnConnect != nil {
			f.OnConnect(false)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > f.cfg.MaxReconnectDelay {
			delay = f.cfg.MaxReconnectDelay
		}
	}
}

// runOnce makes a single connection attempt and reads until disconnect or
// ctx cancel.
func (f *Feed) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[wsfeed] connected to %s", f.cfg.URL)
	if f.OnConnect != nil {
		f.OnConnect(true)
	}

	// Context watcher closes the connection so ReadMessage unblocks.
	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		var q model.Quote
		if err := json.Unmarshal(raw, &q); err != nil {
			log.Printf("[wsfeed] parse error: %v (raw: %s)", err, raw)
			continue
		}
		f.Apply(q)
	}
}

// Apply stores a quote and notifies consumers. Quotes older than the one
// already held for the symbol are discarded — reconnects can deliver a
// burst out of order.
func (f *Feed) Apply(q model.Quote) bool {
	if q.Symbol == "" || !q.Price.IsPositive() {
		return false
	}

	f.mu.Lock()
	if prev, ok := f.last[q.Symbol]; ok && q.TS.Before(prev.TS) {
		f.mu.Unlock()
		if f.prom != nil {
			f.prom.StaleQuotes.Inc()
		}
		return false
	}
	f.last[q.Symbol] = q
	f.mu.Unlock()

	if f.prom != nil {
		f.prom.QuotesTotal.Inc()
	}
	if f.OnQuote != nil {
		f.OnQuote(q)
	}
	return true
}

// Get implements quotes.Source from the last-quote map.
func (f *Feed) Get(_ context.Context, symbol string) (decimal.Decimal, error) {
	q, ok := f.Last(symbol)
	if !ok {
		return decimal.Zero, quotes.ErrPriceUnavailable
	}
	return q.Price, nil
}

// Last returns the latest quote held for symbol.
func (f *Feed) Last(symbol string) (model.Quote, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	q, ok := f.last[symbol]
	return q, ok
}

// Snapshot returns a copy of every held quote.
func (f *Feed) Snapshot() []model.Quote {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]model.Quote, 0, len(f.last))
	for _, q := range f.last {
		out = append(out, q)
	}
	return out
}
