// cmd/tradingdesk — Paper-trading desk backend.
//
// Wires the full stack: quote feed → hub fanout + Redis last-price cache,
// ledger engine with SQLite audit journal, REST + WebSocket gateway, the
// 3:20 PM IST intraday square-off scheduler and the metrics/health server.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"papertrade-systemv1/config"
	"papertrade-systemv1/internal/auth"
	"papertrade-systemv1/internal/gateway"
	"papertrade-systemv1/internal/invest"
	"papertrade-systemv1/internal/ledger"
	"papertrade-systemv1/internal/logger"
	"papertrade-systemv1/internal/metrics"
	"papertrade-systemv1/internal/model"
	"papertrade-systemv1/internal/notification"
	"papertrade-systemv1/internal/quotes"
	"papertrade-systemv1/internal/quotes/wsfeed"
	"papertrade-systemv1/internal/squareoff"
	redisstore "papertrade-systemv1/internal/store/redis"
	sqlitestore "papertrade-systemv1/internal/store/sqlite"
)

// alertingCloser wraps the ledger sweep so every end-of-day run produces a
// single summary alert.
type alertingCloser struct {
	ledger   *ledger.Service
	notifier notification.Notifier
}

func (a *alertingCloser) SquareOffAll(ctx context.Context) []model.Order {
	orders := a.ledger.SquareOffAll(ctx)
	if len(orders) > 0 {
		a.notify(notification.SquareOffSummary(orders))
	}
	return orders
}

func (a *alertingCloser) notify(alert notification.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.notifier.Send(ctx, alert); err != nil {
		log.Printf("[tradingdesk] alert delivery failed: %v", err)
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	logg := logger.Init("tradingdesk", logger.ParseLevel(cfg.LogLevel))
	logg.Info("starting", slog.String("http", cfg.HTTPAddr), slog.String("metrics", cfg.MetricsAddr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Observability
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// Redis last-price cache. Optional: the desk trades from memory and the
	// price chain falls through to the reference table.
	var cache *redisstore.Cache
	if c, err := redisstore.NewCache(redisstore.CacheConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Metrics:  prom,
	}); err != nil {
		log.Printf("[tradingdesk] redis unavailable, running without cache: %v", err)
	} else {
		cache = c
		defer cache.Close()
		health.SetRedisConnected(true)
	}

	// SQLite audit journal.
	journal, err := sqlitestore.NewJournal(sqlitestore.JournalConfig{
		DBPath:  cfg.SQLitePath,
		Metrics: prom,
	})
	if err != nil {
		log.Fatalf("[tradingdesk] journal open failed: %v", err)
	}
	defer journal.Close()
	health.SetSQLiteOK(true)

	// Quote feed + fanout hub.
	hub := gateway.NewHub(1024, prom)
	feed, err := wsfeed.New(wsfeed.Config{URL: cfg.QuoteWSURL, Metrics: prom})
	if err != nil {
		log.Fatalf("[tradingdesk] bad QUOTE_WS_URL %q: %v", cfg.QuoteWSURL, err)
	}

	quoteCh := make(chan model.Quote, 1024)
	feed.OnConnect = health.SetFeedConnected
	feed.OnQuote = func(q model.Quote) {
		health.SetLastQuoteTime(q.TS)
		hub.Broadcast(q)
		if cache != nil {
			select {
			case quoteCh <- q:
			default: // cache lagging, newest wins via the pending buffer
			}
		}
	}
	go func() {
		if err := feed.Start(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[tradingdesk] feed stopped: %v", err)
		}
	}()
	if cache != nil {
		go cache.Run(ctx, quoteCh)
	}

	// Valuation price chain: live feed, then cached last price, then the
	// static reference table.
	table := quotes.NewReferenceTable()
	sources := []quotes.Source{feed}
	if cache != nil {
		sources = append(sources, cache)
	}
	sources = append(sources, table)
	priceChain := quotes.NewFallback(sources...)

	// Ledger engine + notifications.
	notifier := notification.FromEnv(cfg.AlertWebhookURL, cfg.TelegramBotToken, cfg.TelegramChatID)
	book := ledger.New(ledger.Config{
		OpeningBalance: cfg.ParseOpeningBalance(),
		Prices:         priceChain,
		Journal:        journal,
		Metrics:        prom,
		OnOrder: func(o model.Order) {
			hub.BroadcastEvent("order", o)
			sendCtx, sendCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer sendCancel()
			if err := notifier.Send(sendCtx, notification.OrderFilled(o)); err != nil {
				log.Printf("[tradingdesk] order alert failed: %v", err)
			}
		},
	})

	// Periodic portfolio summary for streaming clients.
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if hub.ClientCount() == 0 {
					continue
				}
				snapCtx, snapCancel := context.WithTimeout(ctx, 3*time.Second)
				hub.BroadcastEvent("portfolio", book.Snapshot(snapCtx))
				snapCancel()
			}
		}
	}()

	// Intraday square-off scheduler.
	scheduler := squareoff.New(&alertingCloser{ledger: book, notifier: notifier})
	go scheduler.Run(ctx)

	// Dependency probes for /healthz.
	if cache != nil {
		health.StartLivenessChecker(ctx, cache.Client(), journal.DB(), 15*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, journal.DB(), 15*time.Second)
	}

	// REST + WS gateway.
	srv := &gateway.Server{
		Ledger: book,
		Invest: invest.NewService(book),
		Auth:   auth.NewService(),
		Hub:    hub,
		Feed:   feed,
		Prices: priceChain,
		Table:  table,
		Start:  time.Now(),
	}
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		log.Printf("[tradingdesk] listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[tradingdesk] http server: %v", err)
		}
	}()

	<-sigCh
	logg.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	logg.Info("bye")
}
