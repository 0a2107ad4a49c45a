// cmd/quoteserver — Demo WebSocket quote server.
// Broadcasts simulated NSE reference prices so the desk runs without a real
// market-data subscription.
//
// Quote JSON shape is identical to model.Quote:
//
//	{"symbol":"TCS.NS","price":"3240.55","change":"0.42","ts":"..."}
//
// Config (env vars):
//
//	QUOTE_SERVER_ADDR  — listen address (default: ":9001")
//	QUOTE_SYMBOLS      — comma-separated symbols (default: full reference universe)
//	QUOTE_INTERVAL_MS  — broadcast interval milliseconds (default: "500")
package main

import (
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"papertrade-systemv1/internal/model"
	"papertrade-systemv1/internal/quotes"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// instrument holds per-symbol simulation state.
type instrument struct {
	Symbol string
	Open   decimal.Decimal // session open, anchors the day-change percent
	Price  decimal.Decimal // current simulated price
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client — drop quote
		}
	}
}

// ─── WebSocket handler ────────────────────────────────────────────────────────

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func wsHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[quoteserver] upgrade error: %v", err)
			return
		}
		log.Printf("[quoteserver] client connected: %s", r.RemoteAddr)

		ch := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[quoteserver] client disconnected: %s", r.RemoteAddr)
		}()

		// Write pump: sends quote JSON to this client.
		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// ─── Quote generator ──────────────────────────────────────────────────────────

// walkPrice applies a tiny random walk (±0.1%) to simulate price movement.
func walkPrice(price decimal.Decimal) decimal.Decimal {
	pct := (rand.Float64()*0.2 - 0.1) / 100.0
	next := price.Mul(decimal.NewFromFloat(1 + pct)).Round(2)
	if !next.IsPositive() {
		next = decimal.NewFromFloat(0.05)
	}
	return next
}

func runGenerator(h *hub, instruments []instrument, intervalMs int) {
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	hundred := decimal.NewFromInt(100)
	for range ticker.C {
		for i := range instruments {
			instruments[i].Price = walkPrice(instruments[i].Price)
			change := instruments[i].Price.Sub(instruments[i].Open).
				Div(instruments[i].Open).Mul(hundred).Round(2)
			q := model.Quote{
				Symbol:    instruments[i].Symbol,
				Price:     instruments[i].Price,
				ChangePct: change,
				TS:        time.Now().UTC(),
			}
			h.broadcast(q.JSON())
		}
	}
}

// ─── main ─────────────────────────────────────────────────────────────────────

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[quoteserver] starting demo quote server...")

	addr := envOrDefault("QUOTE_SERVER_ADDR", ":9001")
	symbolsEnv := envOrDefault("QUOTE_SYMBOLS", "")
	intervalMs := envIntOrDefault("QUOTE_INTERVAL_MS", 500)

	instruments := buildInstruments(symbolsEnv)
	if len(instruments) == 0 {
		log.Fatalf("[quoteserver] no instruments configured via QUOTE_SYMBOLS")
	}
	log.Printf("[quoteserver] %d instruments, broadcast interval %dms", len(instruments), intervalMs)

	h := newHub()
	go runGenerator(h, instruments, intervalMs)

	http.HandleFunc("/ws", wsHandler(h))
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"quoteserver"}`)
	})

	log.Printf("[quoteserver] listening on %s  (WebSocket: ws://localhost%s/ws)", addr, addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("[quoteserver] server error: %v", err)
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────────

// buildInstruments resolves the symbol list against the reference table.
// An empty spec simulates the whole universe; unknown symbols start at 1000.
func buildInstruments(spec string) []instrument {
	table := quotes.NewReferenceTable()

	var syms []string
	if strings.TrimSpace(spec) == "" {
		syms = table.Symbols()
		sort.Strings(syms)
	} else {
		for _, part := range strings.Split(spec, ",") {
			if part = strings.TrimSpace(part); part != "" {
				syms = append(syms, part)
			}
		}
	}

	result := make([]instrument, 0, len(syms))
	for _, sym := range syms {
		price, ok := table.Lookup(sym)
		if !ok || !price.IsPositive() {
			price = decimal.NewFromInt(1000)
		}
		result = append(result, instrument{Symbol: sym, Open: price, Price: price})
	}
	return result
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
