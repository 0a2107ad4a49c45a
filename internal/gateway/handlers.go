package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"papertrade-systemv1/internal/auth"
	"papertrade-systemv1/internal/invest"
	"papertrade-systemv1/internal/ledger"
	"papertrade-systemv1/internal/market"
	"papertrade-systemv1/internal/markethours"
	"papertrade-systemv1/internal/model"
	"papertrade-systemv1/internal/quotes"
	"papertrade-systemv1/internal/validate"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// QuoteReader serves last-known quotes; satisfied by the WS feed.
type QuoteReader interface {
	Last(symbol string) (model.Quote, bool)
}

// Server bundles the desk services behind the REST + WS surface.
type Server struct {
	Ledger *ledger.Service
	Invest *invest.Service
	Auth   *auth.Service
	Hub    *Hub

	// Feed is the live quote reader; Prices is the engine's full fallback
	// chain; Table holds the static reference universe.
	Feed   QuoteReader
	Prices quotes.Source
	Table  *quotes.Table

	Start time.Time
}

// handler wraps an endpoint with CORS and OPTIONS preflight.
func handler(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		fn(w, r)
	}
}

// RegisterRoutes registers every route on the provided mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Account + trading
	mux.HandleFunc("/api/portfolio", handler(s.handlePortfolio))
	mux.HandleFunc("/api/place_order", handler(s.handlePlaceOrder))
	mux.HandleFunc("/api/square_off", handler(s.handleSquareOff))
	mux.HandleFunc("/api/add_funds", handler(s.handleAddFunds))
	mux.HandleFunc("/api/funds", handler(s.handleFunds))
	mux.HandleFunc("/api/funds/history", handler(s.handleFundsHistory))
	mux.HandleFunc("/api/orders", handler(s.handleOrders))

	// Market data
	mux.HandleFunc("/api/batch_quotes", handler(s.handleBatchQuotes))
	mux.HandleFunc("/api/market_depth", handler(s.handleMarketDepth))
	mux.HandleFunc("/api/screener", handler(s.handleScreener))
	mux.HandleFunc("/api/market_status", handler(s.handleMarketStatus))

	// Investment products
	mux.HandleFunc("/api/baskets", handler(s.handleBaskets))
	mux.HandleFunc("/api/place_basket", handler(s.handlePlaceBasket))
	mux.HandleFunc("/api/invest/ipos", handler(s.handleIPOs))
	mux.HandleFunc("/api/invest/mutual_funds", handler(s.handleMutualFunds))
	mux.HandleFunc("/api/invest/bonds", handler(s.handleBonds))
	mux.HandleFunc("/api/invest/mf/sip", handler(s.handleStartSIP))
	mux.HandleFunc("/api/invest/ipo/apply", handler(s.handleApplyIPO))
	mux.HandleFunc("/api/invest/bond/buy", handler(s.handleBuyBond))

	// Auth + keys
	mux.HandleFunc("/api/auth/login", handler(s.handleLogin))
	mux.HandleFunc("/api/auth/signup", handler(s.handleSignup))
	mux.HandleFunc("/api/user/update", handler(s.handleUserUpdate))
	mux.HandleFunc("/api/generate_key", handler(s.handleGenerateKey))
	mux.HandleFunc("/api/verify_key", handler(s.handleVerifyKey))

	// Infra
	mux.HandleFunc("/health", handler(s.handleHealth))
	mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	snap := s.Ledger.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"funds":       snap.Funds,
		"holdings":    snap.Holdings,
		"positions":   snap.Positions,
		"orders":      s.Ledger.Orders(),
		"total_value": snap.Funds + snap.TotalCurrent,
		"total_pnl":   snap.TotalPnL + snap.TotalMTM,
	})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if !decode(w, r, &req) {
		return
	}

	product, okProduct := validate.ParseProduct(req.Product)
	if !okProduct {
		fail(w, http.StatusBadRequest, fmt.Sprintf("unknown product %q", req.Product))
		return
	}

	order, err := s.Ledger.PlaceOrder(r.Context(), ledger.OrderRequest{
		Symbol:  req.Symbol,
		Side:    model.Side(strings.ToUpper(req.Side)),
		Product: product,
		Qty:     req.Qty,
		Price:   decimal.NewFromFloat(req.Price),
	})
	if err != nil {
		fail(w, orderErrStatus(err), err.Error())
		return
	}
	ok(w, map[string]interface{}{
		"message":  "Order Placed",
		"order_id": order.OrderID,
	})
}

func (s *Server) handleSquareOff(w http.ResponseWriter, r *http.Request) {
	var req squareOffReq
	if !decode(w, r, &req) {
		return
	}

	order, err := s.Ledger.SquareOff(r.Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, ledger.ErrPositionNotFound) {
			fail(w, http.StatusNotFound, "Position not found")
			return
		}
		fail(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	ok(w, map[string]interface{}{"order_id": order.OrderID})
}

func (s *Server) handleAddFunds(w http.ResponseWriter, r *http.Request) {
	var req addFundsReq
	if !decode(w, r, &req) {
		return
	}

	txn, err := s.Ledger.Deposit(decimal.NewFromFloat(req.Amount))
	if err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	ok(w, map[string]interface{}{"new_balance": model.Round2(txn.Balance)})
}

func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"funds": model.Round2(s.Ledger.Cash()),
	})
}

func (s *Server) handleFundsHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Ledger.History())
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Ledger.Orders())
}

func (s *Server) handleBatchQuotes(w http.ResponseWriter, r *http.Request) {
	symbols := strings.Split(r.URL.Query().Get("symbols"), ",")
	resp := make(map[string]interface{}, len(symbols)+1)

	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		price, change := s.quoteFor(r.Context(), sym)
		resp[sym] = map[string]float64{"price": price, "change": change}
	}

	// Headline indices ride along with every batch.
	resp["indices"] = map[string]interface{}{
		"NIFTY":     map[string]float64{"price": jitter(19500, 10), "chg": jitter(0.5, 0.1)},
		"BANKNIFTY": map[string]float64{"price": jitter(44000, 30), "chg": jitter(0.4, 0.1)},
	}
	writeJSON(w, http.StatusOK, resp)
}

// quoteFor resolves a display quote: live feed first, then the engine's
// price chain, then the static table.
func (s *Server) quoteFor(ctx context.Context, symbol string) (price, change float64) {
	if s.Feed != nil {
		if q, found := s.Feed.Last(symbol); found {
			return model.Round2(q.Price), model.Round2(q.ChangePct)
		}
	}
	if s.Prices != nil {
		if p, err := s.Prices.Get(ctx, symbol); err == nil {
			return model.Round2(p), 0
		}
	}
	if s.Table != nil {
		if p, found := s.Table.Lookup(symbol); found {
			return model.Round2(p), 0
		}
	}
	// Unknown symbols still quote, anchored at the demo default of 500.
	change = jitter(0, 1.5)
	return model.Round2(decimal.NewFromFloat(500 * (1 + change/100))), change
}

func (s *Server) handleMarketDepth(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		symbol = "RELIANCE.NS"
	}

	price, _ := s.quoteFor(r.Context(), symbol)
	if price <= 0 {
		fail(w, http.StatusNotFound, fmt.Sprintf("no reference price for %s", symbol))
		return
	}
	writeJSON(w, http.StatusOK, market.MockDepth(decimal.NewFromFloat(price)))
}

func (s *Server) handleScreener(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = market.FilterAll
	}
	writeJSON(w, http.StatusOK, market.Screen(filter))
}

func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"open":           markethours.IsMarketOpen(now),
		"status":         markethours.StatusString(now),
		"next_open":      markethours.NextOpen(now).Format(time.RFC3339),
		"next_squareoff": markethours.NextSquareOff(now).Format(time.RFC3339),
	})
}

func (s *Server) handleBaskets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, market.Baskets())
}

func (s *Server) handlePlaceBasket(w http.ResponseWriter, r *http.Request) {
	var req basketReq
	if !decode(w, r, &req) {
		return
	}

	b, err := s.Invest.PlaceBasket(req.BasketID)
	if err != nil {
		switch {
		case errors.Is(err, invest.ErrBasketNotFound):
			fail(w, http.StatusNotFound, "Basket not found")
		case errors.Is(err, ledger.ErrInsufficientFunds):
			fail(w, http.StatusBadRequest, "Insufficient funds to buy this basket")
		default:
			fail(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	ok(w, map[string]interface{}{
		"message": fmt.Sprintf("Successfully invested in %s!", b.Name),
	})
}

func (s *Server) handleIPOs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, market.IPOs())
}

func (s *Server) handleMutualFunds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, market.MutualFunds())
}

func (s *Server) handleBonds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, market.Bonds())
}

func (s *Server) handleStartSIP(w http.ResponseWriter, r *http.Request) {
	var req nameReq
	if !decode(w, r, &req) {
		return
	}
	s.Invest.StartSIP(req.Name)
	ok(w, map[string]interface{}{
		"message": fmt.Sprintf("SIP for %s started successfully", req.Name),
	})
}

func (s *Server) handleApplyIPO(w http.ResponseWriter, r *http.Request) {
	var req nameReq
	if !decode(w, r, &req) {
		return
	}
	s.Invest.ApplyIPO(req.Name)
	ok(w, map[string]interface{}{
		"message": fmt.Sprintf("Application for %s submitted", req.Name),
	})
}

func (s *Server) handleBuyBond(w http.ResponseWriter, r *http.Request) {
	var req nameReq
	if !decode(w, r, &req) {
		return
	}
	_, err := s.Invest.BuyBond(req.Name, decimal.NewFromFloat(req.Price))
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			fail(w, http.StatusBadRequest, "Insufficient funds")
			return
		}
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	ok(w, map[string]interface{}{
		"message": fmt.Sprintf("Invested in %s successfully", req.Name),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !decode(w, r, &req) {
		return
	}
	user, err := s.Auth.Login(req.Email, req.Password)
	if err != nil {
		fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	ok(w, map[string]interface{}{"user": user})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]interface{}{"message": "User registered"})
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]interface{}{"message": "Profile updated successfully"})
}

func (s *Server) handleGenerateKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.Auth.GenerateKey()
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (s *Server) handleVerifyKey(w http.ResponseWriter, r *http.Request) {
	var req verifyKeyReq
	if !decode(w, r, &req) {
		return
	}
	if err := s.Auth.VerifyKey(req.Key, req.Code); err != nil {
		fail(w, http.StatusUnauthorized, err.Error())
		return
	}
	ok(w, nil)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"ws_clients": s.Hub.ClientCount(),
		"uptime_sec": int64(time.Since(s.Start).Seconds()),
		"ts":         time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade error: %v", err)
		return
	}

	var lastSeq int64
	if v := r.URL.Query().Get("last_seq"); v != "" {
		lastSeq, _ = strconv.ParseInt(v, 10, 64)
	}

	c := NewClient(s.Hub, conn)
	s.Hub.AddClient(c)
	s.Hub.sendInitialState(c, lastSeq)
}

// orderErrStatus maps engine sentinels to HTTP statuses.
func orderErrStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientMargin),
		errors.Is(err, ledger.ErrInsufficientHoldings):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func jitter(base, spread float64) float64 {
	v := base + (rand.Float64()*2-1)*spread
	return model.Round2(decimal.NewFromFloat(v))
}
