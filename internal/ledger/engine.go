// Package ledger implements the paper-trading ledger and position engine:
// a single in-memory account whose cash, delivery holdings, intraday
// positions, order log and transaction ledger stay mutually consistent
// across deposits, buy/sell orders and square-offs.
//
// All mutating operations are serialised behind one mutex; snapshots copy
// the account under the same lock and value the copy afterwards, so readers
// always observe a consistent point-in-time view.
package ledger

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"papertrade-systemv1/internal/metrics"
	"papertrade-systemv1/internal/model"
	"papertrade-systemv1/internal/quotes"
	"papertrade-systemv1/internal/validate"

	"github.com/shopspring/decimal"
)

const defaultPriceTimeout = 2 * time.Second

// Journal receives every executed order and ledger row for offline audit.
// Journal failures are logged, never surfaced: the in-memory account is the
// source of truth and a dead journal must not block trading.
type Journal interface {
	RecordOrder(order model.Order) error
	RecordTransaction(txn model.Transaction) error
}

// Config wires the engine's collaborators.
type Config struct {
	// OpeningBalance is the cash the account starts with.
	OpeningBalance decimal.Decimal

	// Prices resolves reference prices for valuation and square-offs.
	Prices quotes.Source

	// PriceTimeout bounds a single price lookup. Defaults to 2s.
	PriceTimeout time.Duration

	// Journal, OnOrder and Metrics are optional.
	Journal Journal
	OnOrder func(order model.Order)
	Metrics *metrics.Metrics

	// Clock is overridable for tests. Defaults to time.Now (UTC).
	Clock func() time.Time
}

// OrderRequest is the input to PlaceOrder.
type OrderRequest struct {
	Symbol  string
	Side    model.Side
	Product model.Product
	Qty     int64
	Price   decimal.Decimal
}

// Service owns the account and exposes the engine operations.
type Service struct {
	mu   sync.Mutex
	acct *Account

	prices       quotes.Source
	priceTimeout time.Duration
	journal      Journal
	onOrder      func(model.Order)
	prom         *metrics.Metrics
	now          func() time.Time
}

// New creates the engine and opens the account.
func New(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if cfg.PriceTimeout <= 0 {
		cfg.PriceTimeout = defaultPriceTimeout
	}
	s := &Service{
		acct:         NewAccount(cfg.OpeningBalance, cfg.Clock()),
		prices:       cfg.Prices,
		priceTimeout: cfg.PriceTimeout,
		journal:      cfg.Journal,
		onOrder:      cfg.OnOrder,
		prom:         cfg.Metrics,
		now:          cfg.Clock,
	}
	log.Printf("[ledger] account opened with balance %s", cfg.OpeningBalance.StringFixed(2))
	return s
}

// Deposit credits cash and appends a DEPOSIT ledger row.
func (s *Service) Deposit(amount decimal.Decimal) (model.Transaction, error) {
	if !amount.IsPositive() {
		s.countRejected("invalid_amount")
		return model.Transaction{}, fmt.Errorf("%w: deposit must be positive, got %s", ErrInvalidAmount, amount)
	}

	s.mu.Lock()
	s.acct.Cash = s.acct.Cash.Add(amount)
	txn := s.acct.appendTxn(model.TxnDeposit, "Funds Added via UPI", amount, s.now())
	s.mu.Unlock()

	if s.prom != nil {
		s.prom.DepositsTotal.Inc()
	}
	s.journalTxn(txn)
	log.Printf("[ledger] deposit %s, balance %s", amount.StringFixed(2), txn.Balance.StringFixed(2))
	return txn, nil
}

// Purchase debits cash for an investment product and appends a ledger row
// with the (negative) amount. Fails with ErrInsufficientFunds when the
// account cannot cover it.
func (s *Service) Purchase(typ model.TxnType, desc string, amount decimal.Decimal) (model.Transaction, error) {
	if !amount.IsPositive() {
		s.countRejected("invalid_amount")
		return model.Transaction{}, fmt.Errorf("%w: purchase amount must be positive, got %s", ErrInvalidAmount, amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if amount.GreaterThan(s.acct.Cash) {
		s.countRejected("insufficient_funds")
		return model.Transaction{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds,
			amount.StringFixed(2), s.acct.Cash.StringFixed(2))
	}
	s.acct.Cash = s.acct.Cash.Sub(amount)
	txn := s.acct.appendTxn(typ, desc, amount.Neg(), s.now())
	go s.journalTxn(txn)
	return txn, nil
}

// RecordEvent appends a zero-amount informational ledger row (SIP start,
// IPO application).
func (s *Service) RecordEvent(typ model.TxnType, desc string) model.Transaction {
	s.mu.Lock()
	txn := s.acct.appendTxn(typ, desc, decimal.Zero, s.now())
	s.mu.Unlock()
	s.journalTxn(txn)
	return txn
}

// PlaceOrder validates and executes a buy/sell order. Orders are atomic:
// either every check passes and the fill is applied in full, or the account
// is untouched.
func (s *Service) PlaceOrder(ctx context.Context, req OrderRequest) (model.Order, error) {
	if err := s.validateRequest(req); err != nil {
		s.countRejected("validation")
		return model.Order{}, err
	}
	_ = ctx // reserved: plain limit fills need no price lookup

	value := req.Price.Mul(decimal.NewFromInt(req.Qty))

	s.mu.Lock()
	defer s.mu.Unlock()

	// Pre-trade checks — nothing below may mutate until all have passed.
	switch req.Side {
	case model.SideBuy:
		if value.GreaterThan(s.acct.Cash) {
			s.countRejected("insufficient_margin")
			return model.Order{}, fmt.Errorf("%w: required %s, available %s", ErrInsufficientMargin,
				value.StringFixed(2), s.acct.Cash.StringFixed(2))
		}
	case model.SideSell:
		if req.Product == model.ProductDelivery {
			h, ok := s.acct.Holdings[req.Symbol]
			if !ok || h.Qty < req.Qty {
				s.countRejected("insufficient_holdings")
				return model.Order{}, fmt.Errorf("%w: %s", ErrInsufficientHoldings, req.Symbol)
			}
		}
	}

	// Cash movement. Sells credit cash regardless of product type — the
	// simplified margin model has no short-margin bookkeeping.
	if req.Side == model.SideBuy {
		s.acct.Cash = s.acct.Cash.Sub(value)
	} else {
		s.acct.Cash = s.acct.Cash.Add(value)
	}

	order := model.Order{
		OrderID:  s.acct.nextOrderID(),
		Symbol:   req.Symbol,
		Side:     req.Side,
		Product:  req.Product,
		Variety:  model.VarietyNormal,
		Qty:      req.Qty,
		Price:    req.Price,
		Status:   model.StatusComplete,
		PlacedAt: s.now(),
	}
	s.acct.Orders = append(s.acct.Orders, order)
	s.applyFill(req)

	s.finishOrder(order)
	log.Printf("[ledger] %s %s %s qty=%d price=%s order=%s balance=%s",
		order.Side, order.Product, order.Symbol, order.Qty,
		order.Price.StringFixed(2), order.OrderID, s.acct.Cash.StringFixed(2))
	return order, nil
}

// applyFill updates holdings/positions for a validated fill. Caller holds
// the lock.
func (s *Service) applyFill(req OrderRequest) {
	if req.Product == model.ProductDelivery {
		h := s.acct.Holdings[req.Symbol]
		if req.Side == model.SideBuy {
			if h == nil {
				s.acct.Holdings[req.Symbol] = &model.Holding{
					Symbol:   req.Symbol,
					Qty:      req.Qty,
					AvgPrice: req.Price,
				}
				return
			}
			// Volume-weighted cost basis, full precision — rounding
			// happens only at the presentation boundary.
			oldVal := h.AvgPrice.Mul(decimal.NewFromInt(h.Qty))
			newVal := req.Price.Mul(decimal.NewFromInt(req.Qty))
			h.Qty += req.Qty
			h.AvgPrice = oldVal.Add(newVal).Div(decimal.NewFromInt(h.Qty))
			return
		}
		// Delivery sell: quantity down, cost basis untouched; the holding
		// disappears once flat.
		h.Qty -= req.Qty
		if h.Qty <= 0 {
			delete(s.acct.Holdings, req.Symbol)
		}
		return
	}

	// Intraday: signed quantity, and the average is overwritten with the
	// latest fill price on every trade rather than volume-weighted.
	p := s.acct.Positions[req.Symbol]
	if p == nil {
		p = &model.Position{Symbol: req.Symbol}
		s.acct.Positions[req.Symbol] = p
	}
	if req.Side == model.SideBuy {
		p.Qty += req.Qty
	} else {
		p.Qty -= req.Qty
	}
	p.AvgPrice = req.Price
}

// SquareOff force-closes the intraday position for symbol at the current
// reference price: the account is credited |qty|×price, the position is
// reset to flat, and a synthetic AUTO order records the closing trade.
func (s *Service) SquareOff(ctx context.Context, symbol string) (model.Order, error) {
	// Cheap existence check before spending a price lookup.
	s.mu.Lock()
	pos, ok := s.acct.Positions[symbol]
	if !ok || pos.Flat() {
		s.mu.Unlock()
		s.countRejected("position_not_found")
		return model.Order{}, fmt.Errorf("%w: %s", ErrPositionNotFound, symbol)
	}
	lastFill := pos.AvgPrice
	s.mu.Unlock()

	price, err := s.price(ctx, symbol)
	if err != nil {
		// Degrade to the last fill price rather than leaving an intraday
		// position open because the feed hiccupped.
		if !lastFill.IsPositive() {
			return model.Order{}, err
		}
		log.Printf("[ledger] square-off %s: price lookup failed (%v), using last fill %s",
			symbol, err, lastFill.StringFixed(2))
		price = lastFill
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check: a concurrent trade may have flattened the position while
	// the price lookup was in flight.
	pos, ok = s.acct.Positions[symbol]
	if !ok || pos.Flat() {
		s.countRejected("position_not_found")
		return model.Order{}, fmt.Errorf("%w: %s", ErrPositionNotFound, symbol)
	}

	qty := pos.Qty
	side := model.SideSell
	if qty < 0 {
		side = model.SideBuy
		qty = -qty
	}

	// Symmetric margin refund for longs and shorts — a simplification,
	// not a true P&L settlement.
	s.acct.Cash = s.acct.Cash.Add(price.Mul(decimal.NewFromInt(qty)))
	pos.Qty = 0
	pos.AvgPrice = decimal.Zero

	order := model.Order{
		OrderID:  s.acct.nextOrderID(),
		Symbol:   symbol,
		Side:     side,
		Product:  model.ProductIntraday,
		Variety:  model.VarietyAuto,
		Qty:      qty,
		Price:    price,
		Status:   model.StatusComplete,
		PlacedAt: s.now(),
	}
	s.acct.Orders = append(s.acct.Orders, order)

	if s.prom != nil {
		s.prom.SquareOffsTotal.Inc()
	}
	s.finishOrder(order)
	log.Printf("[ledger] squared off %s: %s %d @ %s, balance=%s",
		symbol, side, qty, price.StringFixed(2), s.acct.Cash.StringFixed(2))
	return order, nil
}

// SquareOffAll closes every nonzero intraday position, returning the
// closing orders. Used by the session scheduler at the MIS cutoff.
func (s *Service) SquareOffAll(ctx context.Context) []model.Order {
	s.mu.Lock()
	symbols := make([]string, 0, len(s.acct.Positions))
	for sym, pos := range s.acct.Positions {
		if !pos.Flat() {
			symbols = append(symbols, sym)
		}
	}
	s.mu.Unlock()
	sort.Strings(symbols)

	var closed []model.Order
	for _, sym := range symbols {
		order, err := s.SquareOff(ctx, sym)
		if err != nil {
			log.Printf("[ledger] square-off-all %s failed: %v", sym, err)
			continue
		}
		closed = append(closed, order)
	}
	return closed
}

// History returns the transaction ledger, newest first.
func (s *Service) History() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Transaction, len(s.acct.Transactions))
	for i, txn := range s.acct.Transactions {
		out[len(out)-1-i] = txn
	}
	return out
}

// Orders returns the order log, newest first.
func (s *Service) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, len(s.acct.Orders))
	for i, o := range s.acct.Orders {
		out[len(out)-1-i] = o
	}
	return out
}

// validateRequest applies the pure pre-trade predicates.
func (s *Service) validateRequest(req OrderRequest) error {
	var faults []string
	if !validate.Symbol(req.Symbol) {
		faults = append(faults, "symbol")
	}
	if !validate.Side(string(req.Side)) {
		faults = append(faults, "side")
	}
	if req.Product != model.ProductDelivery && req.Product != model.ProductIntraday {
		faults = append(faults, "product")
	}
	if !validate.Quantity(req.Qty) {
		faults = append(faults, "qty")
	}
	if !validate.Price(req.Price) {
		faults = append(faults, "price")
	}
	if len(faults) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(faults, ", "))
	}
	return nil
}

// price performs one bounded price lookup.
func (s *Service) price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if s.prices == nil {
		return decimal.Zero, quotes.ErrPriceUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.priceTimeout)
	defer cancel()

	start := time.Now()
	p, err := s.prices.Get(ctx, symbol)
	if s.prom != nil {
		s.prom.PriceLookupDur.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", quotes.ErrPriceUnavailable, symbol)
	}
	return p, nil
}

// finishOrder runs the post-fill side effects (journal, metrics, hook).
// Caller may hold the lock; everything here is non-blocking or fire-and-
// forget.
func (s *Service) finishOrder(order model.Order) {
	if s.prom != nil {
		s.prom.OrdersTotal.WithLabelValues(string(order.Side), string(order.Product)).Inc()
	}
	if s.journal != nil {
		go func() {
			if err := s.journal.RecordOrder(order); err != nil {
				log.Printf("[ledger] WARNING: journal order %s failed: %v", order.OrderID, err)
			}
		}()
	}
	if s.onOrder != nil {
		go s.onOrder(order)
	}
}

func (s *Service) journalTxn(txn model.Transaction) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordTransaction(txn); err != nil {
		log.Printf("[ledger] WARNING: journal txn %d failed: %v", txn.ID, err)
	}
}

func (s *Service) countRejected(reason string) {
	if s.prom != nil {
		s.prom.OrdersRejected.WithLabelValues(reason).Inc()
	}
}
