package quotes

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Table is a static in-memory price table. It backs the quote simulator and
// serves as the last fallback of the desk's price chain.
type Table struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// referenceDefaults are the seed prices for the simulated NSE universe:
// cash equities, index futures, index options, MCX commodities and CDS
// currency futures.
var referenceDefaults = map[string]string{
	// Equities
	"RELIANCE.NS":   "2450.00",
	"TCS.NS":        "3240.00",
	"HDFCBANK.NS":   "1650.00",
	"INFY.NS":       "1420.00",
	"SBIN.NS":       "580.00",
	"TATAMOTORS.NS": "980.00",
	"ITC.NS":        "430.00",
	"ICICIBANK.NS":  "950.00",

	// F&O futures
	"NIFTY 25OCT FUT":     "19650.00",
	"BANKNIFTY 25OCT FUT": "44500.00",

	// F&O options
	"NIFTY 19500 CE":     "145.50",
	"NIFTY 19500 PE":     "85.20",
	"NIFTY 19600 CE":     "88.00",
	"NIFTY 19600 PE":     "120.50",
	"BANKNIFTY 44000 CE": "320.00",
	"BANKNIFTY 44000 PE": "180.00",

	// Commodities (MCX)
	"GOLD 05OCT FUT":     "59500.00",
	"SILVER 05SEP FUT":   "74200.00",
	"CRUDEOIL 19SEP FUT": "7150.00",

	// Currency (CDS)
	"USDINR 27SEP FUT": "83.15",
	"EURINR 27SEP FUT": "89.40",
	"GBPINR 27SEP FUT": "104.50",
}

// NewReferenceTable returns a table seeded with the simulated universe.
func NewReferenceTable() *Table {
	t := &Table{prices: make(map[string]decimal.Decimal, len(referenceDefaults))}
	for sym, p := range referenceDefaults {
		t.prices[sym] = decimal.RequireFromString(p)
	}
	return t
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{prices: make(map[string]decimal.Decimal)}
}

// Get implements Source.
func (t *Table) Get(_ context.Context, symbol string) (decimal.Decimal, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.prices[symbol]
	if !ok || !p.IsPositive() {
		return decimal.Zero, ErrPriceUnavailable
	}
	return p, nil
}

// Lookup returns the price without the Source error contract.
func (t *Table) Lookup(symbol string) (decimal.Decimal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.prices[symbol]
	return p, ok
}

// Set stores a price.
func (t *Table) Set(symbol string, price decimal.Decimal) {
	t.mu.Lock()
	t.prices[symbol] = price
	t.mu.Unlock()
}

// Symbols returns every symbol in the table.
func (t *Table) Symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.prices))
	for sym := range t.prices {
		out = append(out, sym)
	}
	return out
}
