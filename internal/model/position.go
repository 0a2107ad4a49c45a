package model

import "github.com/shopspring/decimal"

// Holding is a delivery position. Quantity is always positive and AvgPrice
// carries the volume-weighted cost basis of every buy fill contributing to
// the current quantity; sells reduce quantity but never touch AvgPrice.
// A holding is removed from the account once its quantity reaches zero.
type Holding struct {
	Symbol   string          `json:"symbol"`
	Qty      int64           `json:"qty"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// CostBasis returns qty × avg price.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.AvgPrice.Mul(decimal.NewFromInt(h.Qty))
}

// PnL returns the unrealized profit/loss of the holding at the given price.
func (h *Holding) PnL(last decimal.Decimal) decimal.Decimal {
	return last.Mul(decimal.NewFromInt(h.Qty)).Sub(h.CostBasis())
}

// Position is an intraday position. Quantity is signed (positive = long,
// negative = short) and may be zero; flat entries are retained until squared
// off but excluded from valuation. AvgPrice is overwritten with the latest
// fill price on every trade — intentionally NOT volume-weighted, unlike
// Holding.
type Position struct {
	Symbol   string          `json:"symbol"`
	Qty      int64           `json:"qty"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// MTM returns the mark-to-market profit/loss at the given price. The signed
// quantity keeps the sign correct for both long and short positions.
func (p *Position) MTM(last decimal.Decimal) decimal.Decimal {
	return last.Sub(p.AvgPrice).Mul(decimal.NewFromInt(p.Qty))
}

// Flat reports whether the position has zero quantity.
func (p *Position) Flat() bool {
	return p.Qty == 0
}
