package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the closing side for this side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Product is the position product type.
type Product string

const (
	// ProductDelivery positions are carried beyond the session (broker code CNC).
	ProductDelivery Product = "DELIVERY"
	// ProductIntraday positions must be squared off by session end (broker code MIS).
	ProductIntraday Product = "INTRADAY"
)

// Order varieties.
const (
	VarietyNormal = "NORMAL"
	VarietyAuto   = "AUTO" // synthetic closing order appended by a square-off
)

// Order statuses. There is no partial-fill or pending state — every accepted
// order fills atomically and is immediately terminal.
const (
	StatusComplete = "COMPLETE"
)

// Order is an executed order record. The order log is append-only: once a
// record enters it, it is never mutated.
type Order struct {
	OrderID  string          `json:"order_id"`
	Symbol   string          `json:"symbol"`
	Side     Side            `json:"side"`
	Product  Product         `json:"product"`
	Variety  string          `json:"variety"` // NORMAL, AUTO
	Qty      int64           `json:"qty"`
	Price    decimal.Decimal `json:"price"`
	Status   string          `json:"status"`
	PlacedAt time.Time       `json:"placed_at"`
}

// Value returns the order value (qty × price).
func (o *Order) Value() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(o.Qty))
}
