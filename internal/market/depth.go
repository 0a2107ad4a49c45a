package market

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"papertrade-systemv1/internal/model"
)

// DepthLevel is one price level of the simulated order book.
type DepthLevel struct {
	Price  float64 `json:"price"`
	Qty    int64   `json:"qty"`
	Orders int     `json:"orders"`
}

// Depth is a five-level two-sided book.
type Depth struct {
	Bids     []DepthLevel `json:"bids"`
	Asks     []DepthLevel `json:"asks"`
	TotalBid int64        `json:"total_bid"`
	TotalAsk int64        `json:"total_ask"`
}

// MockDepth generates a plausible book around the given last price: five
// levels each side at 5bps spacing, with level quantities scaled so cheaper
// symbols show deeper size.
func MockDepth(last decimal.Decimal) Depth {
	price, _ := last.Float64()
	qtyBase := int64(100)
	if price > 0 {
		qtyBase = int64(10000 / price)
		if qtyBase < 1 {
			qtyBase = 1
		}
	}

	d := Depth{
		Bids: make([]DepthLevel, 0, 5),
		Asks: make([]DepthLevel, 0, 5),
	}
	for i := 1; i <= 5; i++ {
		spread := price * 0.0005 * float64(i)
		bidQty := int64(rand.Intn(10)+1) * qtyBase
		askQty := int64(rand.Intn(10)+1) * qtyBase
		d.Bids = append(d.Bids, DepthLevel{
			Price:  model.Round2(decimal.NewFromFloat(price - spread)),
			Qty:    bidQty,
			Orders: rand.Intn(20) + 1,
		})
		d.Asks = append(d.Asks, DepthLevel{
			Price:  model.Round2(decimal.NewFromFloat(price + spread)),
			Qty:    askQty,
			Orders: rand.Intn(20) + 1,
		})
		d.TotalBid += bidQty
		d.TotalAsk += askQty
	}
	return d
}
