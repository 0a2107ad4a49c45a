package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Quote represents a single reference-price update for a symbol.
//
// The JSON shape is the wire format between cmd/quoteserver and the desk's
// feed client, and also what the Redis last-price cache stores:
//
//	{"symbol":"TCS.NS","price":"3240.55","change":"0.42","ts":"..."}
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	ChangePct decimal.Decimal `json:"change"` // day change in percent
	TS        time.Time       `json:"ts"`     // UTC timestamp
}

// JSON serialises the quote; errors are impossible for this shape.
func (q *Quote) JSON() []byte {
	b, _ := json.Marshal(q)
	return b
}
