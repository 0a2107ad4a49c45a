// Package validate holds the pure pre-trade predicates. A failing predicate
// aborts the operation before any state is touched.
package validate

import (
	"strings"
	"unicode"

	"papertrade-systemv1/internal/model"

	"github.com/shopspring/decimal"
)

// Symbol reports whether s looks like a valid trading symbol: longer than
// 4 characters, at least one letter, and no lowercase (digits, dots and
// spaces are fine — "NIFTY 19500 CE", "TCS.NS").
func Symbol(s string) bool {
	if len(s) <= 4 {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// Side reports whether s is BUY or SELL (case-insensitive).
func Side(s string) bool {
	u := strings.ToUpper(s)
	return u == string(model.SideBuy) || u == string(model.SideSell)
}

// Product reports whether s names a known product type, accepting both the
// ledger names and the broker codes used by the web client.
func Product(s string) bool {
	_, ok := ParseProduct(s)
	return ok
}

// ParseProduct maps a product string (DELIVERY/CNC, INTRADAY/MIS) to its
// model type.
func ParseProduct(s string) (model.Product, bool) {
	switch strings.ToUpper(s) {
	case "DELIVERY", "CNC":
		return model.ProductDelivery, true
	case "INTRADAY", "MIS":
		return model.ProductIntraday, true
	}
	return "", false
}

// Quantity reports whether q is a positive order quantity.
func Quantity(q int64) bool {
	return q > 0
}

// Price reports whether p is a positive price.
func Price(p decimal.Decimal) bool {
	return p.IsPositive()
}
