package model

import "github.com/shopspring/decimal"

// Money values are kept as arbitrary-precision decimals internally and only
// rounded at the presentation boundary, so repeated buy/sell averaging never
// compounds rounding error.

// Round2 rounds a monetary value to 2 decimal places for presentation.
func Round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// PnLPct returns pnl/costBasis×100, or zero when the cost basis is zero
// (a NaN here would otherwise leak into JSON output).
func PnLPct(pnl, costBasis decimal.Decimal) decimal.Decimal {
	if costBasis.IsZero() {
		return decimal.Zero
	}
	return pnl.Div(costBasis).Mul(decimal.NewFromInt(100))
}
