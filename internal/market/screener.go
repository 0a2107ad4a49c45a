// Package market serves the desk's reference market data: the stock
// screener, simulated order-book depth and the investment-product catalogs.
// Everything here is static or generated; live prices come from the quotes
// package.
package market

// ScreenerRow is one screener entry with its headline technicals.
type ScreenerRow struct {
	Symbol string  `json:"symbol"`
	Sector string  `json:"sector"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"` // day change percent
	RSI    float64 `json:"rsi"`
	PE     float64 `json:"pe"`
	Volume string  `json:"volume"`
}

// Screener filter names accepted by Screen.
const (
	FilterAll           = "ALL"
	FilterTopGainers    = "TOP_GAINERS"
	FilterTopLosers     = "TOP_LOSERS"
	FilterRSIOverbought = "RSI_OVERBOUGHT"
	FilterRSIOversold   = "RSI_OVERSOLD"
)

var screenerRows = []ScreenerRow{
	{Symbol: "RELIANCE.NS", Sector: "Energy", Price: 2450, Change: 1.2, RSI: 65, PE: 24.5, Volume: "High"},
	{Symbol: "TCS.NS", Sector: "IT", Price: 3240, Change: -0.5, RSI: 42, PE: 29.1, Volume: "Medium"},
	{Symbol: "HDFCBANK.NS", Sector: "Banking", Price: 1650, Change: 0.8, RSI: 58, PE: 19.8, Volume: "High"},
	{Symbol: "INFY.NS", Sector: "IT", Price: 1420, Change: -1.2, RSI: 35, PE: 22.4, Volume: "Medium"},
	{Symbol: "ITC.NS", Sector: "FMCG", Price: 430, Change: 0.5, RSI: 72, PE: 26.0, Volume: "High"},
	{Symbol: "TATAMOTORS.NS", Sector: "Auto", Price: 620, Change: 2.5, RSI: 78, PE: 45.0, Volume: "Very High"},
	{Symbol: "ADANIENT.NS", Sector: "Energy", Price: 2500, Change: -3.5, RSI: 28, PE: 85.0, Volume: "High"},
	{Symbol: "BAJFINANCE.NS", Sector: "Finance", Price: 7200, Change: 1.1, RSI: 62, PE: 35.0, Volume: "Medium"},
}

// Screen returns the screener rows matching the given filter. Unknown
// filters behave like ALL.
func Screen(filter string) []ScreenerRow {
	var keep func(ScreenerRow) bool
	switch filter {
	case FilterTopGainers:
		keep = func(r ScreenerRow) bool { return r.Change > 0 }
	case FilterTopLosers:
		keep = func(r ScreenerRow) bool { return r.Change < 0 }
	case FilterRSIOverbought:
		keep = func(r ScreenerRow) bool { return r.RSI > 70 }
	case FilterRSIOversold:
		keep = func(r ScreenerRow) bool { return r.RSI < 30 }
	default:
		keep = func(ScreenerRow) bool { return true }
	}

	out := make([]ScreenerRow, 0, len(screenerRows))
	for _, r := range screenerRows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
