package market

// BasketStock is one constituent of a curated basket.
type BasketStock struct {
	Symbol string `json:"symbol"`
	Weight string `json:"weight"`
}

// Basket is a curated multi-stock investment with a minimum ticket size.
type Basket struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Desc      string        `json:"desc"`
	MinAmount int64         `json:"min_amt"`
	Stocks    []BasketStock `json:"stocks"`
}

// IPO is a primary-market listing entry.
type IPO struct {
	Name      string `json:"name"`
	PriceBand string `json:"price_band"`
	Status    string `json:"status"` // OPEN, UPCOMING, CLOSED
	CloseDate string `json:"close_date"`
}

// MutualFund is a fund catalog entry.
type MutualFund struct {
	Name   string  `json:"name"`
	NAV    float64 `json:"nav"`
	CAGR3Y string  `json:"cagr_3y"`
	MinSIP int64   `json:"min_sip"`
}

// Bond is a fixed-income catalog entry.
type Bond struct {
	Name     string  `json:"name"`
	Yield    string  `json:"yield"`
	Price    float64 `json:"price"`
	Maturity string  `json:"maturity"`
}

var baskets = []Basket{
	{
		ID: "b1", Name: "IT Giants", Desc: "Top 3 Indian IT companies", MinAmount: 5000,
		Stocks: []BasketStock{
			{Symbol: "TCS.NS", Weight: "40%"},
			{Symbol: "INFY.NS", Weight: "35%"},
			{Symbol: "WIPRO.NS", Weight: "25%"},
		},
	},
	{
		ID: "b2", Name: "Banking Titans", Desc: "Leading private sector banks", MinAmount: 8000,
		Stocks: []BasketStock{
			{Symbol: "HDFCBANK.NS", Weight: "50%"},
			{Symbol: "ICICIBANK.NS", Weight: "50%"},
		},
	},
	{
		ID: "b3", Name: "EV Future", Desc: "Companies driving the EV revolution", MinAmount: 3500,
		Stocks: []BasketStock{
			{Symbol: "TATAMOTORS.NS", Weight: "60%"},
			{Symbol: "RELIANCE.NS", Weight: "40%"},
		},
	},
}

var ipos = []IPO{
	{Name: "Tata Technologies", PriceBand: "475-500", Status: "OPEN", CloseDate: "18 Sep"},
	{Name: "Mamaearth", PriceBand: "308-324", Status: "UPCOMING", CloseDate: "25 Sep"},
	{Name: "IdeaForge", PriceBand: "638-672", Status: "CLOSED", CloseDate: "10 Aug"},
}

var mutualFunds = []MutualFund{
	{Name: "HDFC Mid-Cap Opportunities", NAV: 124.5, CAGR3Y: "28.5%", MinSIP: 500},
	{Name: "SBI Small Cap Fund", NAV: 156.8, CAGR3Y: "32.1%", MinSIP: 500},
	{Name: "Parag Parikh Flexi Cap", NAV: 65.4, CAGR3Y: "22.4%", MinSIP: 1000},
	{Name: "Axis Bluechip Fund", NAV: 52.1, CAGR3Y: "14.2%", MinSIP: 500},
}

var bonds = []Bond{
	{Name: "SGB 2023-24 Series II", Yield: "2.50% pa", Price: 5923, Maturity: "2031"},
	{Name: "7.54% GS 2036", Yield: "7.54%", Price: 100.25, Maturity: "2036"},
	{Name: "REC Ltd Tax Free Bond", Yield: "4.80%", Price: 1150, Maturity: "2027"},
}

// Baskets returns the basket catalog.
func Baskets() []Basket { return baskets }

// BasketByID looks up a basket by id.
func BasketByID(id string) (Basket, bool) {
	for _, b := range baskets {
		if b.ID == id {
			return b, true
		}
	}
	return Basket{}, false
}

// IPOs returns the IPO board.
func IPOs() []IPO { return ipos }

// MutualFunds returns the fund catalog.
func MutualFunds() []MutualFund { return mutualFunds }

// Bonds returns the bond catalog.
func Bonds() []Bond { return bonds }
