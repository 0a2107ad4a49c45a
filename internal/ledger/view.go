package ledger

import (
	"context"
	"sort"

	"papertrade-systemv1/internal/model"

	"github.com/shopspring/decimal"
)

// HoldingView is a valued delivery holding. Monetary fields are rounded to
// two decimals here, at the presentation boundary only.
type HoldingView struct {
	Symbol       string  `json:"symbol"`
	Qty          int64   `json:"quantity"`
	AvgPrice     float64 `json:"avg_price"`
	LastPrice    float64 `json:"last_price"`
	Invested     float64 `json:"invested_value"`
	CurrentValue float64 `json:"current_value"`
	PnL          float64 `json:"pnl"`
	PnLPct       float64 `json:"pnl_percent"`
}

// PositionView is a valued intraday position with its mark-to-market.
type PositionView struct {
	Symbol    string  `json:"symbol"`
	Qty       int64   `json:"quantity"`
	AvgPrice  float64 `json:"avg_price"`
	LastPrice float64 `json:"last_price"`
	MTM       float64 `json:"mtm"`
}

// PortfolioView is the full valued account snapshot.
type PortfolioView struct {
	Funds         float64        `json:"funds"`
	Holdings      []HoldingView  `json:"holdings"`
	Positions     []PositionView `json:"positions"`
	TotalInvested float64        `json:"total_invested"`
	TotalCurrent  float64        `json:"total_current"`
	TotalPnL      float64        `json:"total_pnl"`
	TotalPnLPct   float64        `json:"total_pnl_percent"`
	TotalMTM      float64        `json:"total_mtm"`
}

// Cash returns the available balance.
func (s *Service) Cash() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acct.Cash
}

// Snapshot returns a point-in-time valued view of the account. State is
// copied under the lock and priced afterwards, so price lookups never block
// trading; a symbol whose price cannot be resolved is valued at its own
// cost basis (zero unrealised P&L) rather than failing the whole snapshot.
func (s *Service) Snapshot(ctx context.Context) PortfolioView {
	s.mu.Lock()
	cash := s.acct.Cash
	holdings := make([]model.Holding, 0, len(s.acct.Holdings))
	for _, h := range s.acct.Holdings {
		holdings = append(holdings, *h)
	}
	positions := make([]model.Position, 0, len(s.acct.Positions))
	for _, p := range s.acct.Positions {
		// Flat entries stay in the account but never reach the view.
		if p.Flat() {
			continue
		}
		positions = append(positions, *p)
	}
	s.mu.Unlock()

	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	view := PortfolioView{
		Funds:     model.Round2(cash),
		Holdings:  make([]HoldingView, 0, len(holdings)),
		Positions: make([]PositionView, 0, len(positions)),
	}

	totalInvested := decimal.Zero
	totalCurrent := decimal.Zero
	for _, h := range holdings {
		last, err := s.price(ctx, h.Symbol)
		if err != nil {
			last = h.AvgPrice
		}
		invested := h.CostBasis()
		current := last.Mul(decimal.NewFromInt(h.Qty))
		pnl := current.Sub(invested)
		totalInvested = totalInvested.Add(invested)
		totalCurrent = totalCurrent.Add(current)

		view.Holdings = append(view.Holdings, HoldingView{
			Symbol:       h.Symbol,
			Qty:          h.Qty,
			AvgPrice:     model.Round2(h.AvgPrice),
			LastPrice:    model.Round2(last),
			Invested:     model.Round2(invested),
			CurrentValue: model.Round2(current),
			PnL:          model.Round2(pnl),
			PnLPct:       model.Round2(model.PnLPct(pnl, invested)),
		})
	}

	totalMTM := decimal.Zero
	for _, p := range positions {
		last, err := s.price(ctx, p.Symbol)
		if err != nil {
			last = p.AvgPrice
		}
		mtm := p.MTM(last)
		totalMTM = totalMTM.Add(mtm)

		view.Positions = append(view.Positions, PositionView{
			Symbol:    p.Symbol,
			Qty:       p.Qty,
			AvgPrice:  model.Round2(p.AvgPrice),
			LastPrice: model.Round2(last),
			MTM:       model.Round2(mtm),
		})
	}

	totalPnL := totalCurrent.Sub(totalInvested)
	view.TotalInvested = model.Round2(totalInvested)
	view.TotalCurrent = model.Round2(totalCurrent)
	view.TotalPnL = model.Round2(totalPnL)
	view.TotalPnLPct = model.Round2(model.PnLPct(totalPnL, totalInvested))
	view.TotalMTM = model.Round2(totalMTM)
	return view
}
