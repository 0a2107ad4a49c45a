package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"papertrade-systemv1/internal/model"

	"github.com/shopspring/decimal"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(JournalConfig{DBPath: filepath.Join(t.TempDir(), "desk.db")})
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func order(id string, placed time.Time) model.Order {
	return model.Order{
		OrderID:  id,
		Symbol:   "TCS.NS",
		Side:     model.SideBuy,
		Product:  model.ProductIntraday,
		Variety:  model.VarietyNormal,
		Qty:      10,
		Price:    decimal.RequireFromString("3240.55"),
		Status:   model.StatusComplete,
		PlacedAt: placed,
	}
}

func TestJournalOrderRoundTrip(t *testing.T) {
	j := newTestJournal(t)

	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := j.RecordOrder(order("PAPER-1", base)); err != nil {
		t.Fatalf("RecordOrder: %v", err)
	}
	if err := j.RecordOrder(order("PAPER-2", base.Add(time.Minute))); err != nil {
		t.Fatalf("RecordOrder: %v", err)
	}

	got, err := j.RecentOrders(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentOrders: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].OrderID != "PAPER-2" || got[1].OrderID != "PAPER-1" {
		t.Errorf("order = %s, %s", got[0].OrderID, got[1].OrderID)
	}
	o := got[1]
	if o.Symbol != "TCS.NS" || o.Side != model.SideBuy || o.Product != model.ProductIntraday {
		t.Errorf("row = %+v", o)
	}
	if !o.Price.Equal(decimal.RequireFromString("3240.55")) {
		t.Errorf("price = %s", o.Price)
	}
	if !o.PlacedAt.Equal(base) {
		t.Errorf("placed_at = %s, want %s", o.PlacedAt, base)
	}
}

func TestJournalRecentOrdersLimit(t *testing.T) {
	j := newTestJournal(t)

	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := j.RecordOrder(order(fmt.Sprintf("PAPER-%d", i+1), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("RecordOrder %d: %v", i, err)
		}
	}

	got, err := j.RecentOrders(context.Background(), 3)
	if err != nil {
		t.Fatalf("RecentOrders: %v", err)
	}
	if len(got) != 3 || got[0].OrderID != "PAPER-5" {
		t.Errorf("rows = %+v", got)
	}
}

func TestJournalTransaction(t *testing.T) {
	j := newTestJournal(t)

	err := j.RecordTransaction(model.Transaction{
		ID:      1,
		Time:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Type:    model.TxnDeposit,
		Desc:    "Funds Added via UPI",
		Amount:  decimal.NewFromInt(50_000),
		Balance: decimal.NewFromInt(1_050_000),
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}

	var descr, amount string
	row := j.DB().QueryRow(`SELECT descr, amount FROM transactions WHERE txn_id = 1`)
	if err := row.Scan(&descr, &amount); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if descr != "Funds Added via UPI" || amount != "50000" {
		t.Errorf("row = %q %q", descr, amount)
	}
}
