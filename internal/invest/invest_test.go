package invest

import (
	"errors"
	"testing"

	"papertrade-systemv1/internal/ledger"
	"papertrade-systemv1/internal/model"

	"github.com/shopspring/decimal"
)

func newService(openingBalance int64) (*Service, *ledger.Service) {
	l := ledger.New(ledger.Config{OpeningBalance: decimal.NewFromInt(openingBalance)})
	return NewService(l), l
}

func TestPlaceBasket(t *testing.T) {
	s, l := newService(10_000)

	b, err := s.PlaceBasket("b1") // IT Giants, min 5000
	if err != nil {
		t.Fatalf("PlaceBasket: %v", err)
	}
	if b.Name != "IT Giants" {
		t.Errorf("basket = %+v", b)
	}
	if !l.Cash().Equal(decimal.NewFromInt(5_000)) {
		t.Errorf("cash = %s, want 5000", l.Cash())
	}

	hist := l.History()
	if hist[0].Type != model.TxnBasketBuy || hist[0].Desc != "Bought Basket: IT Giants" {
		t.Errorf("ledger row = %+v", hist[0])
	}
}

func TestPlaceBasketErrors(t *testing.T) {
	s, l := newService(1_000)

	if _, err := s.PlaceBasket("missing"); !errors.Is(err, ErrBasketNotFound) {
		t.Errorf("err = %v, want ErrBasketNotFound", err)
	}
	if _, err := s.PlaceBasket("b1"); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
	if !l.Cash().Equal(decimal.NewFromInt(1_000)) {
		t.Errorf("cash changed on failed purchase: %s", l.Cash())
	}
}

func TestZeroAmountEvents(t *testing.T) {
	s, l := newService(1_000)

	sip := s.StartSIP("SBI Small Cap Fund")
	if sip.Type != model.TxnSIPStart || !sip.Amount.IsZero() {
		t.Errorf("sip row = %+v", sip)
	}
	ipo := s.ApplyIPO("Tata Technologies")
	if ipo.Type != model.TxnIPOApply || ipo.Desc != "Applied for IPO: Tata Technologies" {
		t.Errorf("ipo row = %+v", ipo)
	}
	if !l.Cash().Equal(decimal.NewFromInt(1_000)) {
		t.Errorf("zero-amount events moved cash: %s", l.Cash())
	}
}

func TestBuyBond(t *testing.T) {
	s, l := newService(10_000)

	txn, err := s.BuyBond("7.54% GS 2036", decimal.RequireFromString("100.25"))
	if err != nil {
		t.Fatalf("BuyBond: %v", err)
	}
	if txn.Type != model.TxnBondBuy {
		t.Errorf("txn = %+v", txn)
	}
	if !l.Cash().Equal(decimal.RequireFromString("9899.75")) {
		t.Errorf("cash = %s, want 9899.75", l.Cash())
	}
}
