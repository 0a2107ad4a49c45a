// Package invest executes investment-product actions (baskets, SIPs, IPO
// applications, bonds) against the cash ledger. Products come from the
// static market catalogs; only the cash movement and the ledger rows are
// simulated.
package invest

import (
	"errors"
	"fmt"
	"log"

	"papertrade-systemv1/internal/ledger"
	"papertrade-systemv1/internal/market"
	"papertrade-systemv1/internal/model"

	"github.com/shopspring/decimal"
)

// ErrBasketNotFound is returned for an unknown basket id.
var ErrBasketNotFound = errors.New("basket not found")

// Service wraps the ledger with the product catalogs.
type Service struct {
	ledger *ledger.Service
}

// NewService returns an invest service over the given ledger.
func NewService(l *ledger.Service) *Service {
	return &Service{ledger: l}
}

// PlaceBasket invests the basket's minimum ticket. The debit and ledger row
// go through the engine, so the funds check is the same one orders use.
func (s *Service) PlaceBasket(basketID string) (market.Basket, error) {
	b, ok := market.BasketByID(basketID)
	if !ok {
		return market.Basket{}, fmt.Errorf("%w: %s", ErrBasketNotFound, basketID)
	}
	_, err := s.ledger.Purchase(model.TxnBasketBuy,
		fmt.Sprintf("Bought Basket: %s", b.Name),
		decimal.NewFromInt(b.MinAmount))
	if err != nil {
		return market.Basket{}, err
	}
	log.Printf("[invest] basket %s (%s) bought for %d", b.ID, b.Name, b.MinAmount)
	return b, nil
}

// StartSIP records a SIP start for the named fund. No cash moves; the first
// installment would be debited on its own schedule.
func (s *Service) StartSIP(fundName string) model.Transaction {
	return s.ledger.RecordEvent(model.TxnSIPStart, fmt.Sprintf("SIP started for %s", fundName))
}

// ApplyIPO records an IPO application. Application money is only blocked,
// not debited, so this is a zero-amount row too.
func (s *Service) ApplyIPO(name string) model.Transaction {
	return s.ledger.RecordEvent(model.TxnIPOApply, fmt.Sprintf("Applied for IPO: %s", name))
}

// BuyBond debits the bond price and records the purchase.
func (s *Service) BuyBond(name string, price decimal.Decimal) (model.Transaction, error) {
	return s.ledger.Purchase(model.TxnBondBuy, fmt.Sprintf("Purchased Bond: %s", name), price)
}
