package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnType classifies a ledger entry.
type TxnType string

const (
	TxnSystem    TxnType = "SYSTEM"
	TxnDeposit   TxnType = "DEPOSIT"
	TxnBasketBuy TxnType = "BASKET_BUY"
	TxnSIPStart  TxnType = "SIP_START"
	TxnIPOApply  TxnType = "IPO_APP"
	TxnBondBuy   TxnType = "BOND_BUY"
)

// Transaction is one row of the cash ledger: a cash-affecting or
// informational event with the running balance after the event. IDs are
// assigned from a monotonically increasing sequence; the ledger itself is
// append-only.
//
// Order placement deliberately does not produce ledger rows — trading cash
// moves are implicit in the balance, and the ledger is reserved for deposits
// and investment-product events.
type Transaction struct {
	ID      int64           `json:"id"`
	Time    time.Time       `json:"time"`
	Type    TxnType         `json:"type"`
	Desc    string          `json:"desc"`
	Amount  decimal.Decimal `json:"amount"` // signed: debits are negative
	Balance decimal.Decimal `json:"bal"`    // cash balance after the event
}
