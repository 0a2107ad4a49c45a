package ledger

import (
	"fmt"
	"time"

	"papertrade-systemv1/internal/model"

	"github.com/shopspring/decimal"
)

// Account is the single paper-trading account aggregate: cash, delivery
// holdings, intraday positions, the order log and the cash ledger. It lives
// for the process lifetime only and is never persisted or restored — a
// restart starts a fresh account.
//
// Account is not safe for concurrent use; Service serialises access to it.
type Account struct {
	Cash         decimal.Decimal
	Holdings     map[string]*model.Holding  // keyed by symbol, removed at qty 0
	Positions    map[string]*model.Position // keyed by symbol, flat entries retained
	Orders       []model.Order
	Transactions []model.Transaction

	txnSeq   int64
	orderSeq int64
}

// NewAccount opens an account with the given balance and seeds the ledger
// the way a fresh demo account is provisioned: a SYSTEM row for the account
// opening followed by the opening deposit.
func NewAccount(openingBalance decimal.Decimal, now time.Time) *Account {
	a := &Account{
		Cash:      decimal.Zero,
		Holdings:  make(map[string]*model.Holding),
		Positions: make(map[string]*model.Position),
	}
	a.appendTxn(model.TxnSystem, "Account Opened", decimal.Zero, now)
	if openingBalance.IsPositive() {
		a.Cash = openingBalance
		a.appendTxn(model.TxnDeposit, "Welcome Bonus Funds", openingBalance, now)
	}
	return a
}

// appendTxn records a ledger row with the running balance after the event.
func (a *Account) appendTxn(typ model.TxnType, desc string, amount decimal.Decimal, now time.Time) model.Transaction {
	a.txnSeq++
	txn := model.Transaction{
		ID:      a.txnSeq,
		Time:    now,
		Type:    typ,
		Desc:    desc,
		Amount:  amount,
		Balance: a.Cash,
	}
	a.Transactions = append(a.Transactions, txn)
	return txn
}

// nextOrderID issues a sequential paper order id.
func (a *Account) nextOrderID() string {
	a.orderSeq++
	return fmt.Sprintf("PAPER-%d", a.orderSeq)
}
