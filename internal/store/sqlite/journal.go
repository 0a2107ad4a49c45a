// Package sqlite is the desk's audit journal: every executed order and
// ledger row is appended to a SQLite file so sessions can be inspected
// after the fact. The journal is write-mostly and never read back into the
// account — the in-memory ledger is the sole source of truth, and a fresh
// process always starts a fresh account.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"papertrade-systemv1/internal/metrics"
	"papertrade-systemv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// JournalConfig configures the audit journal.
type JournalConfig struct {
	DBPath  string           // e.g. "data/desk.db"
	Metrics *metrics.Metrics // optional
}

// Journal appends orders and transactions to SQLite.
type Journal struct {
	db   *sql.DB
	prom *metrics.Metrics
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// NewJournal opens the database in WAL mode and creates the schema.
func NewJournal(cfg JournalConfig) (*Journal, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer keeps WAL contention away.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] journal opened at %s", cfg.DBPath)
	return &Journal{db: db, prom: cfg.Metrics}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id  TEXT    NOT NULL,
			session   INTEGER NOT NULL,
			symbol    TEXT    NOT NULL,
			side      TEXT    NOT NULL,
			product   TEXT    NOT NULL,
			variety   TEXT    NOT NULL,
			qty       INTEGER NOT NULL,
			price     TEXT    NOT NULL,
			status    TEXT    NOT NULL,
			placed_at INTEGER NOT NULL,
			PRIMARY KEY (session, order_id)
		);

		CREATE TABLE IF NOT EXISTS transactions (
			txn_id  INTEGER NOT NULL,
			session INTEGER NOT NULL,
			ts      INTEGER NOT NULL,
			type    TEXT    NOT NULL,
			descr   TEXT    NOT NULL,
			amount  TEXT    NOT NULL,
			balance TEXT    NOT NULL,
			PRIMARY KEY (session, txn_id)
		);
	`)
	return err
}

// session tags rows so a restarted desk (fresh PAPER-1 sequence) never
// collides with an earlier run in the same file.
func sessionID(t time.Time) int64 { return t.Unix() }

var session = sessionID(time.Now())

// RecordOrder appends an executed order.
func (j *Journal) RecordOrder(order model.Order) error {
	start := time.Now()
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO orders (order_id, session, symbol, side, product, variety, qty, price, status, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, order.OrderID, session, order.Symbol, string(order.Side), string(order.Product),
		order.Variety, order.Qty, order.Price.String(), order.Status, order.PlacedAt.Unix())

	j.observe(start, err)
	return err
}

// RecordTransaction appends a ledger row.
func (j *Journal) RecordTransaction(txn model.Transaction) error {
	start := time.Now()
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO transactions (txn_id, session, ts, type, descr, amount, balance)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, session, txn.Time.Unix(), string(txn.Type), txn.Desc,
		txn.Amount.String(), txn.Balance.String())

	j.observe(start, err)
	return err
}

func (j *Journal) observe(start time.Time, err error) {
	if j.prom == nil {
		return
	}
	j.prom.SQLiteCommitDur.Observe(time.Since(start).Seconds())
	if err != nil {
		j.prom.JournalErrors.Inc()
	}
}

// RecentOrders returns the latest n journaled orders across sessions,
// newest first. Inspection only; nothing in the trading path reads this.
func (j *Journal) RecentOrders(ctx context.Context, n int) ([]model.Order, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT order_id, symbol, side, product, variety, qty, price, status, placed_at
		FROM orders ORDER BY placed_at DESC, order_id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite query orders: %w", err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		var side, product, price string
		var placed int64
		if err := rows.Scan(&o.OrderID, &o.Symbol, &side, &product, &o.Variety,
			&o.Qty, &price, &o.Status, &placed); err != nil {
			return nil, fmt.Errorf("sqlite scan order: %w", err)
		}
		o.Side = model.Side(side)
		o.Product = model.Product(product)
		o.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("decode journaled price %q: %w", price, err)
		}
		o.PlacedAt = time.Unix(placed, 0).UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
