package ledger

import "errors"

// Sentinel error kinds for engine operations. All are recoverable at the
// call boundary: validation happens before any mutation (check-then-act),
// so a returned error always means the ledger is untouched.
var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInsufficientMargin   = errors.New("insufficient margin")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrPositionNotFound     = errors.New("position not found")
	ErrValidation           = errors.New("validation failed")
)
