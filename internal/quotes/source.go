// Package quotes provides reference-price lookup for the desk. The ledger
// engine treats a Source as an opaque price function; concrete sources are
// the live WebSocket feed (wsfeed), the Redis last-price cache, and the
// static reference table.
package quotes

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned when a source has no positive, finite
// price for a symbol.
var ErrPriceUnavailable = errors.New("price unavailable")

// Source resolves the current reference price for a symbol. Implementations
// must return a positive value or ErrPriceUnavailable.
type Source interface {
	Get(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Fallback chains sources: the first positive price wins. A source error
// falls through to the next source; only when every source fails is
// ErrPriceUnavailable returned.
type Fallback struct {
	sources []Source
}

// NewFallback builds a fallback chain. Nil sources are skipped so callers
// can pass optional backends directly.
func NewFallback(sources ...Source) *Fallback {
	f := &Fallback{}
	for _, s := range sources {
		if s != nil {
			f.sources = append(f.sources, s)
		}
	}
	return f
}

func (f *Fallback) Get(ctx context.Context, symbol string) (decimal.Decimal, error) {
	for _, s := range f.sources {
		if ctx.Err() != nil {
			return decimal.Zero, ctx.Err()
		}
		price, err := s.Get(ctx, symbol)
		if err == nil && price.IsPositive() {
			return price, nil
		}
	}
	return decimal.Zero, ErrPriceUnavailable
}
