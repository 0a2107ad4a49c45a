// Package squareoff runs the session scheduler that force-closes every
// intraday position at the broker cutoff (3:20 PM IST on trading days).
package squareoff

import (
	"context"
	"log"
	"time"

	"papertrade-systemv1/internal/markethours"
	"papertrade-systemv1/internal/model"
)

// Closer is the ledger operation the scheduler drives.
type Closer interface {
	SquareOffAll(ctx context.Context) []model.Order
}

// Scheduler sleeps until each cutoff and triggers the close.
type Scheduler struct {
	closer Closer
	now    func() time.Time

	// NextAt is overridable for tests. Defaults to markethours.NextSquareOff.
	NextAt func(time.Time) time.Time
}

// New creates a scheduler over the given closer.
func New(c Closer) *Scheduler {
	return &Scheduler{
		closer: c,
		now:    time.Now,
		NextAt: markethours.NextSquareOff,
	}
}

// Run blocks until ctx is cancelled, firing SquareOffAll at every cutoff.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		now := s.now()
		next := s.NextAt(now)
		wait := next.Sub(now)
		log.Printf("[squareoff] next auto square-off at %s (in %s)",
			next.Format("Mon 15:04 MST"), wait.Truncate(time.Second))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		closed := s.closer.SquareOffAll(ctx)
		if len(closed) > 0 {
			log.Printf("[squareoff] session cutoff: closed %d intraday positions", len(closed))
		} else {
			log.Printf("[squareoff] session cutoff: no open intraday positions")
		}

		// Step past the cutoff so NextAt moves to the next trading day.
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Minute):
		}
	}
}
