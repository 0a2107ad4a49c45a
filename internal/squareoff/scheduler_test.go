package squareoff

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"papertrade-systemv1/internal/model"
)

type countingCloser struct {
	calls atomic.Int64
}

func (c *countingCloser) SquareOffAll(context.Context) []model.Order {
	c.calls.Add(1)
	return []model.Order{{OrderID: "PAPER-1"}}
}

func TestSchedulerFiresAtCutoff(t *testing.T) {
	closer := &countingCloser{}
	s := New(closer)
	s.NextAt = func(now time.Time) time.Time { return now.Add(10 * time.Millisecond) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for closer.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}

func TestSchedulerStopsBeforeFiring(t *testing.T) {
	closer := &countingCloser{}
	s := New(closer)
	s.NextAt = func(now time.Time) time.Time { return now.Add(time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
	if closer.calls.Load() != 0 {
		t.Errorf("closer fired %d times, want 0", closer.calls.Load())
	}
}
