package syncer

import (
	"context"
	"sync/atomic"
	"time"
)

// Syncer runs the reconciler on a fixed interval. Passes never overlap:
// a tick that fires while the previous pass is still running is skipped,
// not queued.
type Syncer struct {
	reconciler *Reconciler
	interval   time.Duration

	// onResult, when set, receives every completed pass's result.
	onResult func(Result)

	running atomic.Bool
}

// NewSyncer wraps the reconciler in a periodic loop.
func NewSyncer(r *Reconciler, interval time.Duration, onResult func(Result)) *Syncer {
	return &Syncer{
		reconciler: r,
		interval:   interval,
		onResult:   onResult,
	}
}

// Run performs one immediate pass and then ticks until ctx is cancelled.
// It returns ctx.Err() once the loop stops.
func (s *Syncer) Run(ctx context.Context) error {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one pass unless one is already in flight.
func (s *Syncer) tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.reconciler.logger.Debug().Msg("Previous pass still running, tick skipped")
		return
	}
	defer s.running.Store(false)

	result, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		return
	}
	if s.onResult != nil {
		s.onResult(result)
	}
}
