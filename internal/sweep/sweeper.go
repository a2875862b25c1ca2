// Package sweep runs the background expiry task. It is the only place
// expired records are physically removed; the resolve path tombstones
// them at read time, so a missed or late sweep is never a correctness
// problem.
package sweep

import (
	"context"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/storydrop/internal/db"
	"github.com/hpungsan/storydrop/internal/ops"
)

// Sweeper periodically deletes expired records. It never runs on a
// request path and never takes the process down with it.
type Sweeper struct {
	store    *db.Store
	interval time.Duration

	// Whole-sweep retry policy, on top of the store's own busy retries.
	attempts int
	backoff  time.Duration
}

// New creates a sweeper that runs once immediately and then every
// interval.
func New(store *db.Store, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		attempts: 3,
		backoff:  2 * time.Second,
	}
}

// Run blocks until ctx is canceled. Callers start it in its own
// goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// sweepOnce runs one sweep, retrying the whole sweep a bounded number of
// times if the store's internal retries were exhausted. Failure here is
// logged and abandoned until the next tick.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sweep panic recovered: %v", r)
		}
	}()

	runID := ulid.Make().String()

	for attempt := 1; attempt <= s.attempts; attempt++ {
		out, err := ops.Sweep(ctx, s.store)
		if err == nil {
			log.Printf("sweep %s: removed %d expired stories", runID, out.Removed)
			return
		}

		log.Printf("sweep %s: attempt %d/%d failed: %v", runID, attempt, s.attempts, err)
		if attempt == s.attempts {
			return
		}
		select {
		case <-time.After(time.Duration(attempt) * s.backoff):
		case <-ctx.Done():
			return
		}
	}
}
