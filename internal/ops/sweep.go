package ops

import (
	"context"
	"time"

	"github.com/hpungsan/storydrop/internal/db"
)

// SweepOutput contains the result of one expiry sweep.
type SweepOutput struct {
	Removed int64 `json:"removed"`
}

// Sweep deletes every record past its time-to-live. Records the sweep
// misses stay invisible anyway: resolve applies the same expiry
// predicate at read time.
func Sweep(ctx context.Context, store *db.Store) (*SweepOutput, error) {
	removed, err := store.DeleteExpired(ctx, time.Now().Unix())
	if err != nil {
		return nil, err
	}
	return &SweepOutput{Removed: removed}, nil
}
