package db

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hpungsan/storydrop/internal/errors"
)

// Write retry policy. SQLite allows one writer at a time; under WAL the
// only contention left is writer/writer, so a busy failure here is rare
// and short-lived. Reads are not retried.
const (
	retryAttempts  = 3
	retryBaseDelay = 25 * time.Millisecond
)

// isBusyError checks if the error is SQLite's transient lock-contention
// failure (SQLITE_BUSY / SQLITE_LOCKED).
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}

// withBusyRetry runs op, retrying only on busy errors: a bounded number
// of attempts with a growing, jittered delay between them. Exhaustion
// surfaces as a BUSY error so callers know the operation is retryable;
// every other failure from op passes through untouched on the attempt
// that produced it.
func withBusyRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		err = op()
		if err == nil || !isBusyError(err) {
			return err
		}
		if attempt == retryAttempts {
			break
		}
		delay := time.Duration(attempt)*retryBaseDelay + rand.N(retryBaseDelay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return errors.NewBusy(ctx.Err())
		}
	}
	return errors.NewBusy(err)
}
