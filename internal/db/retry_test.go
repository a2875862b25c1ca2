package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/hpungsan/storydrop/internal/errors"
)

var errLocked = fmt.Errorf("database is locked (5) (SQLITE_BUSY)")

func TestIsBusyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"locked", errLocked, true},
		{"busy code", fmt.Errorf("SQLITE_BUSY"), true},
		{"table locked", fmt.Errorf("database table is locked (6) (SQLITE_LOCKED)"), true},
		{"unique", fmt.Errorf("UNIQUE constraint failed: stories.id"), false},
		{"other", fmt.Errorf("disk I/O error"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isBusyError(tc.err); got != tc.want {
				t.Errorf("isBusyError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestWithBusyRetry_SucceedsAfterTransientBusy(t *testing.T) {
	calls := 0
	err := withBusyRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errLocked
		}
		return nil
	})

	if err != nil {
		t.Fatalf("withBusyRetry failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithBusyRetry_ExhaustionSurfacesBusy(t *testing.T) {
	calls := 0
	err := withBusyRetry(context.Background(), func() error {
		calls++
		return errLocked
	})

	if !errors.Is(err, errors.ErrBusy) {
		t.Fatalf("err = %v, want BUSY", err)
	}
	if calls != retryAttempts {
		t.Errorf("calls = %d, want %d", calls, retryAttempts)
	}
}

func TestWithBusyRetry_NonBusyErrorNotRetried(t *testing.T) {
	calls := 0
	permanent := errors.NewConflict("abc1234")
	err := withBusyRetry(context.Background(), func() error {
		calls++
		return permanent
	})

	if err != permanent {
		t.Errorf("err = %v, want the conflict passed through", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithBusyRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withBusyRetry(ctx, func() error {
		return errLocked
	})
	if !errors.Is(err, errors.ErrBusy) {
		t.Errorf("err = %v, want BUSY", err)
	}
}
