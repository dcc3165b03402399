package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledgerbook/internal/tables"
)

// flakyStore fails a configurable number of times before succeeding.
type flakyStore struct {
	failures int
	err      error
	calls    int
}

func (f *flakyStore) ReadTable(ctx context.Context, sc tables.Schema) ([]tables.Row, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []tables.Row{{"ok"}}, nil
}

func (f *flakyStore) WriteTable(ctx context.Context, sc tables.Schema, rows []tables.Row) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *flakyStore) AppendRow(ctx context.Context, sc tables.Schema, row tables.Row) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func newTestRetrier(next TableStore) *Retrier {
	r := WithRetry(next)
	r.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return r
}

func TestRetryRecoversFromTransient(t *testing.T) {
	fs := &flakyStore{failures: 2, err: Transient(errors.New("quota"))}
	r := newTestRetrier(fs)

	rows, err := r.ReadTable(context.Background(), tables.Cards)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected rows from the successful attempt")
	}
	if fs.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", fs.calls)
	}
}

func TestRetryExhaustsExactBudget(t *testing.T) {
	fs := &flakyStore{failures: 1 << 30, err: Transient(errors.New("quota"))}
	r := newTestRetrier(fs)

	err := r.WriteTable(context.Background(), tables.Cards, nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if fs.calls != defaultMaxAttempts {
		t.Fatalf("expected exactly %d attempts, got %d", defaultMaxAttempts, fs.calls)
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	// The original error stays reachable through the chain.
	if !IsTransient(err) {
		t.Fatalf("original transient error should still unwrap: %v", err)
	}
}

func TestFatalErrorNotRetried(t *testing.T) {
	fatal := errors.New("schema mismatch")
	fs := &flakyStore{failures: 1 << 30, err: fatal}
	r := newTestRetrier(fs)

	err := r.AppendRow(context.Background(), tables.Cards, tables.Row{"visa", ""})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected the fatal error back, got %v", err)
	}
	if fs.calls != 1 {
		t.Fatalf("fatal errors must not be retried, got %d calls", fs.calls)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	fs := &flakyStore{failures: 1 << 30, err: Transient(errors.New("quota"))}
	r := WithRetry(fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.ReadTable(ctx, tables.Cards)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fs.calls != 1 {
		t.Fatalf("expected a single attempt before cancellation, got %d", fs.calls)
	}
}

func TestBackoffCapped(t *testing.T) {
	r := WithRetry(nil)
	for attempt := 1; attempt < defaultMaxAttempts; attempt++ {
		d := r.backoff(attempt)
		if d > defaultMaxDelay+defaultBaseDelay/4 {
			t.Fatalf("attempt %d backoff %v exceeds cap", attempt, d)
		}
		if d <= 0 {
			t.Fatalf("attempt %d backoff must be positive", attempt)
		}
	}
}
