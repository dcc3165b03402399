package store

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"ledgerbook/internal/tables"
)

const (
	defaultMaxAttempts = 6
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 8 * time.Second
)

// Retrier decorates a TableStore with bounded retry on transient failures:
// exponential backoff with random jitter, capped per attempt, fixed attempt
// budget. Fatal errors pass through untouched on the first attempt.
type Retrier struct {
	next        TableStore
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps next with the default retry budget.
func WithRetry(next TableStore) *Retrier {
	return &Retrier{
		next:        next,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
		sleep:       sleepCtx,
	}
}

func (r *Retrier) ReadTable(ctx context.Context, sc tables.Schema) ([]tables.Row, error) {
	var rows []tables.Row
	err := r.do(ctx, "read", sc.Table, func() error {
		var err error
		rows, err = r.next.ReadTable(ctx, sc)
		return err
	})
	return rows, err
}

func (r *Retrier) WriteTable(ctx context.Context, sc tables.Schema, rows []tables.Row) error {
	return r.do(ctx, "write", sc.Table, func() error {
		return r.next.WriteTable(ctx, sc, rows)
	})
}

func (r *Retrier) AppendRow(ctx context.Context, sc tables.Schema, row tables.Row) error {
	return r.do(ctx, "append", sc.Table, func() error {
		return r.next.AppendRow(ctx, sc, row)
	})
}

func (r *Retrier) do(ctx context.Context, op, table string, fn func() error) error {
	var err error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.backoff(attempt)
			slog.WarnContext(ctx, "Retrying store operation",
				"operation", op,
				"table", table,
				"attempt", attempt+1,
				"max_attempts", r.maxAttempts,
				"delay", delay,
				"error", err)
			if serr := r.sleep(ctx, delay); serr != nil {
				return serr
			}
		}
		err = fn()
		if err == nil || !IsTransient(err) {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrStoreUnavailable, r.maxAttempts, err)
}

// backoff computes min(maxDelay, baseDelay·2^(attempt-1)) plus jitter of up
// to a quarter of the base delay.
func (r *Retrier) backoff(attempt int) time.Duration {
	d := r.baseDelay << (attempt - 1)
	if d > r.maxDelay || d <= 0 {
		d = r.maxDelay
	}
	return d + time.Duration(rand.Int63n(int64(r.baseDelay)/4+1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
