package store

import (
	"context"
	"testing"
	"time"

	"ledgerbook/internal/tables"
)

// countingStore records how many times each operation reaches the backend.
type countingStore struct {
	reads, writes, appends int
	rows                   []tables.Row
}

func (s *countingStore) ReadTable(ctx context.Context, sc tables.Schema) ([]tables.Row, error) {
	s.reads++
	return s.rows, nil
}

func (s *countingStore) WriteTable(ctx context.Context, sc tables.Schema, rows []tables.Row) error {
	s.writes++
	s.rows = rows
	return nil
}

func (s *countingStore) AppendRow(ctx context.Context, sc tables.Schema, row tables.Row) error {
	s.appends++
	s.rows = append(s.rows, row)
	return nil
}

func TestCachedReadServedFromCache(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{rows: []tables.Row{{"visa", "lounge"}}}
	c := WithCache(backend, time.Minute)

	for i := 0; i < 3; i++ {
		rows, err := c.ReadTable(ctx, tables.Cards)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if len(rows) != 1 {
			t.Fatalf("read %d: expected 1 row, got %d", i, len(rows))
		}
	}
	if backend.reads != 1 {
		t.Fatalf("expected a single backend read, got %d", backend.reads)
	}
}

func TestWriteInvalidatesWholeCache(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{}
	c := WithCache(backend, time.Minute)

	// Prime caches for two different tables.
	if _, err := c.ReadTable(ctx, tables.Cards); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ReadTable(ctx, tables.Ledger); err != nil {
		t.Fatal(err)
	}
	if backend.reads != 2 {
		t.Fatalf("expected 2 primes, got %d", backend.reads)
	}

	// A write to one table purges every cached table.
	if err := c.WriteTable(ctx, tables.Cards, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ReadTable(ctx, tables.Ledger); err != nil {
		t.Fatal(err)
	}
	if backend.reads != 3 {
		t.Fatalf("expected ledger re-read after unrelated write, reads=%d", backend.reads)
	}
}

func TestAppendInvalidatesAndNotifies(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{}
	c := WithCache(backend, time.Minute)

	var gotTable, gotOp string
	c.OnMutation(func(table, op string) { gotTable, gotOp = table, op })

	if _, err := c.ReadTable(ctx, tables.Cards); err != nil {
		t.Fatal(err)
	}
	if err := c.AppendRow(ctx, tables.Cards, tables.Row{"visa", ""}); err != nil {
		t.Fatal(err)
	}
	if gotTable != "cards" || gotOp != "append" {
		t.Fatalf("unexpected mutation hook args: %q %q", gotTable, gotOp)
	}
	if _, err := c.ReadTable(ctx, tables.Cards); err != nil {
		t.Fatal(err)
	}
	if backend.reads != 2 {
		t.Fatalf("append should purge cache, reads=%d", backend.reads)
	}
}

func TestSweepDropsExpiredSnapshots(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{rows: []tables.Row{{"visa", "lounge"}}}
	c := WithCache(backend, 20*time.Millisecond)
	defer c.Close()

	if _, err := c.ReadTable(ctx, tables.Cards); err != nil {
		t.Fatal(err)
	}
	if c.cache.Size() != 1 {
		t.Fatalf("cache size = %d, want 1", c.cache.Size())
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.cache.Size() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expired snapshot never swept, cache size = %d", c.cache.Size())
		}
		time.Sleep(10 * time.Millisecond)
	}

	c.Close() // second close is a no-op
}

func TestRefreshPurges(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{}
	c := WithCache(backend, time.Minute)

	if _, err := c.ReadTable(ctx, tables.Cards); err != nil {
		t.Fatal(err)
	}
	c.Refresh()
	if _, err := c.ReadTable(ctx, tables.Cards); err != nil {
		t.Fatal(err)
	}
	if backend.reads != 2 {
		t.Fatalf("refresh should force a re-read, reads=%d", backend.reads)
	}
}

func TestCachedRowsAreIsolated(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{rows: []tables.Row{{"visa", "lounge"}}}
	c := WithCache(backend, time.Minute)

	rows, err := c.ReadTable(ctx, tables.Cards)
	if err != nil {
		t.Fatal(err)
	}
	rows[0][0] = "mutated"

	again, err := c.ReadTable(ctx, tables.Cards)
	if err != nil {
		t.Fatal(err)
	}
	if again[0][0] != "visa" {
		t.Fatalf("cache leaked caller mutation: %v", again[0])
	}
}
