package sqlitestore

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"ledgerbook/internal/tables"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsCreateAllTables(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, sc := range tables.All() {
		rows, err := s.ReadTable(ctx, sc)
		if err != nil {
			t.Fatalf("read %s: %v", sc.Table, err)
		}
		if len(rows) != 0 {
			t.Fatalf("table %s should start empty", sc.Table)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	in := []tables.Row{
		{"e1", "2025-01-02", "expense", "Groceries", "32000", "market", "", "me"},
		{"e2", "2025-01-03", "income", "Salary", "2500000", "", "", "me"},
	}
	if err := s.WriteTable(ctx, tables.Ledger, in); err != nil {
		t.Fatal(err)
	}
	out, err := s.ReadTable(ctx, tables.Ledger)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("got %v, want %v", out, in)
	}
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if err := s.AppendRow(ctx, tables.Cards, tables.Row{"visa", "lounge"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRow(ctx, tables.Cards, tables.Row{"check", "cashback"}); err != nil {
		t.Fatal(err)
	}
	out, err := s.ReadTable(ctx, tables.Cards)
	if err != nil {
		t.Fatal(err)
	}
	want := []tables.Row{{"visa", "lounge"}, {"check", "cashback"}}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestRewriteReplacesEverything(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if err := s.WriteTable(ctx, tables.Cards, []tables.Row{{"visa", "lounge"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteTable(ctx, tables.Cards, []tables.Row{{"check", "cashback"}}); err != nil {
		t.Fatal(err)
	}
	out, err := s.ReadTable(ctx, tables.Cards)
	if err != nil {
		t.Fatal(err)
	}
	want := []tables.Row{{"check", "cashback"}}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}
