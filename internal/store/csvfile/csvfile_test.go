package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"ledgerbook/internal/tables"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestReadCreatesFileWithHeader(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	rows, err := s.ReadTable(ctx, tables.Cards)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty table, got %v", rows)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, "cards.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "card_name,benefits\n" {
		t.Fatalf("unexpected header file: %q", string(data))
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

func TestAppendThenRead(t *testing.T) {
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

func TestReadReconcilesForeignHeader(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// A file written by an older revision: different column order plus a
	// column the current schema dropped.
	raw := "benefits,stars,card_name\nlounge,5,visa\n"
	if err := os.WriteFile(filepath.Join(s.dir, "cards.csv"), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := s.ReadTable(ctx, tables.Cards)
	if err != nil {
		t.Fatal(err)
	}
	want := []tables.Row{{"visa", "lounge"}}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}

	// A rewrite normalizes the file back to the schema's column order.
	if err := s.WriteTable(ctx, tables.Cards, out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, "cards.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "card_name,benefits\nvisa,lounge\n" {
		t.Fatalf("unexpected normalized file: %q", string(data))
	}
}

func TestAppendAlignsToExistingHeader(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	raw := "benefits,card_name\nlounge,visa\n"
	if err := os.WriteFile(filepath.Join(s.dir, "cards.csv"), []byte(raw), 0o644); err != nil {
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
