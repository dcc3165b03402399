// Package memory holds tables in process memory. It is the default dev
// backend and the fixture for tests; semantics match the durable backends.
package memory

import (
	"context"
	"sync"

	"ledgerbook/internal/tables"
)

type table struct {
	header []string
	rows   [][]string
}

// Store keeps every table in a map guarded by one mutex.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
}

func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

// Seed installs raw rows under an explicit header, bypassing schema
// normalization. Tests use it to simulate drifted storage.
func (s *Store) Seed(name string, header []string, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = &table{header: append([]string(nil), header...), rows: rows}
}

func (s *Store) ReadTable(_ context.Context, sc tables.Schema) ([]tables.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ensure(sc)
	return tables.Reconcile(t.header, t.rows, sc), nil
}

func (s *Store) WriteTable(_ context.Context, sc tables.Schema, rows []tables.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw := make([][]string, len(rows))
	for i, r := range rows {
		raw[i] = append([]string(nil), r...)
	}
	s.tables[sc.Table] = &table{header: append([]string(nil), sc.Columns...), rows: raw}
	return nil
}

func (s *Store) AppendRow(_ context.Context, sc tables.Schema, row tables.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ensure(sc)
	// Align the appended row to the stored header so later reads reconcile it.
	aligned := make([]string, len(t.header))
	for i, col := range t.header {
		if j := sc.Index(col); j >= 0 && j < len(row) {
			aligned[i] = row[j]
		}
	}
	t.rows = append(t.rows, aligned)
	return nil
}

func (s *Store) ensure(sc tables.Schema) *table {
	t, ok := s.tables[sc.Table]
	if !ok {
		t = &table{header: append([]string(nil), sc.Columns...)}
		s.tables[sc.Table] = t
	}
	return t
}
