// Package csvfile backs the table store with one CSV file per table under a
// data directory. The first record of each file is the header row.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ledgerbook/internal/tables"
)

// Store reads and writes CSV table files. A single mutex serializes access
// within the process; cross-process writers are last-write-wins, same as the
// other backends. Local disk failures are fatal, never transient.
type Store struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(table string) string {
	return filepath.Join(s.dir, table+".csv")
}

func (s *Store) ReadTable(_ context.Context, sc tables.Schema) ([]tables.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readAll(sc)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []tables.Row{}, nil
	}
	return tables.Reconcile(recs[0], recs[1:], sc), nil
}

func (s *Store) WriteTable(_ context.Context, sc tables.Schema, rows []tables.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := make([][]string, 0, len(rows)+1)
	recs = append(recs, sc.Columns)
	for _, r := range rows {
		recs = append(recs, r)
	}
	return s.writeAll(sc.Table, recs)
}

func (s *Store) AppendRow(_ context.Context, sc tables.Schema, row tables.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The file's header may predate the current schema; align the row to it.
	recs, err := s.readAll(sc)
	if err != nil {
		return err
	}
	header := sc.Columns
	if len(recs) > 0 {
		header = recs[0]
	}
	aligned := make([]string, len(header))
	for i, col := range header {
		if j := sc.Index(col); j >= 0 && j < len(row) {
			aligned[i] = row[j]
		}
	}

	f, err := os.OpenFile(s.path(sc.Table), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open table %s: %w", sc.Table, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(aligned); err != nil {
		return fmt.Errorf("append to table %s: %w", sc.Table, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush table %s: %w", sc.Table, err)
	}
	return nil
}

// readAll returns every record including the header, creating the file with
// a schema header when it does not exist yet.
func (s *Store) readAll(sc tables.Schema) ([][]string, error) {
	f, err := os.Open(s.path(sc.Table))
	if os.IsNotExist(err) {
		if err := s.writeAll(sc.Table, [][]string{sc.Columns}); err != nil {
			return nil, err
		}
		return [][]string{sc.Columns}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", sc.Table, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate drifted rows; reconcile fixes widths
	recs, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", sc.Table, err)
	}
	return recs, nil
}

// writeAll replaces the file through a temp-file rename so a crashed write
// never leaves a half-written table behind.
func (s *Store) writeAll(table string, recs [][]string) error {
	tmp, err := os.CreateTemp(s.dir, table+"-*.csv")
	if err != nil {
		return fmt.Errorf("create temp for table %s: %w", table, err)
	}
	w := csv.NewWriter(tmp)
	if err := w.WriteAll(recs); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write table %s: %w", table, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close table %s: %w", table, err)
	}
	if err := os.Rename(tmp.Name(), s.path(table)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace table %s: %w", table, err)
	}
	return nil
}
