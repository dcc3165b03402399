// Package sqlitestore backs the table store with a local SQLite database,
// one SQL table per ledger table. All columns are TEXT: SQLite is just
// another tabular backend here, holding the same string rows as the CSV and
// spreadsheet variants.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ledgerbook/internal/store"
	"ledgerbook/internal/tables"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ store.TableStore = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ReadTable(ctx context.Context, sc tables.Schema) ([]tables.Row, error) {
	if err := s.ensure(ctx, sc); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s ORDER BY rowid`, quote(sc.Table)))
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", sc.Table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", sc.Table, err)
	}

	var raw [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(header))
		dest := make([]any, len(header))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", sc.Table, err)
		}
		rec := make([]string, len(header))
		for i, c := range cells {
			rec[i] = c.String
		}
		raw = append(raw, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", sc.Table, err)
	}
	return tables.Reconcile(header, raw, sc), nil
}

func (s *Store) WriteTable(ctx context.Context, sc tables.Schema, rows []tables.Row) error {
	if err := s.ensure(ctx, sc); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rewrite of %s: %w", sc.Table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, quote(sc.Table))); err != nil {
		return fmt.Errorf("clear table %s: %w", sc.Table, err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(sc))
	if err != nil {
		return fmt.Errorf("prepare insert for %s: %w", sc.Table, err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, args(sc, r)...); err != nil {
			return fmt.Errorf("insert into %s: %w", sc.Table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rewrite of %s: %w", sc.Table, err)
	}
	return nil
}

func (s *Store) AppendRow(ctx context.Context, sc tables.Schema, row tables.Row) error {
	if err := s.ensure(ctx, sc); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertSQL(sc), args(sc, row)...); err != nil {
		return fmt.Errorf("append to %s: %w", sc.Table, err)
	}
	return nil
}

// ensure guards against tables the migrations do not know about yet.
func (s *Store) ensure(ctx context.Context, sc tables.Schema) error {
	cols := make([]string, len(sc.Columns))
	for i, c := range sc.Columns {
		cols[i] = quote(c) + " TEXT NOT NULL DEFAULT ''"
	}
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`, quote(sc.Table), strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure table %s: %w", sc.Table, err)
	}
	return nil
}

func insertSQL(sc tables.Schema) string {
	cols := make([]string, len(sc.Columns))
	marks := make([]string, len(sc.Columns))
	for i, c := range sc.Columns {
		cols[i] = quote(c)
		marks[i] = "?"
	}
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quote(sc.Table), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func args(sc tables.Schema, row tables.Row) []any {
	out := make([]any, len(sc.Columns))
	for i := range sc.Columns {
		if i < len(row) {
			out[i] = row[i]
		} else {
			out[i] = ""
		}
	}
	return out
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
