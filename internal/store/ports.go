// Package store defines the tabular-store port shared by every backend plus
// the retry and caching decorators layered on top of it.
package store

import (
	"context"

	"ledgerbook/internal/tables"
)

// TableStore is the uniform access port to named, schema'd tables. Backends
// (memory, CSV files, Google Sheets, SQLite) implement identical semantics:
//
//   - ReadTable returns every row reconciled to the schema's columns, in
//     stored order. A missing table is created empty.
//   - WriteTable replaces the whole table. Rows written by others since the
//     caller's last read are silently lost: last write wins, no merge. The
//     application accepts this hazard and adds no locking.
//   - AppendRow adds a single row without touching existing ones, so
//     concurrent appends never conflict.
type TableStore interface {
	ReadTable(ctx context.Context, sc tables.Schema) ([]tables.Row, error)
	WriteTable(ctx context.Context, sc tables.Schema, rows []tables.Row) error
	AppendRow(ctx context.Context, sc tables.Schema, row tables.Row) error
}
