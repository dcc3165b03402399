// Package tables defines the named tables of the ledger store: their ordered
// column schemas, the row representation shared by every backend, and the
// pure column-reconciliation step applied on each read.
package tables

import "strings"

// Row holds one table row with values aligned to a Schema's column order.
type Row []string

// Schema names a table and fixes its ordered columns. Every read and write
// goes through a Schema; stores never see loose column sets.
type Schema struct {
	Table   string
	Columns []string
}

var (
	Ledger = Schema{
		Table:   "ledger",
		Columns: []string{"id", "date", "type", "category", "amount", "memo", "fixed_key", "user"},
	}

	BudgetsMonthly = Schema{
		Table:   "budgets_monthly",
		Columns: []string{"year", "month", "category", "budget"},
	}

	FixedExpenses = Schema{
		Table:   "fixed_expenses",
		Columns: []string{"fixed_id", "name", "amount", "day", "memo"},
	}

	Events = Schema{
		Table:   "events",
		Columns: []string{"id", "date", "type", "amount", "memo", "user"},
	}

	Zeropay = Schema{
		Table:   "zeropay",
		Columns: []string{"id", "date", "type", "amount", "memo", "user"},
	}

	Cards = Schema{
		Table:   "cards",
		Columns: []string{"card_name", "benefits"},
	}

	CardSubscriptions = Schema{
		Table:   "card_subscriptions",
		Columns: []string{"card_name", "merchant", "amount", "day", "memo"},
	}
)

// All lists every schema the application persists, used by backends that
// bootstrap storage up front.
func All() []Schema {
	return []Schema{Ledger, BudgetsMonthly, FixedExpenses, Events, Zeropay, Cards, CardSubscriptions}
}

// Key identifies a (table, schema) pair for cache lookups.
func (s Schema) Key() string {
	return s.Table + "|" + strings.Join(s.Columns, ",")
}

// Index returns the position of a column, or -1 when the schema lacks it.
func (s Schema) Index(column string) int {
	for i, c := range s.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Get reads a column value from a row by name; missing columns read as "".
func (s Schema) Get(row Row, column string) string {
	i := s.Index(column)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Reconcile maps raw stored rows under an arbitrary header onto the schema's
// column order: known columns are preserved, missing ones default to empty,
// unknown ones are dropped. The stored row order is kept as-is.
func Reconcile(header []string, raw [][]string, s Schema) []Row {
	pos := make([]int, len(s.Columns))
	for i, col := range s.Columns {
		pos[i] = -1
		for j, h := range header {
			if strings.TrimSpace(h) == col {
				pos[i] = j
				break
			}
		}
	}

	out := make([]Row, 0, len(raw))
	for _, rec := range raw {
		row := make(Row, len(s.Columns))
		for i, j := range pos {
			if j >= 0 && j < len(rec) {
				row[i] = rec[j]
			}
		}
		out = append(out, row)
	}
	return out
}
