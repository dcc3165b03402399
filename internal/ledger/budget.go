package ledger

import (
	"ledgerbook/internal/core"
)

// BudgetLine is one category's budget/spent pair for a month.
type BudgetLine struct {
	Category string `json:"category"`
	Budget   int64  `json:"budget"`
	Spent    int64  `json:"spent"`
	Diff     int64  `json:"diff"`
	Status   string `json:"status"`
}

// BudgetReport aggregates a month's spending against its budgets.
type BudgetReport struct {
	Year        int          `json:"year"`
	Month       int          `json:"month"`
	Lines       []BudgetLine `json:"lines"`
	TotalBudget int64        `json:"total_budget"`
	TotalSpent  int64        `json:"total_spent"`
}

const (
	StatusUnder = "under"
	StatusOver  = "over"
)

// LoadBudgetMonth extracts the budgets for (year, month) from the full budget
// table, synthesizing a zero entry for every eligible category that has no
// stored row. The result follows the canonical category order, so callers can
// render it directly.
func LoadBudgetMonth(all []core.BudgetEntry, year, month int, cats core.Categories) []core.BudgetEntry {
	stored := make(map[string]int64)
	for _, b := range all {
		if b.Year == year && b.Month == month {
			stored[b.Category] = b.Budget
		}
	}

	eligible := cats.BudgetEligible()
	out := make([]core.BudgetEntry, 0, len(eligible))
	for _, c := range eligible {
		out = append(out, core.BudgetEntry{
			Year:     year,
			Month:    month,
			Category: c,
			Budget:   stored[c],
		})
	}
	return out
}

// MergeBudgetMonth replaces the (year, month) slice of the budget table with
// the given entries, leaving every other month untouched. The result is the
// full table to write back.
func MergeBudgetMonth(all, updated []core.BudgetEntry, year, month int) []core.BudgetEntry {
	merged := make([]core.BudgetEntry, 0, len(all)+len(updated))
	for _, b := range all {
		if b.Year == year && b.Month == month {
			continue
		}
		merged = append(merged, b)
	}
	merged = append(merged, updated...)
	return merged
}

// BuildReport computes per-category spending for the month and pairs it with
// the budgets. Only expense entries in budget-eligible categories count;
// income and out-of-month entries are ignored. Categories outside the
// eligible set (including the fixed and lump-sum buckets) never appear.
func BuildReport(entries []core.LedgerEntry, budgets []core.BudgetEntry, year, month int, cats core.Categories) BudgetReport {
	spent := make(map[string]int64)
	for _, e := range entries {
		if e.Type != core.Expense || !e.Date.InMonth(year, month) {
			continue
		}
		if !cats.IsBudgetEligible(e.Category) {
			continue
		}
		spent[e.Category] += e.Amount
	}

	budget := make(map[string]int64)
	for _, b := range budgets {
		if b.Year == year && b.Month == month {
			budget[b.Category] = b.Budget
		}
	}

	report := BudgetReport{Year: year, Month: month}
	for _, c := range cats.BudgetEligible() {
		line := BudgetLine{
			Category: c,
			Budget:   budget[c],
			Spent:    spent[c],
		}
		line.Diff = line.Budget - line.Spent
		if line.Diff < 0 {
			line.Status = StatusOver
		} else {
			line.Status = StatusUnder
		}
		report.Lines = append(report.Lines, line)
		report.TotalBudget += line.Budget
		report.TotalSpent += line.Spent
	}
	return report
}
