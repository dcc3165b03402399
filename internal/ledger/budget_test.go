package ledger

import (
	"testing"

	"ledgerbook/internal/core"
)

func TestLoadBudgetMonthSynthesizesZeros(t *testing.T) {
	cats := core.DefaultCategories()
	all := []core.BudgetEntry{
		{Year: 2025, Month: 2, Category: "Groceries", Budget: 500000},
		{Year: 2025, Month: 1, Category: "Groceries", Budget: 999999}, // other month
	}

	got := LoadBudgetMonth(all, 2025, 2, cats)
	eligible := cats.BudgetEligible()
	if len(got) != len(eligible) {
		t.Fatalf("len = %d, want %d", len(got), len(eligible))
	}
	for i, b := range got {
		if b.Category != eligible[i] {
			t.Errorf("order[%d] = %q, want %q", i, b.Category, eligible[i])
		}
		if b.Year != 2025 || b.Month != 2 {
			t.Errorf("entry scoped wrong: %+v", b)
		}
	}
	if got[0].Budget != 500000 {
		t.Errorf("Groceries budget = %d", got[0].Budget)
	}
	if got[1].Budget != 0 {
		t.Errorf("unset category budget = %d, want 0", got[1].Budget)
	}
}

func TestMergeBudgetMonthPreservesOtherMonths(t *testing.T) {
	all := []core.BudgetEntry{
		{Year: 2025, Month: 1, Category: "Groceries", Budget: 100},
		{Year: 2025, Month: 2, Category: "Groceries", Budget: 200},
		{Year: 2025, Month: 2, Category: "Transport", Budget: 300},
	}
	updated := []core.BudgetEntry{
		{Year: 2025, Month: 2, Category: "Groceries", Budget: 250},
	}

	merged := MergeBudgetMonth(all, updated, 2025, 2)
	if len(merged) != 2 {
		t.Fatalf("len = %d, want 2", len(merged))
	}
	if merged[0].Month != 1 || merged[0].Budget != 100 {
		t.Errorf("january clobbered: %+v", merged[0])
	}
	if merged[1].Budget != 250 {
		t.Errorf("february not replaced: %+v", merged[1])
	}
}

func TestBuildReport(t *testing.T) {
	cats := core.DefaultCategories()
	entries := []core.LedgerEntry{
		{Date: core.NewDate(2025, 2, 10), Type: core.Expense, Category: "Groceries", Amount: 30000},
		{Date: core.NewDate(2025, 2, 12), Type: core.Expense, Category: "Groceries", Amount: 25000},
		{Date: core.NewDate(2025, 2, 5), Type: core.Expense, Category: "Fixed", Amount: 800000},  // not eligible
		{Date: core.NewDate(2025, 2, 1), Type: core.Income, Category: "Salary", Amount: 3000000}, // income ignored
		{Date: core.NewDate(2025, 3, 1), Type: core.Expense, Category: "Groceries", Amount: 9999}, // wrong month
	}
	budgets := []core.BudgetEntry{
		{Year: 2025, Month: 2, Category: "Groceries", Budget: 50000},
		{Year: 2025, Month: 2, Category: "Transport", Budget: 40000},
	}

	r := BuildReport(entries, budgets, 2025, 2, cats)
	if len(r.Lines) != len(cats.BudgetEligible()) {
		t.Fatalf("lines = %d", len(r.Lines))
	}

	byCat := make(map[string]BudgetLine)
	for _, l := range r.Lines {
		byCat[l.Category] = l
	}

	g := byCat["Groceries"]
	if g.Spent != 55000 || g.Diff != -5000 || g.Status != StatusOver {
		t.Errorf("groceries line = %+v", g)
	}
	tr := byCat["Transport"]
	if tr.Spent != 0 || tr.Diff != 40000 || tr.Status != StatusUnder {
		t.Errorf("transport line = %+v", tr)
	}
	if _, ok := byCat["Fixed"]; ok {
		t.Error("fixed category must not appear in report")
	}
	if r.TotalBudget != 90000 || r.TotalSpent != 55000 {
		t.Errorf("totals = %d/%d", r.TotalBudget, r.TotalSpent)
	}
}
