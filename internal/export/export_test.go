package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/store/memory"
)

func TestWriteMonth(t *testing.T) {
	ctx := context.Background()
	svc := ledger.NewService(memory.New(), core.DefaultCategories())

	if _, err := svc.AddEntry(ctx, core.LedgerEntry{
		Date: core.NewDate(2025, 2, 10), Type: core.Expense,
		Category: "Groceries", Amount: 30000, Memo: "weekly shop", User: "me",
	}); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveBudgetMonth(ctx, 2025, 2, []core.BudgetEntry{
		{Category: "Groceries", Budget: 50000},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReplaceFixedExpenses(ctx, []core.FixedExpenseRule{
		{Name: "Rent", Amount: 800000, Day: 31},
	}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := New(svc).WriteMonth(ctx, &buf, 2025, 2); err != nil {
		t.Fatalf("WriteMonth: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Ledger", "Budget", "Fixed Expenses"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("missing sheet %q (idx %d, err %v)", sheet, idx, err)
		}
	}

	if got, err := f.GetCellValue("Ledger", "E2"); err != nil || got != "weekly shop" {
		t.Errorf("ledger memo = %q, err %v", got, err)
	}
	if got, err := f.GetCellValue("Budget", "A2"); err != nil || got != "Groceries" {
		t.Errorf("budget category = %q, err %v", got, err)
	}
	if got, err := f.GetCellValue("Fixed Expenses", "A2"); err != nil || got != "Rent" {
		t.Errorf("fixed name = %q, err %v", got, err)
	}
}
