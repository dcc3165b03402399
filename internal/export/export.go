// Package export renders a month of the ledger as an xlsx workbook with
// ledger, budget and fixed-expense sheets.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
)

const (
	sheetLedger = "Ledger"
	sheetBudget = "Budget"
	sheetFixed  = "Fixed Expenses"
)

// Exporter builds workbooks from the ledger service.
type Exporter struct {
	svc *ledger.Service
}

func New(svc *ledger.Service) *Exporter {
	return &Exporter{svc: svc}
}

// WriteMonth fetches the month's data and writes a complete workbook to w.
func (x *Exporter) WriteMonth(ctx context.Context, w io.Writer, year, month int) error {
	var (
		entries []core.LedgerEntry
		report  ledger.BudgetReport
		rules   []core.FixedExpenseRule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = x.svc.ListMonth(gctx, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		report, err = x.svc.Report(gctx, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		rules, err = x.svc.ListFixedExpenses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("collect export data: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeLedgerSheet(f, entries); err != nil {
		return err
	}
	if err := writeBudgetSheet(f, report); err != nil {
		return err
	}
	if err := writeFixedSheet(f, rules); err != nil {
		return err
	}

	// The workbook starts with a default sheet; rename it away instead of
	// leaving an empty tab.
	if err := f.SetSheetName("Sheet1", sheetLedger); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func writeLedgerSheet(f *excelize.File, entries []core.LedgerEntry) error {
	// Sheet1 gets renamed to the ledger sheet at the end, so rows land there
	// directly.
	sheet := "Sheet1"
	if err := setHeader(f, sheet, []string{"Date", "Type", "Category", "Amount", "Memo", "User"}); err != nil {
		return fmt.Errorf("ledger sheet header: %w", err)
	}
	for i, e := range entries {
		vals := []interface{}{
			e.Date.String(), string(e.Type), e.Category, e.Amount, e.Memo, e.User,
		}
		if err := setRow(f, sheet, i+2, vals); err != nil {
			return fmt.Errorf("ledger sheet row %d: %w", i+2, err)
		}
	}
	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "C", "C", 15)
	f.SetColWidth(sheet, "E", "E", 30)
	return nil
}

func writeBudgetSheet(f *excelize.File, report ledger.BudgetReport) error {
	if _, err := f.NewSheet(sheetBudget); err != nil {
		return fmt.Errorf("create budget sheet: %w", err)
	}
	if err := setHeader(f, sheetBudget, []string{"Category", "Budget", "Spent", "Diff", "Status"}); err != nil {
		return fmt.Errorf("budget sheet header: %w", err)
	}
	for i, l := range report.Lines {
		vals := []interface{}{l.Category, l.Budget, l.Spent, l.Diff, l.Status}
		if err := setRow(f, sheetBudget, i+2, vals); err != nil {
			return fmt.Errorf("budget sheet row %d: %w", i+2, err)
		}
	}
	totalsRow := len(report.Lines) + 2
	vals := []interface{}{"Total", report.TotalBudget, report.TotalSpent, report.TotalBudget - report.TotalSpent, ""}
	if err := setRow(f, sheetBudget, totalsRow, vals); err != nil {
		return fmt.Errorf("budget totals row: %w", err)
	}
	f.SetColWidth(sheetBudget, "A", "A", 15)
	return nil
}

func writeFixedSheet(f *excelize.File, rules []core.FixedExpenseRule) error {
	if _, err := f.NewSheet(sheetFixed); err != nil {
		return fmt.Errorf("create fixed sheet: %w", err)
	}
	if err := setHeader(f, sheetFixed, []string{"Name", "Amount", "Day", "Memo"}); err != nil {
		return fmt.Errorf("fixed sheet header: %w", err)
	}
	for i, r := range rules {
		vals := []interface{}{r.Name, r.Amount, r.Day, r.Memo}
		if err := setRow(f, sheetFixed, i+2, vals); err != nil {
			return fmt.Errorf("fixed sheet row %d: %w", i+2, err)
		}
	}
	f.SetColWidth(sheetFixed, "A", "A", 20)
	f.SetColWidth(sheetFixed, "D", "D", 30)
	return nil
}
