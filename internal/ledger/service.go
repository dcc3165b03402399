package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ledgerbook/internal/core"
	"ledgerbook/internal/store"
	"ledgerbook/internal/tables"
)

var (
	// ErrNotFound reports a lookup by id that matched nothing.
	ErrNotFound = errors.New("entry not found")

	// ErrIneligibleCategory reports a budget write for a category outside the
	// budget-eligible set.
	ErrIneligibleCategory = errors.New("category not budget-eligible")
)

// Service orchestrates every ledger operation on top of the table store.
// Updates and deletes go through read-modify-write of the whole table; the
// store's documented last-write-wins behavior applies.
type Service struct {
	store store.TableStore
	cats  core.Categories
	newID func() string
}

func NewService(st store.TableStore, cats core.Categories) *Service {
	return &Service{
		store: st,
		cats:  cats,
		newID: uuid.NewString,
	}
}

// Categories exposes the configured taxonomy for handlers and exports.
func (s *Service) Categories() core.Categories {
	return s.cats
}

func (s *Service) readLedger(ctx context.Context) ([]core.LedgerEntry, error) {
	rows, err := s.store.ReadTable(ctx, tables.Ledger)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	entries := make([]core.LedgerEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, tables.LedgerEntryFromRow(r))
	}
	return entries, nil
}

func (s *Service) writeLedger(ctx context.Context, entries []core.LedgerEntry) error {
	rows := make([]tables.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, tables.LedgerEntryRow(e))
	}
	if err := s.store.WriteTable(ctx, tables.Ledger, rows); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// ListMonth returns the ledger entries dated inside (year, month), in stored
// order.
func (s *Service) ListMonth(ctx context.Context, year, month int) ([]core.LedgerEntry, error) {
	entries, err := s.readLedger(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.Date.InMonth(year, month) {
			out = append(out, e)
		}
	}
	return out, nil
}

// MonthTotals sums entries by type. Entries of neither type (malformed rows
// the codec let through) count toward neither total.
func MonthTotals(entries []core.LedgerEntry) (income, expense int64) {
	for _, e := range entries {
		switch e.Type {
		case core.Income:
			income += e.Amount
		case core.Expense:
			expense += e.Amount
		}
	}
	return income, expense
}

// AddEntry validates and appends a manual ledger entry. A fresh id is always
// assigned and any caller-supplied fixed_key is discarded; only the
// materializer mints those.
func (s *Service) AddEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	e.ID = s.newID()
	e.FixedKey = ""
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}
	if err := s.store.AppendRow(ctx, tables.Ledger, tables.LedgerEntryRow(e)); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("append ledger entry: %w", err)
	}
	return e, nil
}

// UpdateEntry replaces the entry with e.ID. The fixed_key of the stored entry
// survives the update so materialized entries stay idempotency-tracked even
// after manual edits.
func (s *Service) UpdateEntry(ctx context.Context, e core.LedgerEntry) error {
	entries, err := s.readLedger(ctx)
	if err != nil {
		return err
	}
	for i, cur := range entries {
		if cur.ID != e.ID {
			continue
		}
		e.FixedKey = cur.FixedKey
		if err := e.Validate(); err != nil {
			return err
		}
		entries[i] = e
		return s.writeLedger(ctx, entries)
	}
	return fmt.Errorf("update %s: %w", e.ID, ErrNotFound)
}

// DeleteEntry removes the entry with the given id. Deleting a materialized
// entry also frees its fixed_key, so a later materializer run will recreate
// it; that is intended behavior, not a bug.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	entries, err := s.readLedger(ctx)
	if err != nil {
		return err
	}
	for i, cur := range entries {
		if cur.ID != id {
			continue
		}
		entries = append(entries[:i], entries[i+1:]...)
		return s.writeLedger(ctx, entries)
	}
	return fmt.Errorf("delete %s: %w", id, ErrNotFound)
}

// ApplyFixedExpenses materializes the fixed-expense rules into (year, month)
// and reports how many entries were added. Running it again for the same
// month adds nothing.
func (s *Service) ApplyFixedExpenses(ctx context.Context, year, month int, user string) (int, error) {
	var (
		rules   []core.FixedExpenseRule
		entries []core.LedgerEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rules, err = s.ListFixedExpenses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.readLedger(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	added := MaterializeFixed(rules, entries, year, month, user, s.cats.Fixed, s.newID)
	if len(added) == 0 {
		return 0, nil
	}
	if err := s.writeLedger(ctx, append(entries, added...)); err != nil {
		return 0, err
	}
	return len(added), nil
}

// ApplyCardSubscriptions materializes the card-subscription rules into
// (year, month) the same way.
func (s *Service) ApplyCardSubscriptions(ctx context.Context, year, month int, user string) (int, error) {
	var (
		rules   []core.CardSubscriptionRule
		entries []core.LedgerEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rules, err = s.ListCardSubscriptions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.readLedger(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	added := MaterializeSubscriptions(rules, entries, year, month, user, s.cats.Fixed, s.newID)
	if len(added) == 0 {
		return 0, nil
	}
	if err := s.writeLedger(ctx, append(entries, added...)); err != nil {
		return 0, err
	}
	return len(added), nil
}

// BudgetMonth returns the configured budgets for (year, month), one entry per
// budget-eligible category, zero-filled where nothing is stored.
func (s *Service) BudgetMonth(ctx context.Context, year, month int) ([]core.BudgetEntry, error) {
	all, err := s.readBudgets(ctx)
	if err != nil {
		return nil, err
	}
	return LoadBudgetMonth(all, year, month, s.cats), nil
}

// SaveBudgetMonth replaces the budgets of (year, month) with the given
// entries, leaving other months intact. Categories outside the eligible set
// are rejected.
func (s *Service) SaveBudgetMonth(ctx context.Context, year, month int, budgets []core.BudgetEntry) error {
	for _, b := range budgets {
		if !s.cats.IsBudgetEligible(b.Category) {
			return fmt.Errorf("category %q: %w", b.Category, ErrIneligibleCategory)
		}
		if b.Budget < 0 {
			return fmt.Errorf("category %q: %w", b.Category, core.ErrInvalidAmount)
		}
	}

	all, err := s.readBudgets(ctx)
	if err != nil {
		return err
	}
	for i := range budgets {
		budgets[i].Year = year
		budgets[i].Month = month
	}
	merged := MergeBudgetMonth(all, budgets, year, month)

	rows := make([]tables.Row, 0, len(merged))
	for _, b := range merged {
		rows = append(rows, tables.BudgetEntryRow(b))
	}
	if err := s.store.WriteTable(ctx, tables.BudgetsMonthly, rows); err != nil {
		return fmt.Errorf("write budgets: %w", err)
	}
	return nil
}

// Report fetches budgets and ledger concurrently and builds the month's
// budget report.
func (s *Service) Report(ctx context.Context, year, month int) (BudgetReport, error) {
	var (
		entries []core.LedgerEntry
		budgets []core.BudgetEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.readLedger(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = s.readBudgets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return BudgetReport{}, err
	}
	return BuildReport(entries, budgets, year, month, s.cats), nil
}

func (s *Service) readBudgets(ctx context.Context) ([]core.BudgetEntry, error) {
	rows, err := s.store.ReadTable(ctx, tables.BudgetsMonthly)
	if err != nil {
		return nil, fmt.Errorf("read budgets: %w", err)
	}
	out := make([]core.BudgetEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, tables.BudgetEntryFromRow(r))
	}
	return out, nil
}

// ListFixedExpenses returns the configured fixed-expense rules.
func (s *Service) ListFixedExpenses(ctx context.Context) ([]core.FixedExpenseRule, error) {
	rows, err := s.store.ReadTable(ctx, tables.FixedExpenses)
	if err != nil {
		return nil, fmt.Errorf("read fixed expenses: %w", err)
	}
	out := make([]core.FixedExpenseRule, 0, len(rows))
	for _, r := range rows {
		out = append(out, tables.FixedExpenseRuleFromRow(r))
	}
	return out, nil
}

// ReplaceFixedExpenses saves the full rule set as edited. Rules that arrive
// with a fixed_id keep it; blank ids get a fresh one. Keeping ids stable is
// what ties already-materialized ledger entries to their rules across edits.
func (s *Service) ReplaceFixedExpenses(ctx context.Context, rules []core.FixedExpenseRule) ([]core.FixedExpenseRule, error) {
	rows := make([]tables.Row, 0, len(rules))
	for i := range rules {
		if strings.TrimSpace(rules[i].FixedID) == "" {
			rules[i].FixedID = s.newID()
		}
		rows = append(rows, tables.FixedExpenseRuleRow(rules[i]))
	}
	if err := s.store.WriteTable(ctx, tables.FixedExpenses, rows); err != nil {
		return nil, fmt.Errorf("write fixed expenses: %w", err)
	}
	return rules, nil
}

// ListCardSubscriptions returns the configured card-subscription rules.
func (s *Service) ListCardSubscriptions(ctx context.Context) ([]core.CardSubscriptionRule, error) {
	rows, err := s.store.ReadTable(ctx, tables.CardSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("read card subscriptions: %w", err)
	}
	out := make([]core.CardSubscriptionRule, 0, len(rows))
	for _, r := range rows {
		out = append(out, tables.CardSubscriptionRuleFromRow(r))
	}
	return out, nil
}

// ReplaceCardSubscriptions saves the full subscription set as edited.
func (s *Service) ReplaceCardSubscriptions(ctx context.Context, rules []core.CardSubscriptionRule) error {
	rows := make([]tables.Row, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, tables.CardSubscriptionRuleRow(r))
	}
	if err := s.store.WriteTable(ctx, tables.CardSubscriptions, rows); err != nil {
		return fmt.Errorf("write card subscriptions: %w", err)
	}
	return nil
}

// ListCardBenefits returns the stored card benefit reference rows.
func (s *Service) ListCardBenefits(ctx context.Context) ([]core.CardBenefit, error) {
	rows, err := s.store.ReadTable(ctx, tables.Cards)
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	out := make([]core.CardBenefit, 0, len(rows))
	for _, r := range rows {
		out = append(out, tables.CardBenefitFromRow(r))
	}
	return out, nil
}

// ReplaceCardBenefits saves the full benefit set as edited.
func (s *Service) ReplaceCardBenefits(ctx context.Context, benefits []core.CardBenefit) error {
	rows := make([]tables.Row, 0, len(benefits))
	for _, b := range benefits {
		rows = append(rows, tables.CardBenefitRow(b))
	}
	if err := s.store.WriteTable(ctx, tables.Cards, rows); err != nil {
		return fmt.Errorf("write cards: %w", err)
	}
	return nil
}

// logSchema maps a simple-log name to its table schema.
func logSchema(name string) (tables.Schema, error) {
	switch name {
	case tables.Events.Table:
		return tables.Events, nil
	case tables.Zeropay.Table:
		return tables.Zeropay, nil
	}
	return tables.Schema{}, fmt.Errorf("unknown log %q: %w", name, ErrNotFound)
}

// ListLogMonth returns the entries of a simple log (events, zeropay) for the
// month.
func (s *Service) ListLogMonth(ctx context.Context, log string, year, month int) ([]core.SimpleLogEntry, error) {
	sc, err := logSchema(log)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ReadTable(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sc.Table, err)
	}
	out := make([]core.SimpleLogEntry, 0, len(rows))
	for _, r := range rows {
		e := tables.SimpleLogEntryFromRow(r)
		if e.Date.InMonth(year, month) {
			out = append(out, e)
		}
	}
	return out, nil
}

// AddLogEntry appends an entry to a simple log.
func (s *Service) AddLogEntry(ctx context.Context, log string, e core.SimpleLogEntry) (core.SimpleLogEntry, error) {
	sc, err := logSchema(log)
	if err != nil {
		return core.SimpleLogEntry{}, err
	}
	e.ID = s.newID()
	if err := e.Validate(); err != nil {
		return core.SimpleLogEntry{}, err
	}
	if err := s.store.AppendRow(ctx, sc, tables.SimpleLogEntryRow(e)); err != nil {
		return core.SimpleLogEntry{}, fmt.Errorf("append %s entry: %w", sc.Table, err)
	}
	return e, nil
}

// DeleteLogEntry removes an entry from a simple log by id.
func (s *Service) DeleteLogEntry(ctx context.Context, log, id string) error {
	sc, err := logSchema(log)
	if err != nil {
		return err
	}
	rows, err := s.store.ReadTable(ctx, sc)
	if err != nil {
		return fmt.Errorf("read %s: %w", sc.Table, err)
	}
	for i, r := range rows {
		if sc.Get(r, "id") != id {
			continue
		}
		rows = append(rows[:i], rows[i+1:]...)
		if err := s.store.WriteTable(ctx, sc, rows); err != nil {
			return fmt.Errorf("write %s: %w", sc.Table, err)
		}
		return nil
	}
	return fmt.Errorf("delete %s from %s: %w", id, sc.Table, ErrNotFound)
}
