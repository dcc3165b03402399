package tables

import (
	"strconv"
	"strings"

	"ledgerbook/internal/core"
)

// Row codecs between domain entities and their table schemas. Decoding is
// lenient: malformed numeric text coerces to zero and malformed dates to the
// zero date, matching the never-block-the-user policy for stored data.

func LedgerEntryRow(e core.LedgerEntry) Row {
	return Row{
		e.ID,
		e.Date.String(),
		string(e.Type),
		e.Category,
		strconv.FormatInt(e.Amount, 10),
		e.Memo,
		e.FixedKey,
		e.User,
	}
}

func LedgerEntryFromRow(r Row) core.LedgerEntry {
	return core.LedgerEntry{
		ID:       Ledger.Get(r, "id"),
		Date:     core.ParseDate(Ledger.Get(r, "date")),
		Type:     core.EntryType(strings.TrimSpace(Ledger.Get(r, "type"))),
		Category: Ledger.Get(r, "category"),
		Amount:   core.ParseAmount(Ledger.Get(r, "amount")),
		Memo:     Ledger.Get(r, "memo"),
		FixedKey: Ledger.Get(r, "fixed_key"),
		User:     Ledger.Get(r, "user"),
	}
}

func BudgetEntryRow(b core.BudgetEntry) Row {
	return Row{
		strconv.Itoa(b.Year),
		strconv.Itoa(b.Month),
		b.Category,
		strconv.FormatInt(b.Budget, 10),
	}
}

func BudgetEntryFromRow(r Row) core.BudgetEntry {
	year, _ := strconv.Atoi(strings.TrimSpace(BudgetsMonthly.Get(r, "year")))
	month, _ := strconv.Atoi(strings.TrimSpace(BudgetsMonthly.Get(r, "month")))
	return core.BudgetEntry{
		Year:     year,
		Month:    month,
		Category: BudgetsMonthly.Get(r, "category"),
		Budget:   core.ParseAmount(BudgetsMonthly.Get(r, "budget")),
	}
}

func FixedExpenseRuleRow(f core.FixedExpenseRule) Row {
	return Row{
		f.FixedID,
		f.Name,
		strconv.FormatInt(f.Amount, 10),
		strconv.Itoa(f.Day),
		f.Memo,
	}
}

func FixedExpenseRuleFromRow(r Row) core.FixedExpenseRule {
	return core.FixedExpenseRule{
		FixedID: strings.TrimSpace(FixedExpenses.Get(r, "fixed_id")),
		Name:    FixedExpenses.Get(r, "name"),
		Amount:  core.ParseAmount(FixedExpenses.Get(r, "amount")),
		Day:     core.ParseDay(FixedExpenses.Get(r, "day")),
		Memo:    FixedExpenses.Get(r, "memo"),
	}
}

func CardSubscriptionRuleRow(c core.CardSubscriptionRule) Row {
	return Row{
		c.CardName,
		c.Merchant,
		strconv.FormatInt(c.Amount, 10),
		strconv.Itoa(c.Day),
		c.Memo,
	}
}

func CardSubscriptionRuleFromRow(r Row) core.CardSubscriptionRule {
	return core.CardSubscriptionRule{
		CardName: strings.TrimSpace(CardSubscriptions.Get(r, "card_name")),
		Merchant: strings.TrimSpace(CardSubscriptions.Get(r, "merchant")),
		Amount:   core.ParseAmount(CardSubscriptions.Get(r, "amount")),
		Day:      core.ParseDay(CardSubscriptions.Get(r, "day")),
		Memo:     CardSubscriptions.Get(r, "memo"),
	}
}

// SimpleLogEntryRow works for both simple-log schemas (events, zeropay);
// they share the same column set.
func SimpleLogEntryRow(e core.SimpleLogEntry) Row {
	return Row{
		e.ID,
		e.Date.String(),
		string(e.Type),
		strconv.FormatInt(e.Amount, 10),
		e.Memo,
		e.User,
	}
}

func SimpleLogEntryFromRow(r Row) core.SimpleLogEntry {
	return core.SimpleLogEntry{
		ID:     Events.Get(r, "id"),
		Date:   core.ParseDate(Events.Get(r, "date")),
		Type:   core.EntryType(strings.TrimSpace(Events.Get(r, "type"))),
		Amount: core.ParseAmount(Events.Get(r, "amount")),
		Memo:   Events.Get(r, "memo"),
		User:   Events.Get(r, "user"),
	}
}

func CardBenefitRow(c core.CardBenefit) Row {
	return Row{c.CardName, c.Benefits}
}

func CardBenefitFromRow(r Row) core.CardBenefit {
	return core.CardBenefit{
		CardName: Cards.Get(r, "card_name"),
		Benefits: Cards.Get(r, "benefits"),
	}
}
