package core

// Categories is the configured category taxonomy. The expense list order is
// canonical: budget reports and exports render rows in exactly this order.
type Categories struct {
	Expense []string
	Income  []string

	// Fixed and LumpSum name the two expense categories that are tracked in
	// the ledger but excluded from the budget comparison.
	Fixed   string
	LumpSum string
}

// DefaultCategories mirrors the taxonomy of the original household ledger.
func DefaultCategories() Categories {
	return Categories{
		Expense: []string{
			"Groceries",
			"Dining Out",
			"Household",
			"Childcare",
			"Leisure",
			"Transport",
			"Medical",
			"Misc",
			"Fixed",
			"Lump Sum",
		},
		Income:  []string{"Salary", "Side Income", "Interest", "Cashback", "Other"},
		Fixed:   "Fixed",
		LumpSum: "Lump Sum",
	}
}

// BudgetEligible returns the expense categories that participate in budget
// comparison, in canonical order.
func (c Categories) BudgetEligible() []string {
	out := make([]string, 0, len(c.Expense))
	for _, name := range c.Expense {
		if name == c.Fixed || name == c.LumpSum {
			continue
		}
		out = append(out, name)
	}
	return out
}

// IsBudgetEligible reports whether a category takes part in budget comparison.
func (c Categories) IsBudgetEligible(name string) bool {
	if name == c.Fixed || name == c.LumpSum {
		return false
	}
	for _, e := range c.Expense {
		if e == name {
			return true
		}
	}
	return false
}
