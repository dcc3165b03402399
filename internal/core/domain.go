package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense EntryType = "expense"
	Income  EntryType = "income"
)

type (
	// EntryType distinguishes money leaving from money arriving.
	EntryType string

	// Date is a calendar day. The time-of-day part is always midnight UTC.
	Date struct {
		time.Time
	}

	// LedgerEntry is one row of the main ledger table. Entries created by the
	// recurrence materializer carry a non-empty FixedKey; manual entries never do.
	LedgerEntry struct {
		ID       string
		Date     Date
		Type     EntryType
		Category string
		Amount   int64 // smallest currency unit, never negative
		Memo     string
		FixedKey string
		User     string
	}

	// FixedExpenseRule is a monthly recurring obligation. FixedID is generated
	// once and survives bulk edits so already-materialized entries stay
	// attributable to their rule.
	FixedExpenseRule struct {
		FixedID string
		Name    string
		Amount  int64
		Day     int
		Memo    string
	}

	// CardSubscriptionRule is a recurring card-billed subscription. Its identity
	// is the (CardName, Merchant) pair; there is no stored id.
	CardSubscriptionRule struct {
		CardName string
		Merchant string
		Amount   int64
		Day      int
		Memo     string
	}

	// BudgetEntry is the configured budget for one category in one month.
	BudgetEntry struct {
		Year     int
		Month    int
		Category string
		Budget   int64
	}

	// SimpleLogEntry is a row of an auxiliary log table (events, zeropay).
	SimpleLogEntry struct {
		ID     string
		Date   Date
		Type   EntryType
		Amount int64
		Memo   string
		User   string
	}

	// CardBenefit is static reference data, replaced as a whole set.
	CardBenefit struct {
		CardName string
		Benefits string
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid entry type")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyID       = errors.New("empty id")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string. Anything else yields a zero Date.
func ParseDate(s string) Date {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}
	}
	return Date{Time: t}
}

// String renders the persisted ISO form, or the empty string for a zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// InMonth reports whether the date falls inside the given year and month.
func (d Date) InMonth(year, month int) bool {
	return !d.IsZero() && d.Year() == year && d.Month() == month
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay bounds day into [1, days-in-month] for the given month. Recurring
// rules configured for day 31 land on the last valid day of short months.
func ClampDay(day, year, month int) int {
	if day < 1 {
		return 1
	}
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

func (t EntryType) Validate() error {
	switch t {
	case Expense, Income:
		return nil
	}
	return ErrInvalidType
}

func (e LedgerEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e SimpleLogEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Type.Validate(); err != nil {
		return err
	}
	if e.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
