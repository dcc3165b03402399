package ledger

import (
	"fmt"
	"strings"

	"ledgerbook/internal/core"
)

// Recurring entries are materialized at most once per rule per month. The
// guarantee hangs on the fixed_key column: a deterministic token derived from
// the rule's identity and the target month, checked against the current
// ledger snapshot before anything is emitted. Re-running the operation is
// therefore always safe; it is the only trigger mechanism the application
// offers (a button, never a scheduler).

const (
	fixedMemoTag        = "[fixed]"
	subscriptionMemoTag = "[subscription]"

	maxKeyToken = 16
)

// FixedKey builds the idempotency key for a fixed-expense rule in a month.
func FixedKey(fixedID string, year, month int) string {
	return fmt.Sprintf("FIX_%s_%04d%02d", strings.TrimSpace(fixedID), year, month)
}

// SubscriptionKey builds the idempotency key for a card subscription in a
// month. Card and merchant are folded through sanitizeToken so cosmetic
// differences in casing or whitespace cannot mint a second key.
func SubscriptionKey(cardName, merchant string, year, month int) string {
	return fmt.Sprintf("SUB_%s_%s_%04d%02d",
		sanitizeToken(cardName), sanitizeToken(merchant), year, month)
}

// sanitizeToken reduces free text to a bounded uppercase alphanumeric token.
func sanitizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			if b.Len() >= maxKeyToken {
				break
			}
		}
	}
	return b.String()
}

// existingKeys collects the fixed_key values already present in the ledger.
func existingKeys(entries []core.LedgerEntry) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, e := range entries {
		if e.FixedKey != "" {
			keys[e.FixedKey] = struct{}{}
		}
	}
	return keys
}

// MaterializeFixed returns the ledger entries to add for the fixed-expense
// rules not yet applied to (year, month). Rules without a fixed_id are
// skipped; a rule's day is clamped to the month's length. The caller persists
// the result only when it is non-empty.
func MaterializeFixed(rules []core.FixedExpenseRule, snapshot []core.LedgerEntry, year, month int, user, category string, newID func() string) []core.LedgerEntry {
	seen := existingKeys(snapshot)

	var added []core.LedgerEntry
	for _, r := range rules {
		if strings.TrimSpace(r.FixedID) == "" {
			continue
		}
		key := FixedKey(r.FixedID, year, month)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		memo := fixedMemoTag + " " + strings.TrimSpace(r.Name)
		if m := strings.TrimSpace(r.Memo); m != "" {
			memo += " - " + m
		}
		added = append(added, core.LedgerEntry{
			ID:       newID(),
			Date:     core.NewDate(year, month, core.ClampDay(r.Day, year, month)),
			Type:     core.Expense,
			Category: category,
			Amount:   r.Amount,
			Memo:     memo,
			FixedKey: key,
			User:     user,
		})
	}
	return added
}

// MaterializeSubscriptions does the same for card subscriptions. Rules with a
// blank merchant or a zero amount are skipped.
func MaterializeSubscriptions(rules []core.CardSubscriptionRule, snapshot []core.LedgerEntry, year, month int, user, category string, newID func() string) []core.LedgerEntry {
	seen := existingKeys(snapshot)

	var added []core.LedgerEntry
	for _, r := range rules {
		if strings.TrimSpace(r.Merchant) == "" || r.Amount == 0 {
			continue
		}
		key := SubscriptionKey(r.CardName, r.Merchant, year, month)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		memo := subscriptionMemoTag + " " + strings.TrimSpace(r.Merchant)
		if c := strings.TrimSpace(r.CardName); c != "" {
			memo += " (" + c + ")"
		}
		if m := strings.TrimSpace(r.Memo); m != "" {
			memo += " - " + m
		}
		added = append(added, core.LedgerEntry{
			ID:       newID(),
			Date:     core.NewDate(year, month, core.ClampDay(r.Day, year, month)),
			Type:     core.Expense,
			Category: category,
			Amount:   r.Amount,
			Memo:     memo,
			FixedKey: key,
			User:     user,
		})
	}
	return added
}
