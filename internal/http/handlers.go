package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/session"
)

// Wire representations of the domain entities. Amounts travel as integers in
// the smallest currency unit; dates as ISO YYYY-MM-DD strings.

type entryJSON struct {
	ID       string `json:"id,omitempty"`
	Date     string `json:"date"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
	Memo     string `json:"memo,omitempty"`
	FixedKey string `json:"fixed_key,omitempty"`
	User     string `json:"user,omitempty"`
}

func entryToJSON(e core.LedgerEntry) entryJSON {
	return entryJSON{
		ID:       e.ID,
		Date:     e.Date.String(),
		Type:     string(e.Type),
		Category: e.Category,
		Amount:   e.Amount,
		Memo:     e.Memo,
		FixedKey: e.FixedKey,
		User:     e.User,
	}
}

func (j entryJSON) toEntry() core.LedgerEntry {
	return core.LedgerEntry{
		ID:       j.ID,
		Date:     core.ParseDate(j.Date),
		Type:     core.EntryType(j.Type),
		Category: j.Category,
		Amount:   j.Amount,
		Memo:     j.Memo,
		User:     j.User,
	}
}

type budgetJSON struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Category string `json:"category"`
	Budget   int64  `json:"budget"`
}

type fixedExpenseJSON struct {
	FixedID string `json:"fixed_id,omitempty"`
	Name    string `json:"name"`
	Amount  int64  `json:"amount"`
	Day     int    `json:"day"`
	Memo    string `json:"memo,omitempty"`
}

type subscriptionJSON struct {
	CardName string `json:"card_name"`
	Merchant string `json:"merchant"`
	Amount   int64  `json:"amount"`
	Day      int    `json:"day"`
	Memo     string `json:"memo,omitempty"`
}

type cardJSON struct {
	CardName string `json:"card_name"`
	Benefits string `json:"benefits"`
}

type logEntryJSON struct {
	ID     string `json:"id,omitempty"`
	Date   string `json:"date"`
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
	Memo   string `json:"memo,omitempty"`
	User   string `json:"user,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User     string `json:"user"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := s.auth.Login(req.User, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrBadCredentials) {
			slog.WarnContext(r.Context(), "Login failed", "user", req.User, "client_ip", extractClientIP(r))
			writeError(w, http.StatusUnauthorized, "bad credentials")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	token, err := s.sessions.Create(user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token, "user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Revoke(bearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.svc.Categories()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"expense":         cats.Expense,
		"income":          cats.Income,
		"budget_eligible": cats.BudgetEligible(),
	})
}

func (s *Server) handleListLedger(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	entries, err := s.svc.ListMonth(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToJSON(e))
	}
	income, expense := ledger.MonthTotals(entries)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year": year, "month": month, "entries": out,
		"income_total":          income,
		"expense_total":         expense,
		"income_total_display":  core.FormatAmount(income),
		"expense_total_display": core.FormatAmount(expense),
	})
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req entryJSON
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	e := req.toEntry()
	e.User = userFrom(r)

	added, err := s.svc.AddEntry(r.Context(), e)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entryToJSON(added))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryJSON
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	e := req.toEntry()
	e.ID = r.PathValue("id")
	if e.User == "" {
		e.User = userFrom(r)
	}

	if err := s.svc.UpdateEntry(r.Context(), e); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApplyFixed(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	n, err := s.svc.ApplyFixedExpenses(r.Context(), year, month, userFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Applied fixed expenses", "year", year, "month", month, "added", n)
	writeJSON(w, http.StatusOK, map[string]int{"added": n})
}

func (s *Server) handleApplySubscriptions(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	n, err := s.svc.ApplyCardSubscriptions(r.Context(), year, month, userFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Applied card subscriptions", "year", year, "month", month, "added", n)
	writeJSON(w, http.StatusOK, map[string]int{"added": n})
}

func (s *Server) handleGetBudgets(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	budgets, err := s.svc.BudgetMonth(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]budgetJSON, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetJSON{Year: b.Year, Month: b.Month, Category: b.Category, Budget: b.Budget})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year": year, "month": month, "budgets": out,
	})
}

func (s *Server) handlePutBudgets(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	var req []budgetJSON
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	budgets := make([]core.BudgetEntry, 0, len(req))
	for _, b := range req {
		budgets = append(budgets, core.BudgetEntry{Category: b.Category, Budget: b.Budget})
	}
	if err := s.svc.SaveBudgetMonth(r.Context(), year, month, budgets); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	report, err := s.svc.Report(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListFixedExpenses(w http.ResponseWriter, r *http.Request) {
	rules, err := s.svc.ListFixedExpenses(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]fixedExpenseJSON, 0, len(rules))
	for _, f := range rules {
		out = append(out, fixedExpenseJSON{FixedID: f.FixedID, Name: f.Name, Amount: f.Amount, Day: f.Day, Memo: f.Memo})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rules": out})
}

func (s *Server) handlePutFixedExpenses(w http.ResponseWriter, r *http.Request) {
	var req []fixedExpenseJSON
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	rules := make([]core.FixedExpenseRule, 0, len(req))
	for _, f := range req {
		rules = append(rules, core.FixedExpenseRule{FixedID: f.FixedID, Name: f.Name, Amount: f.Amount, Day: f.Day, Memo: f.Memo})
	}
	saved, err := s.svc.ReplaceFixedExpenses(r.Context(), rules)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]fixedExpenseJSON, 0, len(saved))
	for _, f := range saved {
		out = append(out, fixedExpenseJSON{FixedID: f.FixedID, Name: f.Name, Amount: f.Amount, Day: f.Day, Memo: f.Memo})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rules": out})
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	rules, err := s.svc.ListCardSubscriptions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]subscriptionJSON, 0, len(rules))
	for _, c := range rules {
		out = append(out, subscriptionJSON{CardName: c.CardName, Merchant: c.Merchant, Amount: c.Amount, Day: c.Day, Memo: c.Memo})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subscriptions": out})
}

func (s *Server) handlePutSubscriptions(w http.ResponseWriter, r *http.Request) {
	var req []subscriptionJSON
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	rules := make([]core.CardSubscriptionRule, 0, len(req))
	for _, c := range req {
		rules = append(rules, core.CardSubscriptionRule{CardName: c.CardName, Merchant: c.Merchant, Amount: c.Amount, Day: c.Day, Memo: c.Memo})
	}
	if err := s.svc.ReplaceCardSubscriptions(r.Context(), rules); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.svc.ListCardBenefits(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]cardJSON, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardJSON{CardName: c.CardName, Benefits: c.Benefits})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cards": out})
}

func (s *Server) handlePutCards(w http.ResponseWriter, r *http.Request) {
	var req []cardJSON
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	cards := make([]core.CardBenefit, 0, len(req))
	for _, c := range req {
		cards = append(cards, core.CardBenefit{CardName: c.CardName, Benefits: c.Benefits})
	}
	if err := s.svc.ReplaceCardBenefits(r.Context(), cards); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListLog(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	entries, err := s.svc.ListLogMonth(r.Context(), r.PathValue("log"), year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]logEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, logEntryJSON{
			ID: e.ID, Date: e.Date.String(), Type: string(e.Type),
			Amount: e.Amount, Memo: e.Memo, User: e.User,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year": year, "month": month, "entries": out,
	})
}

func (s *Server) handleAddLogEntry(w http.ResponseWriter, r *http.Request) {
	var req logEntryJSON
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	e := core.SimpleLogEntry{
		Date:   core.ParseDate(req.Date),
		Type:   core.EntryType(req.Type),
		Amount: req.Amount,
		Memo:   req.Memo,
		User:   userFrom(r),
	}
	added, err := s.svc.AddLogEntry(r.Context(), r.PathValue("log"), e)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, logEntryJSON{
		ID: added.ID, Date: added.Date.String(), Type: string(added.Type),
		Amount: added.Amount, Memo: added.Memo, User: added.User,
	})
}

func (s *Server) handleDeleteLogEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteLogEntry(r.Context(), r.PathValue("log"), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRefresh purges the read cache so the next reads hit the backend.
// Covers the case where someone edited the spreadsheet directly.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.cached != nil {
		s.cached.Refresh()
	}
	slog.InfoContext(r.Context(), "Cache refreshed", "user", userFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	// Build the workbook in memory first so a backend failure can still
	// produce a proper error status.
	var buf bytes.Buffer
	if err := s.exporter.WriteMonth(r.Context(), &buf, year, month); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("ledger_%04d%02d_%s.xlsx", year, month, time.Now().Format("20060102"))))
	if _, err := buf.WriteTo(w); err != nil {
		slog.ErrorContext(r.Context(), "Export write failed", "error", err, "year", year, "month", month)
	}
}
