package httpapi

import (
	"context"
	"net/http"

	"github.com/salonbook/salonbook/internal/book"
)

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	ym, err := book.ParseYearMonth(r.URL.Query().Get("month"))
	if err != nil {
		badRequest(w, "invalid month, want YYYY-MM")
		return
	}
	ctx := r.Context()
	list, err := s.views.Expenses.Get(ctx, string(ym), func(ctx context.Context) ([]book.MonthlyExpense, error) {
		return s.ledger.MonthlyExpenses(ctx, ym)
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	categories, err := s.cachedCategories(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	idx := categoryIndex(categories)
	out := make([]expenseResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toExpenseResponse(e, idx))
	}
	toJSON(w, http.StatusOK, out)
}

// putExpense upserts the single expense row for a month and category. A nil
// memo keeps any memo already on the row.
func (s *Server) putExpense(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req putExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	ym, err := book.ParseYearMonth(req.YearMonth)
	if err != nil {
		badRequest(w, "invalid year_month, want YYYY-MM")
		return
	}
	e, err := s.ledger.SetExpense(r.Context(), ym, req.CategoryID, req.Amount, req.Memo)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.ExpensesChanged(e.YearMonth)
	categories, err := s.cachedCategories(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toExpenseResponse(e, categoryIndex(categories)))
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	e, err := s.ledger.DeleteExpense(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.ExpensesChanged(e.YearMonth)
	w.WriteHeader(http.StatusNoContent)
}
