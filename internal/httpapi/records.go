package httpapi

import (
	"context"
	"net/http"

	"github.com/salonbook/salonbook/internal/book"
)

// listRecords serves the day view (?date=YYYY-MM-DD) or the month view
// (?month=YYYY-MM). Exactly one of the two must be given.
func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dateQ := r.URL.Query().Get("date")
	monthQ := r.URL.Query().Get("month")

	var (
		records []book.DailyRecord
		err     error
	)
	switch {
	case dateQ != "" && monthQ == "":
		day, perr := book.ParseDay(dateQ)
		if perr != nil {
			badRequest(w, "invalid date, want YYYY-MM-DD")
			return
		}
		records, err = s.views.DailyRecords.Get(ctx, string(day), func(ctx context.Context) ([]book.DailyRecord, error) {
			return s.ledger.DailyRecords(ctx, day)
		})
	case monthQ != "" && dateQ == "":
		ym, perr := book.ParseYearMonth(monthQ)
		if perr != nil {
			badRequest(w, "invalid month, want YYYY-MM")
			return
		}
		records, err = s.views.MonthlyRecords.Get(ctx, string(ym), func(ctx context.Context) ([]book.DailyRecord, error) {
			return s.ledger.MonthlyRecords(ctx, ym)
		})
	default:
		badRequest(w, "exactly one of date or month is required")
		return
	}
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	services, err := s.cachedServices(ctx)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	idx := serviceIndex(services)
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec, idx))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postRecord(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req postRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	day, err := book.ParseDay(req.Date)
	if err != nil {
		badRequest(w, "invalid date, want YYYY-MM-DD")
		return
	}
	rec, err := s.ledger.Record(r.Context(), day, req.ServiceID, req.Count, req.TotalAmount)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.RecordsChanged(rec.Date)
	services, err := s.cachedServices(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toRecordResponse(rec, serviceIndex(services)))
}

func (s *Server) patchRecord(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req patchRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	rec, err := s.ledger.ReplaceRecord(r.Context(), id, req.Count, req.TotalAmount)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.RecordsChanged(rec.Date)
	services, err := s.cachedServices(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toRecordResponse(rec, serviceIndex(services)))
}

// adjustRecordCount bumps a record's count by a signed delta, repricing the
// total from the supplied unit price. Dropping to zero or below removes the
// row entirely.
func (s *Server) adjustRecordCount(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req adjustCountRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	rec, deleted, err := s.ledger.AdjustCount(r.Context(), id, req.Delta, req.UnitPrice)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.RecordsChanged(rec.Date)
	if deleted {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	services, err := s.cachedServices(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toRecordResponse(rec, serviceIndex(services)))
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	rec, err := s.ledger.DeleteRecord(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.RecordsChanged(rec.Date)
	w.WriteHeader(http.StatusNoContent)
}
