package httpapi

import (
	"context"
	"net/http"

	"github.com/salonbook/salonbook/internal/book"
	"github.com/salonbook/salonbook/internal/service/ledger"
)

func (s *Server) listAdjustments(w http.ResponseWriter, r *http.Request) {
	day, err := book.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		badRequest(w, "invalid date, want YYYY-MM-DD")
		return
	}
	list, err := s.views.Adjustments.Get(r.Context(), string(day), func(ctx context.Context) ([]book.DailyAdjustment, error) {
		return s.ledger.DailyAdjustments(ctx, day)
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]adjustmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAdjustmentResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postAdjustment(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req postAdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	day, err := book.ParseDay(req.Date)
	if err != nil {
		badRequest(w, "invalid date, want YYYY-MM-DD")
		return
	}
	a, err := s.ledger.AddAdjustment(r.Context(), day, req.Amount, req.Reason)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.AdjustmentsChanged(a.Date)
	toJSON(w, http.StatusCreated, toAdjustmentResponse(a))
}

func (s *Server) patchAdjustment(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req patchAdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	a, err := s.ledger.UpdateAdjustment(r.Context(), id, ledger.AdjustmentPatch{Amount: req.Amount, Reason: req.Reason})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.AdjustmentsChanged(a.Date)
	toJSON(w, http.StatusOK, toAdjustmentResponse(a))
}

func (s *Server) deleteAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	a, err := s.ledger.DeleteAdjustment(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.AdjustmentsChanged(a.Date)
	w.WriteHeader(http.StatusNoContent)
}
