package httpapi

import (
	"net/http"

	"github.com/salonbook/salonbook/internal/book"
)

// getSettlement computes the month's close-out figures on demand. Settlement
// is derived data, so it is not cached: its inputs flow through the cached
// views already and recomputing keeps it exact after any mutation.
func (s *Server) getSettlement(w http.ResponseWriter, r *http.Request) {
	ym, err := book.ParseYearMonth(r.URL.Query().Get("month"))
	if err != nil {
		badRequest(w, "invalid month, want YYYY-MM")
		return
	}
	out, err := s.ledger.Settlement(r.Context(), ym)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toSettlementResponse(out))
}
