package httpapi

import (
	"mime"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// requireJSON rejects bodies that are not declared application/json.
// Requests without a body skip the check.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || mt != "application/json" {
		writeErr(w, http.StatusUnsupportedMediaType, "content type must be application/json", "")
		return false
	}
	return true
}

// urlID parses the {id} route parameter. A false return means the error
// response was already written.
func urlID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
