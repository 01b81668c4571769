package httpapi

import (
	"context"
	"net/http"
)

// readyChecker is implemented by stores that can probe their backend.
type readyChecker interface {
	Ready(ctx context.Context) error
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	toJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports whether the backing store answers. Both repo handles
// normally point at the same store, so the duplicate probe is cheap.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	for _, dep := range []any{s.crepo, s.lrepo} {
		if rc, ok := dep.(readyChecker); ok {
			if err := rc.Ready(r.Context()); err != nil {
				s.log.Error("readiness probe failed", "error", err)
				toJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
	}
	toJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
