// Package httpapi wires the HTTP surface of the shop ledger service.
// It keeps handlers thin, delegating business rules to the service layer and
// read-view freshness to the consistency coordinator.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/salonbook/salonbook/internal/service/catalog"
	"github.com/salonbook/salonbook/internal/service/ledger"
	"github.com/salonbook/salonbook/internal/viewcache"
)

// Server wires handlers and middleware using Chi.
type Server struct {
	catalog *catalog.Service
	ledger  *ledger.Service
	views   *viewcache.Coordinator
	// ready checks underlying store connectivity for /readyz; the repo deps
	// are kept for the type assertion there.
	crepo catalog.Repo
	lrepo ledger.Repo
	log   *slog.Logger
	rt    *chi.Mux
}

// New constructs the HTTP server with routes and middleware. The logger is
// used by request/response logging and panic recovery.
func New(crepo catalog.Repo, cwriter catalog.Writer, lrepo ledger.Repo, lwriter ledger.Writer, views *viewcache.Coordinator, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		catalog: catalog.New(crepo, cwriter),
		ledger:  ledger.New(lrepo, lwriter),
		views:   views,
		crepo:   crepo,
		lrepo:   lrepo,
		log:     logger,
		rt:      r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Catalog: services
	s.rt.Get("/v1/services", s.listServices)
	s.rt.Post("/v1/services", s.postService)
	s.rt.Patch("/v1/services/{id}", s.patchService)
	s.rt.Delete("/v1/services/{id}", s.deleteService)
	s.rt.Put("/v1/services/order", s.reorderServices)
	// Catalog: expense categories
	s.rt.Get("/v1/categories", s.listCategories)
	s.rt.Post("/v1/categories", s.postCategory)
	s.rt.Patch("/v1/categories/{id}", s.patchCategory)
	s.rt.Delete("/v1/categories/{id}", s.deleteCategory)
	s.rt.Put("/v1/categories/order", s.reorderCategories)
	// Ledger: daily records
	s.rt.Get("/v1/records", s.listRecords)
	s.rt.Post("/v1/records", s.postRecord)
	s.rt.Patch("/v1/records/{id}", s.patchRecord)
	s.rt.Post("/v1/records/{id}/adjust-count", s.adjustRecordCount)
	s.rt.Delete("/v1/records/{id}", s.deleteRecord)
	// Ledger: daily adjustments
	s.rt.Get("/v1/adjustments", s.listAdjustments)
	s.rt.Post("/v1/adjustments", s.postAdjustment)
	s.rt.Patch("/v1/adjustments/{id}", s.patchAdjustment)
	s.rt.Delete("/v1/adjustments/{id}", s.deleteAdjustment)
	// Ledger: monthly expenses
	s.rt.Get("/v1/expenses", s.listExpenses)
	s.rt.Put("/v1/expenses", s.putExpense)
	s.rt.Delete("/v1/expenses/{id}", s.deleteExpense)
	// Settlement
	s.rt.Get("/v1/settlement", s.getSettlement)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
