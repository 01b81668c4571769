package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/salonbook/salonbook/internal/book"
	"github.com/salonbook/salonbook/internal/service/catalog"
)

// catalogKey keys the single cached view of a whole catalog family.
const catalogKey = "all"

func (s *Server) cachedServices(ctx context.Context) ([]book.Service, error) {
	return s.views.Services.Get(ctx, catalogKey, s.catalog.ListServices)
}

func (s *Server) cachedCategories(ctx context.Context) ([]book.ExpenseCategory, error) {
	return s.views.Categories.Get(ctx, catalogKey, s.catalog.ListCategories)
}

func serviceIndex(list []book.Service) map[uuid.UUID]book.Service {
	m := make(map[uuid.UUID]book.Service, len(list))
	for _, v := range list {
		m[v.ID] = v
	}
	return m
}

func categoryIndex(list []book.ExpenseCategory) map[uuid.UUID]book.ExpenseCategory {
	m := make(map[uuid.UUID]book.ExpenseCategory, len(list))
	for _, c := range list {
		m[c.ID] = c
	}
	return m
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.cachedServices(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]serviceResponse, 0, len(list))
	for _, v := range list {
		out = append(out, toServiceResponse(v))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postService(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req postServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	v, err := s.catalog.CreateService(r.Context(), catalog.ServiceInput{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Icon:      req.Icon,
		Color:     req.Color,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.ServicesChanged()
	toJSON(w, http.StatusCreated, toServiceResponse(v))
}

func (s *Server) patchService(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req patchServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	v, err := s.catalog.UpdateService(r.Context(), id, catalog.ServicePatch{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Icon:      req.Icon,
		Color:     req.Color,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.ServicesChanged()
	toJSON(w, http.StatusOK, toServiceResponse(v))
}

func (s *Server) deleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := s.catalog.DeleteService(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.ServicesChanged()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderServices(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if err := s.catalog.ReorderServices(r.Context(), req.IDs); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.ServicesChanged()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.cachedCategories(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCategoryResponse(c))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postCategory(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req postCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	c, err := s.catalog.CreateCategory(r.Context(), catalog.CategoryInput{Name: req.Name, Icon: req.Icon})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.CategoriesChanged()
	toJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (s *Server) patchCategory(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req patchCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	c, err := s.catalog.UpdateCategory(r.Context(), id, catalog.CategoryPatch{Name: req.Name, Icon: req.Icon})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.CategoriesChanged()
	toJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := s.catalog.DeleteCategory(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.CategoriesChanged()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderCategories(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if err := s.catalog.ReorderCategories(r.Context(), req.IDs); err != nil {
		writeDomainErr(w, err)
		return
	}
	s.views.CategoriesChanged()
	w.WriteHeader(http.StatusNoContent)
}
