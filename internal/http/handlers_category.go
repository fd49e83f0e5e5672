package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"spendwise/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Categories.List(r.Context(), userID(r), r.URL.Query().Get("type"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	out := make([]categoryView, len(cats))
	for i, c := range cats {
		out[i] = toCategoryView(c)
	}
	OK(w, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	c, err := s.deps.Categories.Create(r.Context(), userID(r), sanitizeInput(req.Name), req.Type)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Created(w, "category created", toCategoryView(c))
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if req.Type != "" {
		WriteError(w, r, core.Validationf("a category's type cannot be changed"))
		return
	}
	c, err := s.deps.Categories.Rename(r.Context(), userID(r), chi.URLParam(r, "id"), sanitizeInput(req.Name))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toCategoryView(c))
}

// handleDeleteCategory answers 409 with the transaction count when the
// category is still referenced, unless force=true.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	force := queryBool(r.URL.Query(), "force")
	removed, err := s.deps.Categories.Delete(r.Context(), userID(r), chi.URLParam(r, "id"), force)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponse().Message("category deleted").Data(map[string]int{"deletedTransactions": removed}).Write(w)
}
