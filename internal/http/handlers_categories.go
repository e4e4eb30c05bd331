package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/services"
)

type subcategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Categories.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in services.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	for i := range in.Subcategories {
		in.Subcategories[i] = sanitizeInput(in.Subcategories[i])
	}

	c, err := s.deps.Categories.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(c).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Categories.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(c).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var p services.CategoryPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if p.Name != nil {
		v := sanitizeInput(*p.Name)
		p.Name = &v
	}

	c, err := s.deps.Categories.Update(r.Context(), userID(r), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Categories.Delete(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(c).Write(w)
}

func (s *Server) handleAddSubcategory(w http.ResponseWriter, r *http.Request) {
	var req subcategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	c, err := s.deps.Categories.AddSubcategory(r.Context(), userID(r), chi.URLParam(r, "id"), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(c).Write(w)
}

func (s *Server) handleUpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	var req subcategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	c, err := s.deps.Categories.UpdateSubcategory(r.Context(), userID(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "index"), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(c).Write(w)
}

func (s *Server) handleDeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Categories.DeleteSubcategory(r.Context(), userID(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(c).Write(w)
}
