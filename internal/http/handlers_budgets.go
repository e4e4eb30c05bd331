package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/services"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.deps.Budgets.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(budgets).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var in services.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in.Category = sanitizeInput(in.Category)

	b, err := s.deps.Budgets.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(b).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Budgets.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(b).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var p services.BudgetPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if p.Category != nil {
		v := sanitizeInput(*p.Category)
		p.Category = &v
	}

	b, err := s.deps.Budgets.Update(r.Context(), userID(r), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(b).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Budgets.Delete(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(b).Write(w)
}

func (s *Server) handleCheckBudgets(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.deps.Budgets.Check(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(statuses).Write(w)
}

func (s *Server) handleReconcileBudgets(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.Budgets.Reconcile(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(results).Write(w)
}
