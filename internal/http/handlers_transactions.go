package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	txns, err := s.deps.Transactions.List(r.Context(), userID(r), f)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(txns).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	t, err := s.deps.Transactions.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(t).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Transactions.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(t).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	t, err := s.deps.Transactions.Update(r.Context(), userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Transactions.Delete(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(t).Write(w)
}
