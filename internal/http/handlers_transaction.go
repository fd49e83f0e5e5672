package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

type transactionRequest struct {
	CategoryID string     `json:"categoryId"`
	Type       string     `json:"type"`
	Amount     core.Money `json:"amount"`
	Note       string     `json:"note"`
	Date       *Date      `json:"date"`
}

func (req transactionRequest) input() services.TransactionInput {
	return services.TransactionInput{
		CategoryID: req.CategoryID,
		Type:       req.Type,
		Amount:     req.Amount,
		Note:       sanitizeInput(req.Note),
		Date:       req.Date.value(),
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseTransactionFilter(r.URL.Query(), userID(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	txs, total, err := s.deps.Transactions.List(r.Context(), f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	items := make([]transactionView, len(txs))
	for i, tx := range txs {
		items[i] = toTransactionView(tx)
	}
	OK(w, transactionPage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	tx, err := s.deps.Transactions.Create(r.Context(), userID(r), req.input())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Created(w, "transaction created", toTransactionView(tx))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.deps.Transactions.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toTransactionView(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	tx, err := s.deps.Transactions.Update(r.Context(), userID(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toTransactionView(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transactions.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponse().Message("transaction deleted").Write(w)
}
