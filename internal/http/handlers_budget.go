package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/exchange"
	applog "github.com/jc9677/budget-app-2/internal/log"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Budget.ListAccounts(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	out := make([]accountBody, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, exchange.AccountToRecord(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Budget.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, exchange.AccountToRecord(a))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var body accountBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	a := body.ToAccount()
	a.ID = ""
	created, err := s.deps.Budget.CreateAccount(r.Context(), a)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/accounts/"+created.ID).
		Data(exchange.AccountToRecord(created)).
		Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var body accountBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	a := body.ToAccount()
	a.ID = chi.URLParam(r, "id")
	updated, err := s.deps.Budget.UpdateAccount(r.Context(), a)
	if err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, exchange.AccountToRecord(updated))
}

// handleDeleteAccount removes the account and every rule referencing it.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Budget.DeleteAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deletedTransactions": n})
}

func (s *Server) handleListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.Budget.ListTransactionsByAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionRecords(txs))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.Budget.ListTransactions(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionRecords(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Budget.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, exchange.TransactionToRecord(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.decodeTransaction(w, r)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	t.ID = ""
	created, err := s.deps.Budget.CreateTransaction(r.Context(), t)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+created.ID).
		Data(exchange.TransactionToRecord(created)).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.decodeTransaction(w, r)
	if err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	t.ID = chi.URLParam(r, "id")
	updated, err := s.deps.Budget.UpdateTransaction(r.Context(), t)
	if err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, exchange.TransactionToRecord(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Budget.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, error) {
	var body transactionBody
	if err := decodeJSON(w, r, &body); err != nil {
		return core.Transaction{}, err
	}
	return body.ToTransaction()
}

func transactionRecords(txs []core.Transaction) []transactionBody {
	out := make([]transactionBody, 0, len(txs))
	for _, t := range txs {
		out = append(out, exchange.TransactionToRecord(t))
	}
	return out
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Budget.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	cats, err := s.deps.Budget.AddCategory(r.Context(), body.Name)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, cats)
}
