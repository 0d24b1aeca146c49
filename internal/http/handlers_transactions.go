package http

import (
	"net/http"

	"tietkiem/internal/core"
	applog "tietkiem/internal/log"
	"tietkiem/internal/services"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req services.NewTransaction
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	req.Note = sanitizeInput(req.Note)

	t, err := s.svc.Transactions.AddTransaction(r.Context(), req)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.invalidateSummaries()
	applog.NewStructuredLogger(applog.FromContext(r.Context()).WithComponent(applog.ComponentLedger)).
		LogTransactionRecorded(r.Context(), t.ID, string(t.Type), t.Amount, t.Category)
	NewJSONResponse().Status(http.StatusCreated).Body(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Transactions.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.invalidateSummaries()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	txs, err := s.svc.Transactions.ListByMonth(r.Context(), userID, r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse().Body(txs).Write(w)
}

func (s *Server) handleTransactionSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	typ, err := queryType(r, core.Expense)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	totals, err := s.svc.Transactions.SummaryByMonth(r.Context(), userID, r.URL.Query().Get("month"), typ)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(totals).Write(w)
}
