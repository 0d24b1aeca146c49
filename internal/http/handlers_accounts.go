package http

import (
	"net/http"

	"tietkiem/internal/core"
	applog "tietkiem/internal/log"
	"tietkiem/internal/services"
)

type accountRequest struct {
	Name          string  `json:"name"`
	Bank          string  `json:"bank"`
	AccountNumber string  `json:"accountNumber"`
	Balance       float64 `json:"balance"`
}

type accountView struct {
	core.Account
	BalanceDisplay string `json:"balance_display"`
}

func newAccountView(a core.Account) accountView {
	return accountView{Account: a, BalanceDisplay: core.FormatCurrency(a.Balance)}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.Accounts.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountView(a))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	account, err := s.svc.Accounts.CreateAccount(r.Context(),
		sanitizeInput(req.Name), sanitizeInput(req.Bank), sanitizeInput(req.AccountNumber), req.Balance)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newAccountView(account)).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	account, err := s.svc.Accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(newAccountView(account)).Write(w)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpRecompute, err)
		return
	}
	balance, err := s.svc.Accounts.RecalculateBalance(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRecompute, err)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"id":              id,
		"balance":         balance,
		"balance_display": core.FormatCurrency(balance),
	}).Write(w)
}

// handleImport reads a CSV statement from the request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpImport, err)
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxCSVBody)
	result, err := s.svc.Accounts.ImportCSVStatement(r.Context(), id, body)
	if err != nil {
		writeError(w, r, applog.OpImport, err)
		return
	}
	if result.Imported > 0 {
		s.invalidateSummaries()
	}

	applog.FromContext(r.Context()).WithComponent(applog.ComponentImport).InfoContext(r.Context(), "Statement imported",
		applog.FieldAccountID, id, "imported", result.Imported, "row_errors", len(result.Errors))

	status := http.StatusOK
	if result.Imported == 0 && len(result.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	NewJSONResponse().Status(status).Body(result).Write(w)
}

func (s *Server) handleCreateAccountTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	var req services.NewTransaction
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	req.Category = sanitizeInput(req.Category)
	req.Note = sanitizeInput(req.Note)

	t, err := s.svc.Transactions.CreateAccountTransaction(r.Context(), id, req)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.invalidateSummaries()
	applog.NewStructuredLogger(applog.FromContext(r.Context()).WithComponent(applog.ComponentLedger)).
		LogTransactionRecorded(r.Context(), t.ID, string(t.Type), t.Amount, t.Category)
	NewJSONResponse().Status(http.StatusCreated).Body(t).Write(w)
}

func (s *Server) handleListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	txs, err := s.svc.Transactions.ListByAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse().Body(txs).Write(w)
}
