package http

import (
	"net/http"

	applog "tietkiem/internal/log"
)

type askRequest struct {
	Question string         `json:"question"`
	Context  map[string]any `json:"context"`
}

// Advisor failures are reported in the body with success=false; only
// malformed requests and missing goals change the status code.

func (s *Server) handleAdvisorHealth(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		writeError(w, r, applog.OpAdvise, err)
		return
	}
	months, err := queryInt(r, "months", s.opts.FinancialDataMonths)
	if err != nil {
		writeError(w, r, applog.OpAdvise, err)
		return
	}
	data := s.svc.Savings.FinancialData(r.Context(), userID, months)
	NewJSONResponse().Body(s.svc.Advisor.AnalyzeHealth(r.Context(), data)).Write(w)
}

func (s *Server) handleAdvisorPlan(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpAdvise, err)
		return
	}
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		writeError(w, r, applog.OpAdvise, err)
		return
	}
	goal, in, err := s.svc.Savings.SavingsPlanInput(r.Context(), goalID, userID, s.opts.FinancialDataMonths)
	if err != nil {
		writeError(w, r, applog.OpAdvise, err)
		return
	}
	NewJSONResponse().Body(s.svc.Advisor.SuggestSavingsPlan(r.Context(), goal.Brief(), in)).Write(w)
}

func (s *Server) handleAdvisorAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpAdvise, err)
		return
	}
	NewJSONResponse().Body(s.svc.Advisor.QuickAdvice(r.Context(), sanitizeInput(req.Question), req.Context)).Write(w)
}
