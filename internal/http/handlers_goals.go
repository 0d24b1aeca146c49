package http

import (
	"net/http"

	"tietkiem/internal/core"
	applog "tietkiem/internal/log"
)

type goalRequest struct {
	Name         string    `json:"name"`
	TargetAmount float64   `json:"targetAmount"`
	Deadline     core.Date `json:"deadline"`
	UserID       int64     `json:"userId"`
}

type depositRequest struct {
	Amount float64 `json:"amount"`
}

// goalView adds display strings to a goal with progress.
type goalView struct {
	core.GoalProgress
	TargetDisplay    string `json:"targetAmount_display"`
	CurrentDisplay   string `json:"currentAmount_display"`
	RemainingDisplay string `json:"remaining_display"`
	DeadlineDisplay  string `json:"deadline_display,omitempty"`
}

func newGoalView(p core.GoalProgress) goalView {
	return goalView{
		GoalProgress:     p,
		TargetDisplay:    core.FormatCurrency(p.TargetAmount),
		CurrentDisplay:   core.FormatCurrency(p.CurrentAmount),
		RemainingDisplay: core.FormatCurrency(p.Remaining),
		DeadlineDisplay:  core.FormatDate(p.Deadline),
	}
}

func goalViews(goals []core.GoalProgress) []goalView {
	out := make([]goalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalView(g))
	}
	return out
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	goals, err := s.svc.Savings.ListGoals(r.Context(), userID)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse().Body(goalViews(goals)).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	goal, err := s.svc.Savings.CreateGoal(r.Context(), sanitizeInput(req.Name), req.TargetAmount, req.Deadline, req.UserID)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newGoalView(core.CalculateProgress(goal))).Write(w)
}

func (s *Server) handleGoalSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	summary, err := s.svc.Savings.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(struct {
		core.GoalSummary
		Goals               []goalView `json:"goals"`
		TotalTargetDisplay  string     `json:"totalTarget_display"`
		TotalCurrentDisplay string     `json:"totalCurrent_display"`
	}{
		GoalSummary:         summary,
		Goals:               goalViews(summary.Goals),
		TotalTargetDisplay:  core.FormatCurrency(summary.TotalTarget),
		TotalCurrentDisplay: core.FormatCurrency(summary.TotalCurrent),
	}).Write(w)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	goal, err := s.svc.Savings.GetGoal(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(newGoalView(goal)).Write(w)
}

// handleUpdateGoal accepts a partial body; "deadline": "" clears the deadline.
func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var patch core.GoalPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	if patch.Name != nil {
		name := sanitizeInput(*patch.Name)
		patch.Name = &name
	}
	goal, err := s.svc.Savings.UpdateGoal(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(newGoalView(core.CalculateProgress(goal))).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Savings.DeleteGoal(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpDeposit, err)
		return
	}
	var req depositRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpDeposit, err)
		return
	}
	progress, err := s.svc.Savings.AddAmount(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, r, applog.OpDeposit, err)
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentSavings).InfoContext(r.Context(), "Goal deposit",
		applog.FieldGoalID, id, applog.FieldAmount, req.Amount, "progress", progress.Progress)
	NewJSONResponse().Body(newGoalView(progress)).Write(w)
}
