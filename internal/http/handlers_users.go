package http

import (
	"net/http"

	"tietkiem/internal/core"
	applog "tietkiem/internal/log"
	"tietkiem/internal/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type categoryRequest struct {
	UserID int64       `json:"userId"`
	Name   string      `json:"name"`
	Type   core.TxType `json:"type"`
	Icon   string      `json:"icon"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req services.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	req.Username = sanitizeInput(req.Username)
	req.Name = sanitizeInput(req.Name)
	req.Email = sanitizeInput(req.Email)
	req.Phone = sanitizeInput(req.Phone)

	user, err := s.svc.Users.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(user).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	user, err := s.svc.Users.Authenticate(r.Context(), sanitizeInput(req.Username), req.Password)
	if err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(),
			"Login failed", "username", req.Username)
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(user).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	typ := core.TxType(r.URL.Query().Get("type"))
	cats, err := s.svc.Categories.List(r.Context(), userID, typ)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	cat, err := s.svc.Categories.Create(r.Context(), req.UserID, sanitizeInput(req.Name), req.Type, sanitizeInput(req.Icon))
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(cat).Write(w)
}
