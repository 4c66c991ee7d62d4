package handler

import (
	"net/http"

	"booknest/internal/middleware"
	"booknest/internal/model"
	"booknest/internal/service"
)

type AuthHandler struct {
	service    *service.AuthService
	workspaces *service.Workspaces
}

func NewAuthHandler(service *service.AuthService, workspaces *service.Workspaces) *AuthHandler {
	return &AuthHandler{service: service, workspaces: workspaces}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	message, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]string{"message": message, "redirect": "/login"}, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	ws := h.workspaces.Get(middleware.SessionIDFromContext(r.Context()))
	resp, err := h.service.Login(r.Context(), ws.Scope, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, resp, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if err := h.service.Logout(r.Context(), h.workspaces.Get(sessionID).Scope); err != nil {
		writeError(w, err)
		return
	}
	h.workspaces.Drop(sessionID)

	writeSuccess(w, http.StatusOK, map[string]string{
		"message":  "You have been successfully logged out.",
		"redirect": "/login",
	}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ws := h.workspaces.Get(middleware.SessionIDFromContext(r.Context()))
	sess, err := h.service.Current(r.Context(), ws.Scope)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, sess, nil)
}
