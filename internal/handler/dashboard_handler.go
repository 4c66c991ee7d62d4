package handler

import (
	"net/http"

	"booknest/internal/middleware"
	"booknest/internal/service"
)

type DashboardHandler struct {
	service    *service.DashboardService
	workspaces *service.Workspaces
}

func NewDashboardHandler(service *service.DashboardService, workspaces *service.Workspaces) *DashboardHandler {
	return &DashboardHandler{service: service, workspaces: workspaces}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ws := h.workspaces.Get(middleware.SessionIDFromContext(r.Context()))
	stats, err := h.service.Stats(r.Context(), ws.Scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats, nil)
}
