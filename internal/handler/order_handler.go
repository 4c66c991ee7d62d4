package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"booknest/internal/middleware"
	"booknest/internal/model"
	"booknest/internal/service"
)

type OrderHandler struct {
	workspaces *service.Workspaces
}

func NewOrderHandler(workspaces *service.Workspaces) *OrderHandler {
	return &OrderHandler{workspaces: workspaces}
}

func (h *OrderHandler) queue(r *http.Request) *service.OrderQueue {
	return h.workspaces.Get(middleware.SessionIDFromContext(r.Context())).Orders
}

func (h *OrderHandler) Pending(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queue(r).Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, orders, &model.Meta{Total: len(orders)})
}

func (h *OrderHandler) Process(w http.ResponseWriter, r *http.Request) {
	result, err := h.queue(r).Process(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *OrderHandler) Retry(w http.ResponseWriter, r *http.Request) {
	queue := h.queue(r)
	message, err := queue.Retry(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	pending := queue.Pending()
	writeSuccess(w, http.StatusOK, map[string]any{"message": message, "orders": pending}, &model.Meta{Total: len(pending)})
}

func (h *OrderHandler) Resend(w http.ResponseWriter, r *http.Request) {
	message, err := h.queue(r).Resend(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"message": message}, nil)
}
