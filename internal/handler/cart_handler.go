package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"booknest/internal/middleware"
	"booknest/internal/model"
	"booknest/internal/service"
	"booknest/pkg/apierror"
)

// CartHandler exposes the session's cart synchronizer. Every response
// carries the snapshot taken after the operation.
type CartHandler struct {
	workspaces *service.Workspaces
}

func NewCartHandler(workspaces *service.Workspaces) *CartHandler {
	return &CartHandler{workspaces: workspaces}
}

func (h *CartHandler) cart(r *http.Request) *service.CartSynchronizer {
	return h.workspaces.Get(middleware.SessionIDFromContext(r.Context())).Cart
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart := h.cart(r)
	if err := cart.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, cart.Snapshot(), nil)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload model.AddCartItemRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	cart := h.cart(r)
	if err := cart.AddItem(r.Context(), payload.BookID, payload.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, cart.Snapshot(), nil)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	bookID, err := bookIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateCartItemRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	cart := h.cart(r)
	if err := cart.SetQuantity(r.Context(), bookID, payload.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, cart.Snapshot(), nil)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	bookID, err := bookIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	cart := h.cart(r)
	if err := cart.RemoveItem(r.Context(), bookID); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, cart.Snapshot(), nil)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cart := h.cart(r)
	if err := cart.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, cart.Snapshot(), nil)
}

func bookIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "bookId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.New("BAD_REQUEST", "A valid book is required", "bookId", http.StatusBadRequest)
	}
	return id, nil
}
