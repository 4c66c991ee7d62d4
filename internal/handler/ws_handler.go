package handler

import (
	"log/slog"
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"booknest/internal/middleware"
	"booknest/internal/websocket"
)

type EventsHandler struct {
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
}

func NewEventsHandler(hub *websocket.Hub, allowedOrigins []string) *EventsHandler {
	return &EventsHandler{hub: hub, upgrader: websocket.Upgrader(allowedOrigins)}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	// The upgrader has already answered the client on failure.
	if err := h.hub.Serve(&h.upgrader, w, r, sessionID); err != nil {
		slog.Debug("websocket upgrade failed", "session_id", sessionID, "error", err)
	}
}
