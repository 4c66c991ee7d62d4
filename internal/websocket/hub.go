// Package websocket pushes storefront events to the browser that owns the
// session they belong to.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"booknest/internal/event"
)

type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	bus event.Bus
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		bus:        bus,
	}
}

// Run dispatches bus events until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			h.remove(client)
		case e, ok := <-events:
			if !ok {
				return
			}
			h.dispatch(e)
		}
	}
}

func (h *Hub) dispatch(e event.Event) {
	message, err := json.Marshal(e)
	if err != nil {
		slog.Error("failed to marshal event", "type", e.Type, "error", err)
		return
	}

	for client := range h.clients {
		if client.sessionID != e.SessionID {
			continue
		}
		select {
		case client.send <- message:
		default:
			slog.Warn("dropping slow websocket client", "session_id", client.sessionID)
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}
