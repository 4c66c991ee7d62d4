package service

import (
	"sync"
	"time"

	"booknest/internal/event"
)

type workspaceAPI interface {
	cartAPI
	orderAPI
}

// Workspace holds the view state of one browser session.
type Workspace struct {
	Scope  SessionScope
	Cart   *CartSynchronizer
	Orders *OrderQueue

	lastUsed time.Time
}

// Workspaces is the registry of live workspaces keyed by session id.
type Workspaces struct {
	api      workspaceAPI
	bus      event.Bus
	newScope func(sessionID string) SessionScope
	now      func() time.Time

	mu    sync.Mutex
	items map[string]*Workspace
}

func NewWorkspaces(api workspaceAPI, bus event.Bus, newScope func(sessionID string) SessionScope) *Workspaces {
	if bus == nil {
		bus = event.Nop{}
	}
	return &Workspaces{
		api:      api,
		bus:      bus,
		newScope: newScope,
		now:      time.Now,
		items:    make(map[string]*Workspace),
	}
}

// Get returns the workspace for sessionID, creating it on first use.
func (w *Workspaces) Get(sessionID string) *Workspace {
	w.mu.Lock()
	defer w.mu.Unlock()

	ws, ok := w.items[sessionID]
	if !ok {
		scope := w.newScope(sessionID)
		ws = &Workspace{
			Scope:  scope,
			Cart:   NewCartSynchronizer(w.api, scope, w.bus),
			Orders: NewOrderQueue(w.api, scope, w.bus),
		}
		w.items[sessionID] = ws
	}
	ws.lastUsed = w.now()

	return ws
}

// Drop forgets the workspace, typically after logout or expiry.
func (w *Workspaces) Drop(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.items, sessionID)
}

// Sweep evicts workspaces unused for longer than idle and reports how many
// were removed.
func (w *Workspaces) Sweep(idle time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-idle)
	removed := 0
	for id, ws := range w.items {
		if ws.lastUsed.Before(cutoff) {
			delete(w.items, id)
			removed++
		}
	}
	return removed
}

func (w *Workspaces) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}
