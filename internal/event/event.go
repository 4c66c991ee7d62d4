package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeCartUpdated    Type = "cart.updated"
	TypeCartFailed     Type = "cart.failed"
	TypeOrderProcessed Type = "order.processed"
	TypeOrdersLoaded   Type = "orders.loaded"
	TypeSessionStarted Type = "session.started"
	TypeSessionEnded   Type = "session.ended"
	TypeSessionExpired Type = "session.expired"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
	// SessionID routes the event to the owning browser only.
	SessionID string `json:"-"`
}

func New(sessionID string, typ Type, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: sessionID,
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}

// Nop discards every event. Used where no listener exists, such as the
// terminal client.
type Nop struct{}

func (Nop) Publish(Event) {}

func (Nop) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event)
	return ch, func() {}
}
