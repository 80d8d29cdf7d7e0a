package orders

import (
	"context"
	"time"
)

// EventType names a committed order change.
type EventType string

const (
	EventCreated             EventType = "order.created"
	EventStatusChanged       EventType = "order.status_changed"
	EventOffered             EventType = "order.offered"
	EventAssigned            EventType = "order.assigned"
	EventAllocationExhausted EventType = "order.allocation_exhausted"
)

// Event is the message published after an order change.
type Event struct {
	Type       EventType `json:"type"`
	OrderID    string    `json:"order_id"`
	Status     Status    `json:"status"`
	RiderID    string    `json:"rider_id,omitempty"`
	Version    int64     `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events to subscribers (SQS in production).
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func newEvent(t EventType, o Order, riderID string) Event {
	return Event{
		Type:    t,
		OrderID: o.OrderID,
		Status:  o.Status,
		RiderID: riderID,
		Version: o.Version,
	}
}
