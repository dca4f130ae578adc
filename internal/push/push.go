// Package push delivers server-initiated order events into the sync
// engine. Delivery is at-least-once and unordered relative to REST
// responses; consumers must deduplicate.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MikeMC777/pedidos-live/internal/order"
	"github.com/MikeMC777/pedidos-live/internal/status"
)

// ScopeKind selects which kind of room a subscriber joins.
type ScopeKind string

const (
	ScopeBusiness ScopeKind = "business"
	ScopeUser     ScopeKind = "user"
)

// Scope bounds one subscription: all orders of one business or one user.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// Room is the wire name of the scope's room, e.g. "business:biz-1".
func (s Scope) Room() string { return fmt.Sprintf("%s:%s", s.Kind, s.ID) }

// Event is either OrderCreated or StatusChanged; dispatch by type switch.
type Event interface{ event() }

// OrderCreated carries the full payload of a newly placed order.
type OrderCreated struct {
	Order *order.Order
}

// StatusChanged carries a partial status update for a known order.
type StatusChanged struct {
	OrderID   string
	Status    status.Status
	Note      string
	Timestamp time.Time
}

func (OrderCreated) event()  {}
func (StatusChanged) event() {}

// Channel is a realtime event source for one scope. Implementations own
// the connection lifecycle (connect, reconnect, disconnect); the engine
// only consumes events. The returned channel closes when ctx is done or
// the connection is lost for good.
type Channel interface {
	Subscribe(ctx context.Context, scope Scope) (<-chan Event, error)
}

// Wire event names, shared by the SSE hub and the Kafka topic.
const (
	wireOrderNew     = "order:new"
	wireStatusUpdate = "order:status_update"
)

// statusUpdateWire tolerates both field spellings the backend has used for
// the new status.
type statusUpdateWire struct {
	OrderID   string        `json:"order_id"`
	Status    status.Status `json:"status"`
	NewStatus status.Status `json:"new_status"`
	Note      string        `json:"note"`
	Timestamp time.Time     `json:"timestamp"`
}

// decodeEvent normalizes one wire event into an Event.
func decodeEvent(name string, payload []byte) (Event, error) {
	switch name {
	case wireOrderNew:
		var o order.Order
		if err := json.Unmarshal(payload, &o); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return OrderCreated{Order: &o}, nil
	case wireStatusUpdate:
		var w statusUpdateWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		st := w.NewStatus
		if st == "" {
			st = w.Status
		}
		return StatusChanged{
			OrderID:   w.OrderID,
			Status:    st,
			Note:      w.Note,
			Timestamp: w.Timestamp,
		}, nil
	default:
		return nil, fmt.Errorf("unknown push event %q", name)
	}
}
