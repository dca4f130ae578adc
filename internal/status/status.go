// Package status defines the order lifecycle vocabulary: the forward
// transition table, the cancellation policy and the display metadata.
// The tables are fixed business rules, not an extensible registry.
package status

// Status is one state of the order lifecycle.
type Status string

const (
	Pending    Status = "pending"
	Accepted   Status = "accepted"
	Preparing  Status = "preparing"
	Ready      Status = "ready"
	InDelivery Status = "in_delivery"
	Completed  Status = "completed"
	Cancelled  Status = "cancelled"
)

// OrderType distinguishes pickup orders from delivery orders. It only
// affects action labels, never the transition table.
type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

// forward is the single-successor table. Completed and Cancelled have no
// entry: they are terminal.
var forward = map[Status]Status{
	Pending:    Accepted,
	Accepted:   Preparing,
	Preparing:  Ready,
	Ready:      InDelivery,
	InDelivery: Completed,
}

// rank orders the forward chain so stale push events can be detected.
// Cancelled sits outside the chain and is handled explicitly.
var rank = map[Status]int{
	Pending:    0,
	Accepted:   1,
	Preparing:  2,
	Ready:      3,
	InDelivery: 4,
	Completed:  5,
}

// Next returns the forward successor of s, or false for terminal states
// and unknown values.
func Next(s Status) (Status, bool) {
	n, ok := forward[s]
	return n, ok
}

// CanAdvance reports whether s has a forward successor.
func CanAdvance(s Status) bool {
	_, ok := forward[s]
	return ok
}

// IsTerminal reports whether s admits no further transition.
func IsTerminal(s Status) bool {
	return s == Completed || s == Cancelled
}

// Valid reports whether s is part of the vocabulary.
func Valid(s Status) bool {
	if s == Cancelled {
		return true
	}
	_, ok := rank[s]
	return ok
}

// Rank returns the position of s on the forward chain. Cancelled and
// unknown values rank below Pending.
func Rank(s Status) int {
	if r, ok := rank[s]; ok {
		return r
	}
	return -1
}

// CancelPolicy decides from which states an order may be cancelled.
type CancelPolicy int

const (
	// CancelFromPending allows cancellation only before acceptance.
	CancelFromPending CancelPolicy = iota
	// CancelFromAnyActive allows cancellation from every non-terminal state.
	CancelFromAnyActive
)

// ParseCancelPolicy maps a config string to a policy. Unknown values fall
// back to the strict default.
func ParseCancelPolicy(s string) CancelPolicy {
	if s == "any_active" {
		return CancelFromAnyActive
	}
	return CancelFromPending
}

// CanTransition reports whether from → to is legal under policy p. Forward
// moves must follow the table one step at a time; cancellation depends on p.
func CanTransition(from, to Status, p CancelPolicy) bool {
	if to == Cancelled {
		if from == Pending {
			return true
		}
		return p == CancelFromAnyActive && !IsTerminal(from)
	}
	n, ok := forward[from]
	return ok && n == to
}

var labels = map[Status]string{
	Pending:    "Pendiente",
	Accepted:   "Aceptado",
	Preparing:  "En preparación",
	Ready:      "Listo",
	InDelivery: "En camino",
	Completed:  "Completado",
	Cancelled:  "Cancelado",
}

var colors = map[Status]string{
	Pending:    "#f59e0b",
	Accepted:   "#3b82f6",
	Preparing:  "#8b5cf6",
	Ready:      "#10b981",
	InDelivery: "#06b6d4",
	Completed:  "#6b7280",
	Cancelled:  "#ef4444",
}

// DisplayLabel returns the human label for s.
func DisplayLabel(s Status) string { return labels[s] }

// DisplayColor returns the hex color associated with s.
func DisplayColor(s Status) string { return colors[s] }

// ActionLabel returns the label of the action that advances an order
// currently at s. The Ready step splits by order type: pickup orders are
// announced to the customer, delivery orders go out the door.
func ActionLabel(s Status, t OrderType) string {
	switch s {
	case Pending:
		return "Aceptar pedido"
	case Accepted:
		return "Comenzar preparación"
	case Preparing:
		return "Marcar listo"
	case Ready:
		if t == OrderTypePickup {
			return "Listo para recoger"
		}
		return "Enviar a domicilio"
	case InDelivery:
		return "Completar pedido"
	default:
		return ""
	}
}
