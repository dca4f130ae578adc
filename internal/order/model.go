package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/pedidos-live/internal/status"
)

// Item is one line of an order. Items are immutable after creation.
type Item struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"` // NUMERIC in Postgres, decimal here to avoid rounding errors
	Note     string          `json:"note,omitempty"`
}

// HistoryEntry is one step of the status history, oldest first. The first
// entry corresponds to creation.
type HistoryEntry struct {
	Status    status.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Note      string        `json:"note,omitempty"`
}

// Order is one placed purchase. Status and the history advance together;
// everything else is immutable once the backend assigns the id.
type Order struct {
	ID              string           `json:"id"`
	BusinessID      string           `json:"business_id"`
	UserID          string           `json:"user_id"`
	Status          status.Status    `json:"status"`
	Items           []Item           `json:"items"`
	Total           decimal.Decimal  `json:"total"`
	CustomerName    string           `json:"customer_name"`
	CustomerPhone   string           `json:"customer_phone"`
	DeliveryAddress string           `json:"delivery_address,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	PaymentMethod   string           `json:"payment_method"`
	OrderType       status.OrderType `json:"order_type"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	StatusHistory   []HistoryEntry   `json:"status_history"`
}

// Clone returns a deep copy. Slices are copied so a snapshot taken before
// an optimistic patch survives the patch.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	cp.StatusHistory = append([]HistoryEntry(nil), o.StatusHistory...)
	return &cp
}

// LastHistory returns the most recent history entry. ok is false only for
// malformed orders; a well-formed order always has at least one entry.
func (o *Order) LastHistory() (HistoryEntry, bool) {
	if len(o.StatusHistory) == 0 {
		return HistoryEntry{}, false
	}
	return o.StatusHistory[len(o.StatusHistory)-1], true
}

// TotalFromItems derives the order total as sum(price * quantity).
func TotalFromItems(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
