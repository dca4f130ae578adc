package order

// CreateOrderItem payload de ítem.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	Name     string `json:"name"     example:"Tacos al pastor"`
	Quantity int    `json:"quantity" example:"2"`
	Price    string `json:"price"    example:"45.50"`
	Note     string `json:"note,omitempty" example:"sin cebolla"`
}

// CreateOrderRequest payload de creación de pedido.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	BusinessID      string            `json:"business_id" example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	UserID          string            `json:"user_id"     example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	CustomerName    string            `json:"customer_name"  example:"María Pérez"`
	CustomerPhone   string            `json:"customer_phone" example:"+52 55 1234 5678"`
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	PaymentMethod   string            `json:"payment_method" example:"cash"`
	OrderType       string            `json:"order_type"     example:"delivery"`
	Items           []CreateOrderItem `json:"items"`
}

// UpdateStatusRequest payload de cambio de estado.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" example:"accepted"`
	Note   string `json:"note,omitempty" example:"Confirmado"`
}
