package menu

import "time"

type Item struct {
	ID          string `json:"id"`
	BusinessID  string `json:"business_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// We store price as a string to avoid rounding errors (NUMERIC in Postgres)
	Price     string    `json:"price"`
	Category  string    `json:"category,omitempty"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateItemRequest payload de creación.
// swagger:model CreateMenuItemRequest
type CreateItemRequest struct {
	Name        string `json:"name"        example:"Tacos al pastor"`
	Description string `json:"description" example:"Orden de 5 con piña"`
	Price       string `json:"price"       example:"45.50"`
	Category    string `json:"category"    example:"tacos"`
	Available   *bool  `json:"available,omitempty"`
}

// UpdateItemRequest payload de actualización parcial.
// swagger:model UpdateMenuItemRequest
type UpdateItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Available   *bool  `json:"available,omitempty"`
}
