package validation

// CreateOrderRequest is the payload for POST /orders
type CreateOrderRequest struct {
	UserID     string  `json:"user_id" validate:"required,max=128"`
	VendorID   string  `json:"vendor_id" validate:"required,max=128"`
	VendorName string  `json:"vendor_name" validate:"required,max=256"`
	DishID     string  `json:"dish_id" validate:"required,max=128"`
	DishTitle  string  `json:"dish_title" validate:"required,max=256"`
	Quantity   int     `json:"quantity" validate:"required,min=1"` // upper bound checked at struct level
	Price      float64 `json:"price" validate:"required,gt=0"`     // price per unit
	Address    string  `json:"address" validate:"required,max=512"`
	Phone      string  `json:"phone" validate:"required,max=32"`
}

// UpdateStatusRequest is the payload for POST /orders/status
type UpdateStatusRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=placed accepted preparing ready_for_pickup out_for_delivery delivered cancelled"`
	RiderID string `json:"rider_id,omitempty"`
}

// RiderResponseRequest is the payload for POST /orders/rider-response
type RiderResponseRequest struct {
	OrderID  string `json:"order_id" validate:"required"`
	RiderID  string `json:"rider_id" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=accept reject"`
}

// AllocateRequest is the payload for POST /orders/allocate. Riders are in offer order.
type AllocateRequest struct {
	OrderID string   `json:"order_id" validate:"required"`
	Riders  []string `json:"riders" validate:"dive,required"`
}
