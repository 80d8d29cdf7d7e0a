package orders

import "time"

// Status is the lifecycle state of an order.
type Status string

// Order statuses
const (
	StatusPlaced         Status = "placed"
	StatusAccepted       Status = "accepted"
	StatusPreparing      Status = "preparing"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// AllocationStatus tracks rider allocation progress.
type AllocationStatus string

const (
	AllocationUnassigned AllocationStatus = "unassigned"
	AllocationOffered    AllocationStatus = "offered"
	AllocationAssigned   AllocationStatus = "assigned"
)

// Decision is a rider's answer to an offer.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Order represents the item stored in the orders table and returned by the API.
type Order struct {
	OrderID    string `json:"order_id" dynamodbav:"order_id"` // PK
	UserID     string `json:"user_id" dynamodbav:"user_id"`
	Phone      string `json:"phone" dynamodbav:"phone"`
	Address    string `json:"address" dynamodbav:"address"`
	VendorID   string `json:"vendor_id" dynamodbav:"vendor_id"`
	VendorName string `json:"vendor_name" dynamodbav:"vendor_name"`

	DishID    string  `json:"dish_id" dynamodbav:"dish_id"`
	DishTitle string  `json:"dish_title" dynamodbav:"dish_title"`
	Quantity  int     `json:"quantity" dynamodbav:"quantity"`
	Price     float64 `json:"price" dynamodbav:"price"`   // unit price
	Amount    float64 `json:"amount" dynamodbav:"amount"` // price * quantity

	Status                  Status           `json:"status" dynamodbav:"status"`
	AllocationStatus        AllocationStatus `json:"allocation_status" dynamodbav:"allocation_status"`
	AssignedRiderID         string           `json:"assigned_rider_id,omitempty" dynamodbav:"assigned_rider_id,omitempty"`
	CandidatePool           []string         `json:"candidate_pool,omitempty" dynamodbav:"candidate_pool,omitempty"`
	CandidateRiders         []string         `json:"candidate_riders" dynamodbav:"candidate_riders"` // riders offered so far, in order
	CurrentCandidateRiderID string           `json:"current_candidate_rider_id,omitempty" dynamodbav:"current_candidate_rider_id,omitempty"`

	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
	Version   int64     `json:"version" dynamodbav:"version"` // bumped on every committed mutation
}

// Clone returns a deep copy so callers never share slices with a store.
func (o Order) Clone() Order {
	o.CandidatePool = cloneStrings(o.CandidatePool)
	o.CandidateRiders = cloneStrings(o.CandidateRiders)
	return o
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
