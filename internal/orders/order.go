package orders

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultMaxQuantity bounds the quantity of a single order line.
const DefaultMaxQuantity = 5

// NewOrderParams carries the client-supplied fields of a new order.
type NewOrderParams struct {
	UserID     string
	VendorID   string
	VendorName string
	DishID     string
	DishTitle  string
	Quantity   int
	Price      float64
	Address    string
	Phone      string
}

// NewOrder validates p and builds an order in its initial state.
// maxQuantity <= 0 selects DefaultMaxQuantity.
func NewOrder(id string, p NewOrderParams, maxQuantity int, now time.Time) (Order, error) {
	if maxQuantity <= 0 {
		maxQuantity = DefaultMaxQuantity
	}

	var errs []error
	required := []struct{ name, value string }{
		{"order_id", id},
		{"user_id", p.UserID},
		{"vendor_id", p.VendorID},
		{"vendor_name", p.VendorName},
		{"dish_id", p.DishID},
		{"dish_title", p.DishTitle},
		{"address", p.Address},
		{"phone", p.Phone},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("%w: %s is required", ErrValidation, f.name))
		}
	}
	if p.Quantity < 1 || p.Quantity > maxQuantity {
		errs = append(errs, fmt.Errorf("%w: quantity %d outside 1..%d", ErrValidation, p.Quantity, maxQuantity))
	}
	if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		errs = append(errs, fmt.Errorf("%w: price must be positive", ErrValidation))
	}
	if err := errors.Join(errs...); err != nil {
		return Order{}, err
	}

	now = now.UTC()
	return Order{
		OrderID:          id,
		UserID:           p.UserID,
		Phone:            p.Phone,
		Address:          p.Address,
		VendorID:         p.VendorID,
		VendorName:       p.VendorName,
		DishID:           p.DishID,
		DishTitle:        p.DishTitle,
		Quantity:         p.Quantity,
		Price:            p.Price,
		Amount:           math.Round(p.Price*float64(p.Quantity)*100) / 100,
		Status:           StatusPlaced,
		AllocationStatus: AllocationUnassigned,
		CandidateRiders:  []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}, nil
}

// applyStatus moves o to next. It reports false when next is already the current status.
func (o *Order) applyStatus(next Status, actorRiderID string) (bool, error) {
	if !next.Valid() {
		return false, fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}
	if o.Status == next {
		return false, nil
	}
	if !CanTransition(o.Status, next) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}

	switch next {
	case StatusOutForDelivery, StatusDelivered:
		if o.AssignedRiderID == "" {
			return false, fmt.Errorf("%w: %s requires an assigned rider", ErrPrecondition, next)
		}
		if actorRiderID != "" && actorRiderID != o.AssignedRiderID {
			return false, fmt.Errorf("%w: rider %s is not assigned to order %s", ErrUnauthorizedActor, actorRiderID, o.OrderID)
		}
	case StatusCancelled:
		if o.AllocationStatus == AllocationOffered {
			o.CurrentCandidateRiderID = ""
			o.AllocationStatus = AllocationUnassigned
		}
	}

	o.Status = next
	return true, nil
}
