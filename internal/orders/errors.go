package orders

import "errors"

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when no order has the requested id.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateID is returned when an order id is already present in the store.
	ErrDuplicateID = errors.New("duplicate order id")
	// ErrInvalidTransition is returned for a status change outside the lifecycle graph.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPrecondition is returned when a legal transition is attempted in the wrong allocation state.
	ErrPrecondition = errors.New("precondition failed")
	// ErrUnauthorizedActor is returned when a rider acts on an order it does not hold.
	ErrUnauthorizedActor = errors.New("unauthorized actor")
	// ErrNoOfferOutstanding is returned when a rider responds while no offer is open.
	ErrNoOfferOutstanding = errors.New("no offer outstanding")
	// ErrConflict is returned when a concurrent writer won a compare-and-swap race.
	ErrConflict = errors.New("concurrent modification")
	// ErrAllocationExhausted signals that no eligible rider remains. It accompanies a
	// committed order and is not a failure of the request.
	ErrAllocationExhausted = errors.New("allocation exhausted")
)
