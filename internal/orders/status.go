package orders

import "fmt"

// allowed is the forward transition graph. Cancellation is not an edge here: any
// non-terminal status may move to cancelled, ready_for_pickup and out_for_delivery
// included. Cancelling withdraws an open rider offer (see applyStatus).
var allowed = map[Status]Status{
	StatusPlaced:         StatusAccepted,
	StatusAccepted:       StatusPreparing,
	StatusPreparing:      StatusReadyForPickup,
	StatusReadyForPickup: StatusOutForDelivery,
	StatusOutForDelivery: StatusDelivered,
}

// ParseStatus validates a wire value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPlaced, StatusAccepted, StatusPreparing, StatusReadyForPickup,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition checks if from->to is an edge of the lifecycle graph.
func CanTransition(from, to Status) bool {
	if !from.Valid() || from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	next, ok := allowed[from]
	return ok && next == to
}
