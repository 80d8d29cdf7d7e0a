package orders

import "fmt"

// NextCandidate returns the first rider in pool that is not in offered.
// The pool order is the caller's ranking; it is never reordered here.
func NextCandidate(pool, offered []string) (string, bool) {
	seen := make(map[string]struct{}, len(offered))
	for _, id := range offered {
		seen[id] = struct{}{}
	}
	for _, id := range pool {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; !ok {
			return id, true
		}
	}
	return "", false
}

// beginAllocation opens an offer to the first eligible rider of pool.
// exhausted is true when nobody could be offered; o is then left untouched.
func (o *Order) beginAllocation(pool []string) (changed, exhausted bool, err error) {
	if o.Status != StatusReadyForPickup {
		return false, false, fmt.Errorf("%w: allocation requires %s, order is %s", ErrPrecondition, StatusReadyForPickup, o.Status)
	}
	if o.AllocationStatus != AllocationUnassigned {
		return false, false, fmt.Errorf("%w: allocation already %s", ErrPrecondition, o.AllocationStatus)
	}

	rider, ok := NextCandidate(pool, o.CandidateRiders)
	if !ok {
		return false, true, nil
	}
	o.CandidatePool = cloneStrings(pool)
	o.offer(rider)
	return true, false, nil
}

func (o *Order) offer(rider string) {
	o.CandidateRiders = append(o.CandidateRiders, rider)
	o.CurrentCandidateRiderID = rider
	o.AllocationStatus = AllocationOffered
}

// respond applies a rider decision to the open offer. On reject the next eligible
// rider of the stored pool is offered; exhausted reports that none remained.
func (o *Order) respond(riderID string, d Decision) (exhausted bool, err error) {
	if d != DecisionAccept && d != DecisionReject {
		return false, fmt.Errorf("%w: unknown decision %q", ErrValidation, d)
	}
	if o.AllocationStatus != AllocationOffered || o.CurrentCandidateRiderID == "" {
		return false, fmt.Errorf("%w: order %s", ErrNoOfferOutstanding, o.OrderID)
	}
	if riderID != o.CurrentCandidateRiderID {
		return false, fmt.Errorf("%w: rider %s does not hold the offer for order %s", ErrUnauthorizedActor, riderID, o.OrderID)
	}

	o.CurrentCandidateRiderID = ""
	if d == DecisionAccept {
		o.AssignedRiderID = riderID
		o.AllocationStatus = AllocationAssigned
		return false, nil
	}

	if next, ok := NextCandidate(o.CandidatePool, o.CandidateRiders); ok {
		o.offer(next)
		return false, nil
	}
	o.AllocationStatus = AllocationUnassigned
	return true, nil
}
