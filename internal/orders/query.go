package orders

import (
	"context"
	"fmt"
)

// Query is a list request. Non-admin queries must be scoped to exactly one of user,
// vendor or rider; admin queries may omit scoping. Status narrows either kind.
type Query struct {
	Filter
	Admin bool
}

// Validate enforces the scoping rule.
func (q Query) Validate() error {
	if q.Status != "" && !q.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, q.Status)
	}
	if q.Admin {
		return nil
	}
	scopes := 0
	for _, v := range []string{q.UserID, q.VendorID, q.RiderID} {
		if v != "" {
			scopes++
		}
	}
	if scopes != 1 {
		return fmt.Errorf("%w: exactly one of user, vendor or rider is required", ErrValidation)
	}
	return nil
}

// List returns a newest-first snapshot of the orders matching q.
func (c *Coordinator) List(ctx context.Context, q Query) ([]Order, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return c.repo.List(ctx, q.Filter)
}
