package orders

import (
	"context"
	"slices"
	"strings"
)

// Mutation edits an order in place. Returning changed=false leaves the stored record,
// its updated_at and its version untouched. A non-nil error aborts the write.
type Mutation func(o *Order) (changed bool, err error)

// Repository stores orders. Update is a read-modify-write that implementations serialize
// per order id; all returned orders are copies.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, orderID string) (Order, error)
	Update(ctx context.Context, orderID string, fn Mutation) (Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
}

// Filter selects orders. Set fields combine with AND; zero fields match everything.
type Filter struct {
	UserID   string
	VendorID string
	RiderID  string // assigned rider or holder of the open offer
	Status   Status
}

// Match reports whether o passes f.
func (f Filter) Match(o Order) bool {
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	if f.VendorID != "" && o.VendorID != f.VendorID {
		return false
	}
	if f.RiderID != "" && o.AssignedRiderID != f.RiderID && o.CurrentCandidateRiderID != f.RiderID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return true
}

// sortNewestFirst orders by creation time descending, id as tie-break.
func sortNewestFirst(list []Order) {
	slices.SortStableFunc(list, func(a, b Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.OrderID, b.OrderID)
	})
}
