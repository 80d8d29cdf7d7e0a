package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Coordinator applies lifecycle transitions and the rider offer protocol on top of a
// Repository. Every mutation runs inside Repository.Update, so concurrent calls on one
// order serialize and the later call sees the earlier result.
type Coordinator struct {
	repo           Repository
	publisher      Publisher
	logger         *slog.Logger
	maxQuantity    int
	publishTimeout time.Duration
	newID          func() string
	nowFunc        func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPublisher sets the event publisher. Without one, events are not emitted.
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// WithMaxQuantity overrides DefaultMaxQuantity.
func WithMaxQuantity(n int) Option {
	return func(c *Coordinator) { c.maxQuantity = n }
}

// WithIDGenerator overrides uuid-based order ids.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) { c.newID = fn }
}

// WithClock overrides time.Now for creation timestamps.
func WithClock(fn func() time.Time) Option {
	return func(c *Coordinator) { c.nowFunc = fn }
}

// NewCoordinator returns a Coordinator backed by repo.
func NewCoordinator(repo Repository, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		repo:           repo,
		logger:         logger,
		maxQuantity:    DefaultMaxQuantity,
		publishTimeout: DefaultMirrorTimeout,
		newID:          uuid.NewString,
		nowFunc:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create validates p and stores a new order in status placed.
func (c *Coordinator) Create(ctx context.Context, p NewOrderParams) (Order, error) {
	o, err := NewOrder(c.newID(), p, c.maxQuantity, c.nowFunc())
	if err != nil {
		return Order{}, err
	}
	if err := c.repo.Create(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateID) {
			c.logger.Error("generated order id collided", "order_id", o.OrderID)
		}
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	c.logger.Info("order created", "order_id", o.OrderID, "user_id", o.UserID, "vendor_id", o.VendorID, "amount", o.Amount)
	c.publish(ctx, newEvent(EventCreated, o, ""))
	return o, nil
}

// Get returns one order.
func (c *Coordinator) Get(ctx context.Context, orderID string) (Order, error) {
	return c.repo.Get(ctx, orderID)
}

// SetStatus moves the order to status. Setting the current status again is a no-op
// that returns the unchanged order. actorRiderID, when set, must match the assigned
// rider for out_for_delivery and delivered.
func (c *Coordinator) SetStatus(ctx context.Context, orderID string, status Status, actorRiderID string) (Order, error) {
	var changed bool
	o, err := c.repo.Update(ctx, orderID, func(o *Order) (bool, error) {
		ch, err := o.applyStatus(status, actorRiderID)
		changed = ch
		return ch, err
	})
	if err != nil {
		return o, err
	}
	if changed {
		c.logger.Info("order status changed", "order_id", o.OrderID, "status", o.Status, "version", o.Version)
		c.publish(ctx, newEvent(EventStatusChanged, o, o.AssignedRiderID))
	}
	return o, nil
}

// BeginAllocation offers a ready order to the first rider of pool not offered before.
// When nobody is eligible the order is returned unchanged with ErrAllocationExhausted.
func (c *Coordinator) BeginAllocation(ctx context.Context, orderID string, pool []string) (Order, error) {
	var exhausted bool
	o, err := c.repo.Update(ctx, orderID, func(o *Order) (bool, error) {
		ch, ex, err := o.beginAllocation(pool)
		exhausted = ex
		return ch, err
	})
	if err != nil {
		return o, err
	}
	if exhausted {
		return o, c.exhausted(ctx, o)
	}
	c.logger.Info("order offered", "order_id", o.OrderID, "rider_id", o.CurrentCandidateRiderID)
	c.publish(ctx, newEvent(EventOffered, o, o.CurrentCandidateRiderID))
	return o, nil
}

// Respond records riderID's decision on the open offer. A reject moves the offer to the
// next eligible rider; when none remains the committed order is returned together with
// ErrAllocationExhausted and stays in ready_for_pickup.
func (c *Coordinator) Respond(ctx context.Context, orderID, riderID string, d Decision) (Order, error) {
	var exhausted bool
	o, err := c.repo.Update(ctx, orderID, func(o *Order) (bool, error) {
		ex, err := o.respond(riderID, d)
		exhausted = ex
		return err == nil, err
	})
	if err != nil {
		return o, err
	}

	switch {
	case exhausted:
		return o, c.exhausted(ctx, o)
	case d == DecisionAccept:
		c.logger.Info("order assigned", "order_id", o.OrderID, "rider_id", o.AssignedRiderID)
		c.publish(ctx, newEvent(EventAssigned, o, o.AssignedRiderID))
	default:
		c.logger.Info("offer rejected, re-offered", "order_id", o.OrderID, "rejected_by", riderID, "rider_id", o.CurrentCandidateRiderID)
		c.publish(ctx, newEvent(EventOffered, o, o.CurrentCandidateRiderID))
	}
	return o, nil
}

func (c *Coordinator) exhausted(ctx context.Context, o Order) error {
	c.logger.Warn("rider allocation exhausted", "order_id", o.OrderID, "offered", len(o.CandidateRiders))
	c.publish(ctx, newEvent(EventAllocationExhausted, o, ""))
	return fmt.Errorf("%w: order %s", ErrAllocationExhausted, o.OrderID)
}

func (c *Coordinator) publish(ctx context.Context, ev Event) {
	if c.publisher == nil {
		return
	}
	ev.OccurredAt = c.nowFunc().UTC()
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.publishTimeout)
	defer cancel()
	if err := c.publisher.Publish(pctx, ev); err != nil {
		c.logger.Warn("publish event failed", "type", ev.Type, "order_id", ev.OrderID, "error", err)
	}
}
