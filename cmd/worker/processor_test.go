package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/orders"
)

type fakeAllocator struct {
	calls []string
	pools [][]string
	err   error
}

func (f *fakeAllocator) BeginAllocation(ctx context.Context, orderID string, pool []string) (orders.Order, error) {
	f.calls = append(f.calls, orderID)
	f.pools = append(f.pools, pool)
	if f.err != nil {
		return orders.Order{OrderID: orderID}, f.err
	}
	return orders.Order{OrderID: orderID, CurrentCandidateRiderID: pool[0]}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sqsEvent(t *testing.T, evs ...orders.Event) events.SQSEvent {
	t.Helper()
	var out events.SQSEvent
	for i, ev := range evs {
		b, err := json.Marshal(ev)
		require.NoError(t, err)
		out.Records = append(out.Records, events.SQSMessage{MessageId: fmt.Sprintf("m%d", i), Body: string(b)})
	}
	return out
}

func TestProcessor_AllocatesReadyOrders(t *testing.T) {
	alloc := &fakeAllocator{}
	p := NewProcessor(alloc, []string{"r1", "r2"}, quietLogger())

	err := p.Handle(context.Background(), sqsEvent(t,
		orders.Event{Type: orders.EventCreated, OrderID: "o1", Status: orders.StatusPlaced},
		orders.Event{Type: orders.EventStatusChanged, OrderID: "o1", Status: orders.StatusPreparing},
		orders.Event{Type: orders.EventStatusChanged, OrderID: "o1", Status: orders.StatusReadyForPickup},
		orders.Event{Type: orders.EventOffered, OrderID: "o1", Status: orders.StatusReadyForPickup},
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, alloc.calls)
	assert.Equal(t, []string{"r1", "r2"}, alloc.pools[0])
}

func TestProcessor_EmptyPoolSkips(t *testing.T) {
	alloc := &fakeAllocator{}
	p := NewProcessor(alloc, nil, quietLogger())

	err := p.Handle(context.Background(), sqsEvent(t,
		orders.Event{Type: orders.EventStatusChanged, OrderID: "o1", Status: orders.StatusReadyForPickup},
	))
	require.NoError(t, err)
	assert.Empty(t, alloc.calls)
}

func TestProcessor_ExpectedOutcomesAreAcked(t *testing.T) {
	for _, sentinel := range []error{orders.ErrAllocationExhausted, orders.ErrPrecondition} {
		alloc := &fakeAllocator{err: fmt.Errorf("%w: order o1", sentinel)}
		p := NewProcessor(alloc, []string{"r1"}, quietLogger())

		err := p.Handle(context.Background(), sqsEvent(t,
			orders.Event{Type: orders.EventStatusChanged, OrderID: "o1", Status: orders.StatusReadyForPickup},
		))
		assert.NoError(t, err, sentinel.Error())
	}
}

func TestProcessor_UnknownOrderIsAcked(t *testing.T) {
	coord := orders.NewCoordinator(orders.NewMemoryStore(), quietLogger())
	p := NewProcessor(coord, []string{"r1"}, quietLogger())

	err := p.Handle(context.Background(), sqsEvent(t,
		orders.Event{Type: orders.EventStatusChanged, OrderID: "created-by-api", Status: orders.StatusReadyForPickup},
	))
	assert.NoError(t, err)
}

func TestProcessor_FailuresAreRetried(t *testing.T) {
	storeDown := errors.New("store unavailable")
	alloc := &fakeAllocator{err: storeDown}
	p := NewProcessor(alloc, []string{"r1"}, quietLogger())

	err := p.Handle(context.Background(), sqsEvent(t,
		orders.Event{Type: orders.EventStatusChanged, OrderID: "o1", Status: orders.StatusReadyForPickup},
		orders.Event{Type: orders.EventStatusChanged, OrderID: "o2", Status: orders.StatusReadyForPickup},
	))
	require.ErrorIs(t, err, storeDown)
	assert.Equal(t, []string{"o1"}, alloc.calls, "batch stops at the first failure")

	err = p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{{Body: "not json"}}})
	assert.Error(t, err)
}

func TestProcessor_WithCoordinator(t *testing.T) {
	ctx := context.Background()
	coord := orders.NewCoordinator(orders.NewMemoryStore(), quietLogger())
	o, err := coord.Create(ctx, orders.NewOrderParams{
		UserID: "u1", VendorID: "v1", VendorName: "Green Bowl", DishID: "d1", DishTitle: "Salad",
		Quantity: 1, Price: 120, Address: "12 MG Road", Phone: "+919800000000",
	})
	require.NoError(t, err)
	for _, st := range []orders.Status{orders.StatusAccepted, orders.StatusPreparing, orders.StatusReadyForPickup} {
		o, err = coord.SetStatus(ctx, o.OrderID, st, "")
		require.NoError(t, err)
	}

	p := NewProcessor(coord, []string{"rider-7"}, quietLogger())
	ev := orders.Event{Type: orders.EventStatusChanged, OrderID: o.OrderID, Status: orders.StatusReadyForPickup}
	require.NoError(t, p.Handle(ctx, sqsEvent(t, ev)))
	// redelivery of the same message is harmless
	require.NoError(t, p.Handle(ctx, sqsEvent(t, ev)))

	got, err := coord.Get(ctx, o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "rider-7", got.CurrentCandidateRiderID)
	assert.Equal(t, orders.AllocationOffered, got.AllocationStatus)
}
