package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validParams() NewOrderParams {
	return NewOrderParams{
		UserID:     "user-1",
		VendorID:   "vendor-1",
		VendorName: "Green Bowl",
		DishID:     "dish-42",
		DishTitle:  "Paneer Tikka Salad",
		Quantity:   2,
		Price:      259,
		Address:    "12 MG Road, Bengaluru",
		Phone:      "+919800000000",
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// testClock advances one second per call.
type testClock struct {
	now atomic.Int64
}

func newTestClock() *testClock {
	c := &testClock{}
	c.now.Store(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).Unix())
	return c
}

func (c *testClock) Now() time.Time {
	return time.Unix(c.now.Add(1), 0).UTC()
}

type fixture struct {
	coord *Coordinator
	store *MemoryStore
	pub   *recordingPublisher
}

func newFixture() *fixture {
	store := NewMemoryStore()
	pub := &recordingPublisher{}
	clock := newTestClock()
	var seq atomic.Int64
	coord := NewCoordinator(store, discardLogger(),
		WithPublisher(pub),
		WithClock(clock.Now),
		WithIDGenerator(func() string { return fmt.Sprintf("order-%d", seq.Add(1)) }),
	)
	return &fixture{coord: coord, store: store, pub: pub}
}

// readyOrder creates an order and walks it to ready_for_pickup.
func (f *fixture) readyOrder(ctx context.Context) (Order, error) {
	o, err := f.coord.Create(ctx, validParams())
	if err != nil {
		return Order{}, err
	}
	for _, st := range []Status{StatusAccepted, StatusPreparing, StatusReadyForPickup} {
		if o, err = f.coord.SetStatus(ctx, o.OrderID, st, ""); err != nil {
			return Order{}, err
		}
	}
	return o, nil
}

var errMirrorDown = errors.New("mirror unreachable")
